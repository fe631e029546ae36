package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued on login and on every refresh rotation
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
