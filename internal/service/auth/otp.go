package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a random numeric code of the given length with
// leading zeros preserved. crypto/rand, not math/rand: the code is a
// credential
func GenerateOTP(length int) (string, error) {
	max := big.NewInt(10)
	code := make([]byte, 0, length)

	for range length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("error while generating otp. Err: %w", err)
		}
		code = append(code, byte('0'+n.Int64()))
	}

	return string(code), nil
}
