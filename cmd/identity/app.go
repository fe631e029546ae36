package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursecatalyst/identity/internal/db"
	"github.com/coursecatalyst/identity/internal/email"
	"github.com/coursecatalyst/identity/internal/handlers"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/redisdb"
	"github.com/coursecatalyst/identity/internal/repository/postgres"
	"github.com/coursecatalyst/identity/internal/service/auth"
	"github.com/coursecatalyst/identity/internal/service/auth/tokencodec"
	"github.com/coursecatalyst/identity/internal/service/user"
	"github.com/coursecatalyst/identity/internal/session"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	close func()
}

// redisPinger adapts the go-redis client to the health check interface
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Connect to redis
	rdb, err := redisdb.Connect(ctx, c.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	// Initialize repositories and redis-backed ledgers
	storage := postgres.NewStorage(pool)
	sessions := session.NewStore(rdb)
	revocations := session.NewRevocationLedger(rdb)
	activations := session.NewActivationStore(rdb)
	profiles := session.NewProfileCache(rdb, c.ProfileCacheTTL)

	// Initialize email delivery. Without mailgun credentials codes are
	// logged, which is acceptable in development only
	var sender email.Sender
	if c.MailgunKey != "" {
		sender, err = email.NewMailgunSender(email.MailgunConfig{
			Key:    c.MailgunKey,
			Domain: c.MailgunDomain,
			From:   c.MailgunFrom,
		}, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("error while creating mailgun sender. Err: %w", err)
		}
	} else {
		if c.Environment == logger.EnvProduction {
			pool.Close()
			return nil, fmt.Errorf("mailgun credentials must be configured in production")
		}
		sender = email.NewLogSender(log)
	}

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:     c.AccessSecret,
		RefreshSecret:    c.RefreshSecret,
		ActivationSecret: c.ActivationSecret,
		AccessTTL:        c.AccessTTL,
		RefreshTTL:       c.RefreshTTL,
		ActivationTTL:    c.ActivationTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, codec, storage.User(), sessions, revocations, activations, sender, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage.User(), profiles, log)

	mux := handlers.NewRouter(authService, userService, pool, redisPinger{rdb}, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		close: func() {
			_ = rdb.Close()
			pool.Close()
		},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if s.close != nil {
		s.close()
	}

	return err
}
