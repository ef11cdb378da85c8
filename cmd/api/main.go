package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"

	"github.com/jeremyjsx/academy/internal/config"
	"github.com/jeremyjsx/academy/internal/events"
	"github.com/jeremyjsx/academy/internal/gate"
	"github.com/jeremyjsx/academy/internal/handlers"
	"github.com/jeremyjsx/academy/internal/middleware"
	"github.com/jeremyjsx/academy/internal/posts"
	"github.com/jeremyjsx/academy/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("academy blog api failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource, so its defers close them before main exits.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("reach database: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	images := storage.NewS3Storage(s3Client, cfg.S3Bucket, cfg.AWSRegion, cfg.S3PublicURL)

	var publisher events.Publisher = events.NoopPublisher{}
	var eventsHealth handlers.EventsHealth
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, publish events disabled", "error", err)
		} else {
			defer rmq.Close()
			publisher = rmq
			eventsHealth = rmq
		}
	}

	repo := posts.NewPostgresRepository(db)
	router := handlers.NewRouter(handlers.RouterDeps{
		Reader:             posts.NewReader(repo, logger),
		Editor:             posts.NewEditorService(repo, images, publisher, logger),
		Gate:               gate.New(cfg.AdminSecret),
		Health:             &handlers.HealthDeps{DB: db, Storage: images, Events: eventsHealth},
		Logger:             logger,
		DefaultAuthor:      cfg.DefaultAuthor,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		UnlockLimiter:      middleware.NewRateLimiter(5, time.Minute).TrustProxyHeaders(cfg.TrustProxyHeaders),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("academy blog api started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	serveErr := awaitStop(quit, serverErr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("academy blog api stopped")
	return serveErr
}

// awaitStop blocks until a signal arrives or the server fails, and
// returns the server's error in the latter case.
func awaitStop(quit <-chan os.Signal, serverErr <-chan error) error {
	select {
	case <-quit:
		return nil
	case err := <-serverErr:
		return fmt.Errorf("serve: %w", err)
	}
}
