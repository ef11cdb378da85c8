package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	S3Bucket           string
	AWSRegion          string
	S3Endpoint         string
	S3PublicURL        string
	RabbitMQURL        string
	AdminSecret        string
	DefaultAuthor      string
	CorsAllowedOrigins []string
	// TrustProxyHeaders takes client IPs from X-Real-IP/X-Forwarded-For
	// when throttling unlocks. Leave off unless a proxy sets them.
	TrustProxyHeaders bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Default().Warn("loading .env failed", "error", err)
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		S3Bucket:           getEnv("S3_BUCKET", "blog_images"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		AdminSecret:        getEnv("ADMIN_SECRET", ""),
		DefaultAuthor:      getEnv("DEFAULT_AUTHOR", "Krishna Flute Academy"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TrustProxyHeaders:  getBool("TRUST_PROXY_HEADERS", false),
	}
}

// Validate reports every missing setting the API cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required"))
	}
	if c.AdminSecret == "" {
		errs = append(errs, errors.New("ADMIN_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
