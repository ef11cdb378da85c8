package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jeremyjsx/academy/internal/storage"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// EventsHealth is satisfied by the RabbitMQ publisher.
type EventsHealth interface {
	Healthy() bool
}

type HealthDeps struct {
	DB      Pinger
	Storage storage.Storage
	// Events is nil when no broker is configured.
	Events EventsHealth
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func Health(deps *HealthDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := "healthy"

		if err := deps.DB.PingContext(ctx); err != nil {
			checks["db"] = "unhealthy"
			status = "unhealthy"
		} else {
			checks["db"] = "ok"
		}

		if _, err := deps.Storage.Exists(ctx, "__health__"); err != nil {
			checks["s3"] = "unhealthy"
			status = "unhealthy"
		} else {
			checks["s3"] = "ok"
		}

		switch {
		case deps.Events == nil:
			checks["rabbitmq"] = "skipped"
		case deps.Events.Healthy():
			checks["rabbitmq"] = "ok"
		default:
			checks["rabbitmq"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
			}
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, healthResponse{Status: status, Checks: checks})
	}
}
