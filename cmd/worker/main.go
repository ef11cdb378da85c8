package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jeremyjsx/academy/internal/config"
	"github.com/jeremyjsx/academy/internal/events"
)

// The worker drains post.published events and logs each new post, the
// hook for announcing it to students.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Load()
	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := events.DeclareTopology(ch); err != nil {
		logger.Error("failed to declare topology", "error", err)
		os.Exit(1)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set qos", "error", err)
		os.Exit(1)
	}

	deliveries, err := ch.Consume(events.QueueName, "announcement-worker", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}

	logger.Info("announcement worker started", "queue", events.QueueName)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			logger.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			handleDelivery(logger, d)
		}
	}
}

func handleDelivery(logger *slog.Logger, d amqp.Delivery) {
	e, err := decodePostPublished(d.Body)
	if err != nil {
		logger.Error("invalid event body", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}
	if e == nil {
		logger.Debug("ignoring event", "message_id", d.MessageId)
		_ = d.Ack(false)
		return
	}
	logger.Info("new blog post published",
		"post_id", e.Payload.PostID,
		"slug", e.Payload.Slug,
		"title", e.Payload.Title,
		"published_at", e.Payload.PublishedAt,
	)
	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack", "error", err)
	}
}

// decodePostPublished returns nil, nil for events of other types.
func decodePostPublished(body []byte) (*events.PostPublished, error) {
	var e events.PostPublished
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	if e.Type != events.TypePostPublished {
		return nil, nil
	}
	return &e, nil
}
