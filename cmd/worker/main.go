// Worker consumes domain events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"device-maintenance/backend/internal/config"
	"device-maintenance/backend/internal/logger"
	"device-maintenance/backend/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	base, err := logger.New(logger.Config{Level: cfg.LogLevel, Debug: cfg.LogDebug})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	l := logger.WithComponent(base, "worker")

	brokers := cfg.EventsKafkaBrokersList()
	if len(brokers) == 0 {
		l.Fatal().Msg("KAFKA_BROKERS is required")
	}
	client, err := loki.NewClient(cfg.LokiURL, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		l.Fatal().Err(err).Msg("LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventsKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info().Str("topic", cfg.EventsKafkaTopic).Str("group", cfg.KafkaGroupID).Str("loki", cfg.LokiURL).Msg("consuming")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.Info().Msg("stopped")
				return
			}
			l.Error().Err(err).Msg("kafka read")
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.PushEventJSON(pushCtx, msg.Value); err != nil {
			l.Warn().Err(err).Int64("offset", msg.Offset).Msg("loki push failed")
		}
		cancel()
	}
}
