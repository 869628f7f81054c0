package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/safespace/request-service/internal/config"
	"github.com/safespace/request-service/internal/database"
	"github.com/safespace/request-service/internal/kafka"
	"github.com/safespace/request-service/internal/model"
	"github.com/spf13/cobra"
)

var replayEventsCmd = &cobra.Command{
	Use:   "replay-events",
	Short: "Republish all chat requests to Kafka as request.snapshot events (rebuild downstream read models).",
	RunE:  runReplayEvents,
}

func init() {
	rootCmd.AddCommand(replayEventsCmd)
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../../.env") // repo root when running from bin/
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopicRequests == "" {
		return fmt.Errorf("replay-events: KAFKA_BROKERS and KAFKA_TOPIC_REQUESTS must be set")
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var requests []model.ChatRequest
	if err := conn.Order("created_at ASC").Find(&requests).Error; err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	log.Printf("replay-events: found %d requests", len(requests))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicRequests)
	defer producer.Close()
	sent := 0
	for i := range requests {
		r := &requests[i]
		if !r.Status.Valid() {
			// мусор в таблице не превращаем в события
			log.Printf("replay-events: skip %s: unknown status %q", r.ID, r.Status)
			continue
		}
		producer.ProduceRequestEvent(ctx, "request.snapshot", kafka.EventPayload(r))
		sent++
		if sent%50 == 0 {
			log.Printf("replay-events: sent %d/%d events", sent, len(requests))
		}
	}
	log.Printf("replay-events: done, sent %d of %d events", sent, len(requests))
	return nil
}
