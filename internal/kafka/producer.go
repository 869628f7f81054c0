package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/safespace/request-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// RequestEventProducer — интерфейс публикации событий заявок
// (для подмены моком в тестах).
type RequestEventProducer interface {
	ProduceRequestEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer пишет события заявок в топик Kafka (best-effort, не блокирует API).
// Это явный канал публикации взамен внутрипроцессного broadcast'а: независимые
// наблюдатели (бейджи, read-модели) узнают об изменениях очереди без связности.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer создаёт продюсер. Если brokers или topic пустые — методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// EventPayload собирает полезную нагрузку события из заявки.
func EventPayload(r *model.ChatRequest) map[string]interface{} {
	if r == nil {
		return nil
	}
	p := map[string]interface{}{
		"request_id":      r.ID,
		"status":          string(r.Status),
		"created_by":      r.CreatedBy,
		"created_by_name": r.CreatedByName,
		"created_at":      r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.AcceptedBy != nil {
		p["accepted_by"] = *r.AcceptedBy
	}
	if r.ClosedAt != nil {
		p["closed_at"] = r.ClosedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// ProduceRequestEvent отправляет событие заявки в топик.
// event: request.created | request.accepted | request.closed | request.snapshot.
func (p *Producer) ProduceRequestEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal request event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write request event: %v", err)
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
