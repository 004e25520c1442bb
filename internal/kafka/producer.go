package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-admission/internal/models"
)

// Producer streams resolved scans to the ops/analytics plane. Topics are
// chosen per message so admitted scans and conflicts land on separate
// streams.
type Producer struct {
	Writer        *kafka.Writer
	RecordedTopic string
	ConflictTopic string
}

func NewProducer(brokers []string, recordedTopic, conflictTopic string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{
		Writer:        writer,
		RecordedTopic: recordedTopic,
		ConflictTopic: conflictTopic,
	}
}

// PublishScanRecorded streams a committed admission scan.
func (p *Producer) PublishScanRecorded(scan models.Scan) error {
	return p.publish(p.RecordedTopic, scan)
}

// PublishScanConflict streams a duplicate or lost-race scan. Offline
// double-admissions surface to operators through this topic.
func (p *Producer) PublishScanConflict(scan models.Scan) error {
	return p.publish(p.ConflictTopic, scan)
}

func (p *Producer) publish(topic string, scan models.Scan) error {
	msgBytes, err := json.Marshal(scan)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(scan.TicketID),
			Value: msgBytes,
		},
	)
}

// Close gracefully shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.Writer.Close()
}
