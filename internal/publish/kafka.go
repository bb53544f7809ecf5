// Package publish emits a compact refresh event to Kafka after each
// completed refresh cycle so downstream consumers can react to new data
// without polling the bridge.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/model"
)

const publishTimeout = 10 * time.Second

// RefreshEvent is the message body published per refresh.
type RefreshEvent struct {
	RefreshID    string  `json:"refresh_id"`
	Timestamp    string  `json:"timestamp"`
	OverallScore float64 `json:"overall_score"`
	RiskLevel    string  `json:"risk_level"`
	AlertCount   int     `json:"alert_count"`
	QueryCount   int     `json:"query_count"`
}

// Publisher wraps a Kafka writer for refresh events.
type Publisher struct {
	writer *kafka.Writer
	log    *logrus.Logger
}

// NewPublisher creates a publisher for the configured topic.
func NewPublisher(cfg config.KafkaConfig, log *logrus.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.TopicRefresh,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		log: log,
	}
}

// Publish emits one refresh event derived from the snapshot.
func (p *Publisher) Publish(ctx context.Context, snap *model.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ev := eventFrom(snap)
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode refresh event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.RefreshID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write refresh event: %w", err)
	}
	p.log.WithField("refresh_id", ev.RefreshID).Debug("Published refresh event")
	return nil
}

// Listener adapts Publish to the coordinator's listener signature. Publish
// failures are logged, never propagated into the refresh cycle.
func (p *Publisher) Listener() func(*model.Snapshot) {
	return func(snap *model.Snapshot) {
		if err := p.Publish(context.Background(), snap); err != nil {
			p.log.Errorf("Refresh event publish failed: %v", err)
		}
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func eventFrom(snap *model.Snapshot) RefreshEvent {
	ev := RefreshEvent{
		RefreshID:  uuid.NewString(),
		Timestamp:  snap.LastUpdated.UTC().Format(time.RFC3339),
		RiskLevel:  string(model.RiskUnknown),
		QueryCount: len(snap.Queries),
	}
	if snap.FinancialHealth != nil {
		ev.OverallScore = snap.FinancialHealth.OverallScore
		ev.RiskLevel = string(snap.FinancialHealth.RiskLevel)
		ev.AlertCount = len(snap.FinancialHealth.Alerts)
	}
	return ev
}
