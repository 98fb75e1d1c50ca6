// Package events publishes run lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"threshold-lab/internal/domain"
)

// EventRunCompleted is the type header value of run completion events.
const EventRunCompleted = "run.completed"

// Publisher announces finished runs.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, run *domain.RunSummary) error
	Close() error
}

// RunCompleted is the JSON payload of a run.completed event.
// Money fields are decimal strings.
type RunCompleted struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	UniqueEntries  int       `json:"unique_entries"`
	ScannedEntries int       `json:"scanned_entries"`
	AcceptedTrades int       `json:"accepted_trades"`
	LedgerRows     int       `json:"ledger_rows"`
	InitialCapital string    `json:"initial_capital"`
	FinalCapital   string    `json:"final_capital"`
	WinRatePct     float64   `json:"win_rate_pct"`
	ExpectedPayoff string    `json:"expected_payoff"`
	MaxDrawdown    string    `json:"max_drawdown"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	CAGRPct        float64   `json:"cagr_pct"`
}

// NewRunCompleted builds the event payload for run.
func NewRunCompleted(run *domain.RunSummary) RunCompleted {
	return RunCompleted{
		RunID:          run.RunID,
		CreatedAt:      run.CreatedAt.UTC(),
		UniqueEntries:  run.UniqueEntries,
		ScannedEntries: run.ScannedEntries,
		AcceptedTrades: run.AcceptedTrades,
		LedgerRows:     run.LedgerRows,
		InitialCapital: run.InitialCapital.String(),
		FinalCapital:   run.FinalCapital.String(),
		WinRatePct:     run.WinRatePct,
		ExpectedPayoff: run.ExpectedPayoff.String(),
		MaxDrawdown:    run.MaxDrawdown.String(),
		MaxDrawdownPct: run.MaxDrawdownPct,
		CAGRPct:        run.CAGRPct,
	}
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by run id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: "threshold-lab",
		},
	}
	return newKafkaPublisher(writer, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// PublishRunCompleted sends one run.completed message.
func (p *KafkaPublisher) PublishRunCompleted(ctx context.Context, run *domain.RunSummary) error {
	value, err := json.Marshal(NewRunCompleted(run))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(run.RunID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventRunCompleted)},
		},
		Time: time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish run event",
			zap.String("topic", p.topic),
			zap.String("run_id", run.RunID),
			zap.Error(err))
		return fmt.Errorf("publish run event: %w", err)
	}

	p.logger.Debug("run event published",
		zap.String("topic", p.topic),
		zap.String("run_id", run.RunID))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

// PublishRunCompleted implements Publisher.
func (NopPublisher) PublishRunCompleted(context.Context, *domain.RunSummary) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
