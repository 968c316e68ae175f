package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"
	pkgkafka "FinSignal/pkg/kafka"
)

const insertChunk = 1000

// ClickHouseSignalStorage archives signals in the trading_signals table.
type ClickHouseSignalStorage struct {
	db    *sql.DB
	table string
	newID func() uuid.UUID
}

func NewClickHouseSignalStorage(ch *pkgch.Client) *ClickHouseSignalStorage {
	return &ClickHouseSignalStorage{db: ch.DB(), table: ch.Table(signalsTable), newID: uuid.New}
}

func (s *ClickHouseSignalStorage) Store(ctx context.Context, sig models.TradingSignal) error {
	return s.StoreBatch(ctx, []models.TradingSignal{sig})
}

// StoreBatch inserts in multi-row chunks; each row gets a fresh UUID.
func (s *ClickHouseSignalStorage) StoreBatch(ctx context.Context, signals []models.TradingSignal) error {
	for start := 0; start < len(signals); start += insertChunk {
		end := min(start+insertChunk, len(signals))
		q, args := s.buildInsert(signals[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert signals: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalStorage) buildInsert(signals []models.TradingSignal) (string, []interface{}) {
	values := make([]string, 0, len(signals))
	args := make([]interface{}, 0, len(signals)*9)
	for _, sig := range signals {
		if sig.Symbol() == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			s.newID(),
			sig.Timestamp().UTC(),
			sig.Symbol(),
			string(sig.AssetType()),
			string(sig.Action()),
			sig.Confidence(),
			decimal.NewFromFloat(sig.PriceTarget()).Round(2),
			decimal.NewFromFloat(sig.StopLoss()).Round(2),
			sig.Rationale(),
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (id, ts, symbol, asset_type, action, confidence, price_target, stop_loss, rationale) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func (s *ClickHouseSignalStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the ClickHouse client.
func (s *ClickHouseSignalStorage) Close() error { return nil }

// KafkaSignalPublisher writes signals as JSON keyed by symbol, so one
// symbol's signals stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig models.TradingSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol()), sig)
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []models.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, sig := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(sig.Symbol()), Value: sig}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var (
	_ domrepo.SignalStorage   = (*ClickHouseSignalStorage)(nil)
	_ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)
)
