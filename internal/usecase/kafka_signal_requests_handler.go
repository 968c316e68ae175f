package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	mid "FinSignal/internal/middleware"
	pkgkafka "FinSignal/pkg/kafka"
)

// KafkaSignalRequestsHandler turns request messages into dispatched signals.
// Malformed requests and inputs the engine cannot score are permanent
// failures; dispatch failures are retried by the consumer.
type KafkaSignalRequestsHandler struct {
	topic    string
	gen      SignalGenerator
	dispatch mid.Dispatcher
	metrics  domrepo.Metrics
	validate *validator.Validate
}

func NewKafkaSignalRequestsHandler(topic string, gen SignalGenerator, dispatch mid.Dispatcher, metrics domrepo.Metrics) *KafkaSignalRequestsHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &KafkaSignalRequestsHandler{
		topic:    topic,
		gen:      gen,
		dispatch: dispatch,
		metrics:  metrics,
		validate: validator.New(),
	}
}

func (h *KafkaSignalRequestsHandler) Topic() string { return h.topic }

// message schema: SignalRequest JSON
func (h *KafkaSignalRequestsHandler) Handle(ctx context.Context, b []byte) error {
	start := time.Now()
	in, err := h.decode(b)
	if err != nil {
		h.metrics.RecordError("consumer_decode")
		return pkgkafka.Permanent(err)
	}

	signals := h.gen.GenerateTradingSignals(ctx, in)
	if len(signals) == 0 {
		h.metrics.RecordError("consumer_no_signal")
		return pkgkafka.Permanent(fmt.Errorf("%w for %s", ErrNoSignal, in.Symbol))
	}
	h.metrics.RecordLatency("consumer_generate", time.Since(start).Seconds())

	if err := h.dispatch.Dispatch(ctx, signals[0]); err != nil {
		h.metrics.RecordError("consumer_dispatch")
		return err
	}
	return nil
}

func (h *KafkaSignalRequestsHandler) decode(b []byte) (models.SignalInput, error) {
	var req models.SignalRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return models.SignalInput{}, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := defaults.Set(&req); err != nil {
		return models.SignalInput{}, fmt.Errorf("request defaults: %w", err)
	}
	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.SignalInput{}, &models.ValidationError{Field: verrs[0].Field(), Reason: verrs[0].Tag()}
		}
		return models.SignalInput{}, err
	}
	return req.ToInput()
}

var _ pkgkafka.MessageHandler = (*KafkaSignalRequestsHandler)(nil)
