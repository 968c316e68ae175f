package service

import (
	"context"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
)

// Classifier labels one text. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
}

// EventLogger receives engine events.
type EventLogger interface {
	Debug(msg string, fields ...logger.Field)
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}

// Capability is everything the engine needs from the outside world.
type Capability interface {
	Classifier
	EventLogger
}
