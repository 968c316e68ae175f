package analytics

import (
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/logger"
)

// Runtime pairs a classifier with the process logger. It is the
// Capability handed to the signal engine.
type Runtime struct {
	domsvc.Classifier
	*logger.Logger
}

func NewRuntime(classifier domsvc.Classifier, log *logger.Logger) *Runtime {
	if log == nil {
		log = logger.Nop()
	}
	return &Runtime{Classifier: classifier, Logger: log}
}

var _ domsvc.Capability = (*Runtime)(nil)
