// Package notify provides the feedback adapters: a zap-backed notifier
// and confirmers for the destructive-operation gate.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// ZapNotifier emits success/error feedback to the application log.
type ZapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier creates a log-backed notifier.
func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	return &ZapNotifier{logger: logger}
}

func (n *ZapNotifier) Success(message string) {
	n.logger.Info("notification", zap.String("kind", "success"), zap.String("message", message))
}

func (n *ZapNotifier) Error(message string) {
	n.logger.Warn("notification", zap.String("kind", "error"), zap.String("message", message))
}

// StaticConfirmer answers every confirmation with a fixed value. The
// HTTP layer uses it to carry the caller's confirm flag; tests use it
// to exercise both branches of the gate.
type StaticConfirmer struct {
	Answer bool
}

func (c StaticConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	return c.Answer, nil
}
