// Package outbox is a notifier that records confirmations instead of sending them.
// It backs NOTIFIER=log and the service tests.
package outbox

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/minnehack/registration-api/internal/ports/out/notifier"
)

type Outbox struct {
	log *zap.Logger

	mu   sync.Mutex
	sent []notifier.Confirmation
	fail error
}

func New(log *zap.Logger) *Outbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{log: log}
}

// FailWith makes subsequent sends return err. Pass nil to restore delivery.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

func (o *Outbox) SendConfirmation(ctx context.Context, c notifier.Confirmation) error {
	_ = ctx
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.sent = append(o.sent, c)
	o.log.Info("confirmation recorded",
		zap.String("to", c.To),
		zap.String("registration_code", c.Code.String()),
	)
	return nil
}

// Sent returns a copy of every confirmation delivered so far.
func (o *Outbox) Sent() []notifier.Confirmation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notifier.Confirmation(nil), o.sent...)
}
