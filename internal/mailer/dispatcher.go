// AngelaMos | 2026
// dispatcher.go

package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const sendTimeout = 30 * time.Second

// Dispatcher decouples mail delivery from request handling: callers enqueue
// and move on, a single background worker talks to the provider. Failures
// are logged and dropped; email here is best-effort.
type Dispatcher struct {
	mailer Mailer
	queue  chan Message
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(
	mailer Mailer,
	queueSize int,
	logger *slog.Logger,
) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}

	d := &Dispatcher{
		mailer: mailer,
		queue:  make(chan Message, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}

	go d.run()

	return d
}

// Enqueue never blocks the caller. When the queue is full the message is
// dropped and logged; entitlement state must not depend on mail capacity.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message",
			"to", msg.ToEmail,
			"subject", msg.Subject,
		)
	}
}

// Close stops accepting work and drains what is already queued.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)

		if err := d.mailer.Send(ctx, msg); err != nil {
			d.logger.Error("mail delivery failed",
				"to", msg.ToEmail,
				"subject", msg.Subject,
				"error", err,
			)
		}

		cancel()
	}
}
