// internal/app/system/workers/dispatcher.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/mailer"
	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender delivers one rendered email. *mailer.Mailer satisfies it.
type Sender interface {
	Send(ctx context.Context, e mailer.Email) error
}

// RenderFunc turns a template name and data into an email.
type RenderFunc func(template string, data map[string]string) (mailer.Email, error)

// Dispatcher is a background worker that drains queued notifications at a
// bounded rate. It implements notify.Notifier; Send never blocks.
type Dispatcher struct {
	sender  Sender
	render  RenderFunc
	log     *zap.Logger
	limiter *rate.Limiter
	queue   chan notify.Message
	timeout time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher creates a dispatcher.
//
// Parameters:
//   - sender: delivers rendered email
//   - render: builds an email from a template name
//   - logger: zap logger for logging
//   - cfg: queue size and delivery rate
func NewDispatcher(sender Sender, render RenderFunc, logger *zap.Logger, cfg notify.Config) *Dispatcher {
	cfg = cfg.WithDefaults()
	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Dispatcher{
		sender:  sender,
		render:  render,
		log:     logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
		queue:   make(chan notify.Message, cfg.QueueSize),
		timeout: 30 * time.Second,
		stopCh:  make(chan struct{}),
	}
}

// Send enqueues a message. When the queue is full the message is dropped,
// a warning is logged and notify.ErrQueueFull returned.
func (d *Dispatcher) Send(_ context.Context, recipient, template string, data map[string]string) error {
	msg := notify.Message{Recipient: recipient, Template: template, Data: data}
	select {
	case d.queue <- msg:
		return nil
	default:
		d.log.Warn("notification dropped, queue full",
			zap.String("recipient", recipient),
			zap.String("template", template))
		return notify.ErrQueueFull
	}
}

// Pending reports the number of queued messages.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Start begins the delivery loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("notification dispatcher started",
		zap.Int("queue_size", cap(d.queue)),
		zap.Float64("rate_per_sec", float64(d.limiter.Limit())))
}

// Stop signals the worker to stop and waits for it to finish. Messages still
// queued are delivered first, subject to ctx.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.once.Do(func() { close(d.stopCh) })
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.log.Info("notification dispatcher stopped")
	case <-ctx.Done():
		d.log.Warn("notification dispatcher stop timed out", zap.Int("pending", d.Pending()))
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			d.drain()
			return
		case msg := <-d.queue:
			d.deliver(msg)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		d.log.Warn("notification rate wait failed", zap.Error(err))
		return
	}
	e, err := d.render(msg.Template, msg.Data)
	if err != nil {
		d.log.Error("failed to render notification",
			zap.String("template", msg.Template),
			zap.Error(err))
		return
	}
	e.To = msg.Recipient
	if err := d.sender.Send(ctx, e); err != nil {
		d.log.Warn("failed to send notification",
			zap.String("recipient", msg.Recipient),
			zap.String("template", msg.Template),
			zap.Error(err))
		return
	}
	d.log.Debug("notification sent",
		zap.String("recipient", msg.Recipient),
		zap.String("template", msg.Template))
}
