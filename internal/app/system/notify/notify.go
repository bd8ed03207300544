// Package notify defines the fire-and-forget notification contract used by
// the assignment flow.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Template names understood by the mail renderer.
const (
	TemplateAssignedWorker  = "complaint_assigned_worker"
	TemplateAssignedCitizen = "complaint_assigned_citizen"
)

// Data keys shared by the assignment templates.
const (
	KeyComplaintID    = "complaint_id"
	KeyComplaintTitle = "complaint_title"
	KeyAddress        = "address"
	KeyWorkerName     = "worker_name"
	KeyLink           = "link"
)

// ErrQueueFull is returned when a message was dropped because the outbound
// queue had no room.
var ErrQueueFull = errors.New("notification queue full")

// Notifier delivers a templated message to one recipient. Implementations
// must not block the caller on delivery.
type Notifier interface {
	Send(ctx context.Context, recipient, template string, data map[string]string) error
}

// Message is one queued notification.
type Message struct {
	Recipient string
	Template  string
	Data      map[string]string
}

// Config sizes the delivery pipeline.
type Config struct {
	QueueSize  int
	RatePerSec float64
}

// Defaults applied by WithDefaults.
const (
	DefaultQueueSize  = 256
	DefaultRatePerSec = 5
)

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = DefaultRatePerSec
	}
	return c
}

// LogNotifier only logs. It is used when no mail server is configured.
type LogNotifier struct {
	Log *zap.Logger
}

// Send logs the message and reports success.
func (n LogNotifier) Send(_ context.Context, recipient, template string, data map[string]string) error {
	if n.Log != nil {
		n.Log.Info("notification (mail disabled)",
			zap.String("recipient", recipient),
			zap.String("template", template),
			zap.String("complaint_id", data[KeyComplaintID]))
	}
	return nil
}
