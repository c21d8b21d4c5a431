// Package notify turns order events into customer emails. The API enqueues
// asynq tasks; the worker renders and sends them through common.EmailSender.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types processed by the worker.
const (
	TaskOrderConfirmation = "notify:order_confirmation"
	TaskShippingNotice    = "notify:shipping_notice"
)

// OrderMessage is the data needed to render an order email.
type OrderMessage struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// Dispatcher sends customer notifications for an order.
type Dispatcher interface {
	SendOrderConfirmation(ctx context.Context, msg OrderMessage) error
	SendShippingNotice(ctx context.Context, msg OrderMessage) error
}

// Enqueuer is the subset of *asynq.Client used by TaskDispatcher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDispatcher enqueues notification tasks for the worker.
type TaskDispatcher struct {
	Client    Enqueuer
	Queue     string
	MaxRetry  int
	Retention time.Duration
}

// SendOrderConfirmation enqueues the confirmation email for a placed order.
func (d TaskDispatcher) SendOrderConfirmation(ctx context.Context, msg OrderMessage) error {
	return d.enqueue(ctx, TaskOrderConfirmation, msg)
}

// SendShippingNotice enqueues the shipping email for a shipped order.
func (d TaskDispatcher) SendShippingNotice(ctx context.Context, msg OrderMessage) error {
	return d.enqueue(ctx, TaskShippingNotice, msg)
}

func (d TaskDispatcher) enqueue(ctx context.Context, kind string, msg OrderMessage) error {
	if d.Client == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", kind, err)
	}
	opts := []asynq.Option{
		// one task per order and kind while it is pending or retained
		asynq.TaskID(kind + ":" + msg.OrderID),
	}
	if d.Queue != "" {
		opts = append(opts, asynq.Queue(d.Queue))
	}
	if d.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(d.MaxRetry))
	}
	if d.Retention > 0 {
		opts = append(opts, asynq.Retention(d.Retention))
	}
	if _, err := d.Client.EnqueueContext(ctx, asynq.NewTask(kind, payload), opts...); err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", kind, err)
	}
	return nil
}
