package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// ErrNoRecipient is returned for orders without a contact email.
var ErrNoRecipient = errors.New("notify: order has no contact email")

// Mailer renders order emails and hands them to the EmailSender. It implements
// Dispatcher for synchronous delivery and serves the asynq tasks in the worker.
type Mailer struct {
	Mail    common.EmailSender
	Breaker *resilience.Breaker
	Enabled bool
	Log     zerolog.Logger
}

// SendOrderConfirmation implements Dispatcher.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, msg OrderMessage) error {
	return m.deliver(ctx, "order_confirmation", msg, confirmationSubject(msg), confirmationBody(msg))
}

// SendShippingNotice implements Dispatcher.
func (m *Mailer) SendShippingNotice(ctx context.Context, msg OrderMessage) error {
	return m.deliver(ctx, "shipping_notice", msg, shippingSubject(msg), shippingBody(msg))
}

// Register mounts the task handlers on mux.
func (m *Mailer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskOrderConfirmation, m.handle(m.SendOrderConfirmation))
	mux.HandleFunc(TaskShippingNotice, m.handle(m.SendShippingNotice))
}

func (m *Mailer) handle(send func(context.Context, OrderMessage) error) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg OrderMessage
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("notify: decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		err := send(ctx, msg)
		if errors.Is(err, ErrNoRecipient) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
}

func (m *Mailer) deliver(ctx context.Context, kind string, msg OrderMessage, subject, body string) error {
	if !m.Enabled || m.Mail == nil {
		obs.CountNotification(kind, "disabled")
		return nil
	}
	to := strings.TrimSpace(msg.Email)
	if to == "" {
		obs.CountNotification(kind, "skipped")
		return ErrNoRecipient
	}
	err := m.Breaker.Do(ctx, func(context.Context) error {
		return m.Mail.Send(to, subject, body)
	})
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		obs.CountNotification(kind, "rejected")
		return err
	case err != nil:
		obs.CountNotification(kind, "failed")
		m.Log.Warn().Err(err).Str("order_id", msg.OrderID).Str("kind", kind).Msg("email delivery failed")
		return fmt.Errorf("notify: send %s: %w", kind, err)
	}
	obs.CountNotification(kind, "sent")
	m.Log.Info().Str("order_id", msg.OrderID).Str("kind", kind).Msg("email sent")
	return nil
}

func confirmationSubject(msg OrderMessage) string {
	return fmt.Sprintf("Order %s confirmed", shortID(msg.OrderID))
}

func shippingSubject(msg OrderMessage) string {
	return fmt.Sprintf("Order %s has shipped", shortID(msg.OrderID))
}

func confirmationBody(msg OrderMessage) string {
	return fmt.Sprintf(
		"<p>Thanks for your order.</p><p>Order: <b>%s</b><br>Total: %s %s</p>",
		html.EscapeString(msg.OrderID), html.EscapeString(msg.Currency), money.Money(msg.Total),
	)
}

func shippingBody(msg OrderMessage) string {
	return fmt.Sprintf(
		"<p>Your order <b>%s</b> is on its way.</p>",
		html.EscapeString(msg.OrderID),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

// LogSender writes emails to the log instead of delivering them. The worker
// uses it when no SMTP relay is configured.
type LogSender struct {
	Log zerolog.Logger
}

// Send implements common.EmailSender.
func (s LogSender) Send(to, subject, _ string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Msg("email not sent: no smtp relay configured")
	return nil
}
