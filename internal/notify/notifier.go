package notify

import (
	"context"
	"encoding/json"
	"fmt"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/events"
)

// EventNotifier forwards order events to a Dispatcher.
type EventNotifier struct {
	Dispatcher Dispatcher
}

// Notify implements events.Notifier. Topics without a customer email are ignored.
func (n EventNotifier) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if n.Dispatcher == nil {
		return nil
	}
	switch ev.Topic {
	case events.TopicOrderPlaced, events.TopicOrderShipped:
	default:
		return nil
	}
	var p events.OrderPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fmt.Errorf("notify: decode %s payload: %w", ev.Topic, err)
	}
	msg := OrderMessage{
		OrderID:  p.OrderID,
		UserID:   p.UserID,
		Email:    p.Email,
		Status:   p.Status,
		Total:    p.Total,
		Currency: p.Currency,
	}
	if ev.Topic == events.TopicOrderShipped {
		return n.Dispatcher.SendShippingNotice(ctx, msg)
	}
	return n.Dispatcher.SendOrderConfirmation(ctx, msg)
}
