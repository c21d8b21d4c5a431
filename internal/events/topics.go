package events

// Topic constants for domain events emitted by the checkout engine.
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderShipped       = "order.shipped"
	TopicOrderCancelled     = "order.cancelled"
)

// DefaultTopics returns the topics that trigger customer notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderShipped,
	}
}

// OrderPayload is the JSON body of every order event.
type OrderPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	FromStatus string `json:"from_status,omitempty"`
	Total      int64  `json:"total"`
	Currency   string `json:"currency"`
	CouponCode string `json:"coupon_code,omitempty"`
	Email      string `json:"email,omitempty"`
}
