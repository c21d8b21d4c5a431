package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
	err        error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	s.lastParams = arg
	if s.err != nil {
		return dbgen.DomainEvent{}, s.err
	}
	return dbgen.DomainEvent{
		ID:          uuid.New(),
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	aggregate := uuid.New()
	event, err := bus.Emit(context.Background(), events.TopicOrderPlaced, aggregate, events.OrderPayload{OrderID: "o-1", Total: 100})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPlaced, store.lastParams.Topic)
	require.Equal(t, aggregate, store.lastParams.AggregateID)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "o-1", decoded["order_id"])
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPlaced, uuid.Nil, nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPlaced, uuid.New(), []byte("{not json"))
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicOrderPlaced, uuid.New(), nil)
	require.Error(t, err)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	first := errors.New("queue down")
	second := errors.New("broker down")
	after := &captureNotifier{}
	bus := events.Bus{
		Store: &stubStore{},
		Notifiers: []events.Notifier{
			events.NotifierFunc(func(context.Context, dbgen.DomainEvent) error { return first }),
			nil,
			events.NotifierFunc(func(context.Context, dbgen.DomainEvent) error { return second }),
			after,
		},
	}
	ev, err := bus.Emit(context.Background(), events.TopicOrderShipped, uuid.New(), nil)
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.NotEqual(t, uuid.Nil, ev.ID)
	require.Len(t, after.events, 1)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestEmitStoreFailureSkipsNotifiers(t *testing.T) {
	notifier := &captureNotifier{}
	bus := events.Bus{Store: &stubStore{err: errors.New("db gone")}, Notifiers: []events.Notifier{notifier}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPlaced, uuid.New(), nil)
	require.Error(t, err)
	require.Empty(t, notifier.events)
}

func TestKafkaPublisherKeysByAggregate(t *testing.T) {
	w := &captureWriter{}
	pub := &events.KafkaPublisher{Writer: w}
	ev := dbgen.DomainEvent{
		ID:          uuid.New(),
		Topic:       events.TopicOrderPlaced,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"order_id":"o-1"}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Valid: true},
	}
	require.NoError(t, pub.Notify(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	require.Equal(t, ev.AggregateID.String(), string(msg.Key))
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, events.TopicOrderPlaced, string(msg.Headers[0].Value))

	var body struct {
		Topic   string         `json:"topic"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	require.Equal(t, events.TopicOrderPlaced, body.Topic)
	require.Equal(t, "o-1", body.Payload["order_id"])

	w.err = errors.New("leader not available")
	require.ErrorContains(t, pub.Notify(context.Background(), ev), "leader not available")

	var disabled *events.KafkaPublisher
	require.NoError(t, disabled.Notify(context.Background(), ev))
}

func TestNewKafkaWriter(t *testing.T) {
	w := events.NewKafkaWriter([]string{"localhost:9092"}, "orders")
	require.Equal(t, "orders", w.Topic)
	require.Equal(t, "localhost:9092", w.Addr.String())
}
