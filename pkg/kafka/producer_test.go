package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// --- Event tests ---

var cartSubject = Subject{Kind: KindCart, UserID: "user-1", Version: 3}

func TestNewEvent_Fields(t *testing.T) {
	type cartData struct {
		UserID string `json:"user_id"`
		Total  int64  `json:"total_amount"`
	}

	data := cartData{UserID: "user-1", Total: 4500}
	event, err := NewEvent("cart.updated", cartSubject, "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "cart.updated", event.Type)
	assert.Equal(t, cartSubject, event.Subject)
	assert.Equal(t, "storefront", event.Producer)
	assert.Equal(t, []byte("user-1"), event.Key())
	assert.WithinDuration(t, time.Now().UTC(), event.OccurredAt, 2*time.Second)

	var decoded cartData
	require.NoError(t, event.DecodePayload(&decoded))
	assert.Equal(t, data, decoded)
}

func TestNewEvent_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		subject   Subject
		payload   any
		want      error
	}{
		{name: "missing type", subject: cartSubject, want: ErrMissingType},
		{name: "missing kind", eventType: "cart.updated", subject: Subject{UserID: "user-1"}, want: ErrMissingSubject},
		{name: "missing user", eventType: "wishlist.toggled", subject: Subject{Kind: KindWishlist}, want: ErrMissingSubject},
		{name: "unencodable payload", eventType: "cart.updated", subject: cartSubject, payload: make(chan int)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(tt.eventType, tt.subject, "storefront", tt.payload)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	event, err := NewEvent("wishlist.toggled", Subject{Kind: KindWishlist, UserID: "user-2"}, "storefront", map[string]bool{"added": true})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	raw, err := event.Marshal()
	require.NoError(t, err)
	restored, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.ID, restored.ID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, KindWishlist, restored.Subject.Kind)

	_, err = DecodeEvent([]byte("{not json"))
	require.Error(t, err)
	_, err = DecodeEvent([]byte(`{"type":"cart.updated","subject":{"kind":"cart"}}`))
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestEvent_Supersedes(t *testing.T) {
	older, err := NewEvent("cart.updated", Subject{Kind: KindCart, UserID: "user-1", Version: 4}, "storefront", nil)
	require.NoError(t, err)
	newer, err := NewEvent("cart.cleared", Subject{Kind: KindCart, UserID: "user-1", Version: 5}, "storefront", nil)
	require.NoError(t, err)
	otherUser, err := NewEvent("cart.updated", Subject{Kind: KindCart, UserID: "user-2", Version: 1}, "storefront", nil)
	require.NoError(t, err)

	assert.True(t, newer.Supersedes(older))
	assert.False(t, older.Supersedes(newer), "a late delivery of version 4 must not replace version 5")
	assert.True(t, otherUser.Supersedes(newer))
	assert.True(t, older.Supersedes(nil))

	wishA, err := NewEvent("wishlist.toggled", Subject{Kind: KindWishlist, UserID: "user-1"}, "storefront", nil)
	require.NoError(t, err)
	wishB := *wishA
	wishB.OccurredAt = wishA.OccurredAt.Add(time.Second)
	assert.True(t, wishB.Supersedes(wishA), "unversioned wishlists fall back to occurrence time")
}

// --- Message tests ---

func TestBuildMessage_KeysByUserAndCarriesHeaders(t *testing.T) {
	event, err := NewEvent("cart.cleared", Subject{Kind: KindCart, UserID: "user-3", Version: 2}, "storefront", map[string]string{})
	require.NoError(t, err)
	event.WithCorrelationID("corr-7")

	msg, err := BuildMessage(context.Background(), "storefront.cart.cleared", event)
	require.NoError(t, err)

	assert.Equal(t, "storefront.cart.cleared", msg.Topic)
	assert.Equal(t, []byte("user-3"), msg.Key)

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "cart.cleared", carrier.Get("event_type"))
	assert.Equal(t, "cart", carrier.Get("subject_kind"))
	assert.Equal(t, "storefront", carrier.Get("producer"))
	assert.Equal(t, "corr-7", carrier.Get("correlation_id"))

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, event.ID, envelope["id"])
	assert.Equal(t, map[string]any{"kind": "cart", "user_id": "user-3", "version": float64(2)}, envelope["subject"])
}

func TestBuildMessage_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	event, err := NewEvent("cart.updated", Subject{Kind: KindCart, UserID: "user-4"}, "storefront", nil)
	require.NoError(t, err)

	msg, err := BuildMessage(ctx, "storefront.cart", event)
	require.NoError(t, err)

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier.Get("traceparent"))
}

// --- Carrier tests ---

func TestKafkaHeaderCarrier_SetOverwritesAndKeys(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("value1")}}
	carrier := NewHeaderCarrier(&headers)

	assert.Equal(t, "value1", carrier.Get("existing"))
	assert.Empty(t, carrier.Get("missing"))

	carrier.Set("existing", "updated")
	carrier.Set("new-key", "new-value")

	assert.Equal(t, "updated", carrier.Get("existing"))
	assert.Equal(t, "new-value", carrier.Get("new-key"))
	assert.ElementsMatch(t, []string{"existing", "new-key"}, carrier.Keys())
	assert.Len(t, headers, 2)
}

// --- Producer tests ---

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.False(t, cfg.Async)
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducer(DefaultProducerConfig(nil), slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	defer p.Close()

	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestProducer_PublishFailureIsCounted(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"127.0.0.1:1"})
	cfg.MaxAttempts = 1
	cfg.WriteTimeout = 200 * time.Millisecond
	p := NewProducer(cfg, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4})))
	defer p.Close()

	event, err := NewEvent("cart.updated", Subject{Kind: KindCart, UserID: "user-5", Version: 1}, "storefront", nil)
	require.NoError(t, err)

	failed := publishFailures.WithLabelValues("cart", "cart.updated")
	published := eventsPublished.WithLabelValues("cart", "cart.updated")
	before, publishedBefore := testutil.ToFloat64(failed), testutil.ToFloat64(published)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = p.Publish(ctx, "storefront.test", event)
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
	assert.Equal(t, publishedBefore, testutil.ToFloat64(published))
}
