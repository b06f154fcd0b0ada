package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names the storefront aggregate an event describes.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// Subject identifies whose cart or wishlist changed and at which revision.
// Wishlists are unversioned and leave Version zero.
type Subject struct {
	Kind    Kind   `json:"kind"`
	UserID  string `json:"user_id"`
	Version int64  `json:"version,omitempty"`
}

// Event is the envelope every storefront message is published in.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Subject       Subject         `json:"subject"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

var (
	ErrMissingType    = errors.New("event type is required")
	ErrMissingSubject = errors.New("event subject needs a kind and a user id")
)

// NewEvent wraps payload in an envelope for subject.
func NewEvent(eventType string, subject Subject, producer string, payload any) (*Event, error) {
	if eventType == "" {
		return nil, ErrMissingType
	}
	if subject.Kind == "" || subject.UserID == "" {
		return nil, ErrMissingSubject
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Producer:   producer,
		Payload:    raw,
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Key partitions by shopper so a user's cart and wishlist events stay ordered.
func (e *Event) Key() []byte {
	return []byte(e.Subject.UserID)
}

// Supersedes reports whether e describes a newer revision of the same
// subject than other. Consumers use it to drop out-of-order cart events.
func (e *Event) Supersedes(other *Event) bool {
	if other == nil || e.Subject.Kind != other.Subject.Kind || e.Subject.UserID != other.Subject.UserID {
		return true
	}
	if e.Subject.Version != other.Subject.Version {
		return e.Subject.Version > other.Subject.Version
	}
	return e.OccurredAt.After(other.OccurredAt)
}

// Marshal serializes the event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an envelope and rejects ones without a type or subject.
func DecodeEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" {
		return nil, ErrMissingType
	}
	if event.Subject.Kind == "" || event.Subject.UserID == "" {
		return nil, ErrMissingSubject
	}
	return &event, nil
}

// DecodePayload unmarshals the payload into target.
func (e *Event) DecodePayload(target any) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
