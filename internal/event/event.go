// internal/event/event.go
// Package event publishes domain events for downstream consumers
// (notifications, analytics). Publishing is fire-and-forget from the
// service's perspective: a failed publish is logged, never surfaced to the
// caller, because the durable write has already happened.
package event

import (
	"context"
	"time"
)

// Event types carried on the bus.
const (
	TypeContributorDecided = "marketplace.contributor.decided"
	TypeDocumentPublished  = "marketplace.document.published"
	TypePurchaseConfirmed  = "marketplace.purchase.confirmed"
)

// Envelope wraps every published event.
type Envelope struct {
	Type          string    `json:"type"`
	Version       int       `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Payload       any       `json:"payload"`
}

// ContributorDecided is emitted when a contributor profile receives a
// decision.
type ContributorDecided struct {
	ProfileID     string `json:"profileId"`
	ContributorID string `json:"contributorId"`
	Status        string `json:"status"`
	Remark        string `json:"remark,omitempty"`
}

// DocumentPublished is emitted when a document passes review.
type DocumentPublished struct {
	DocumentID    string `json:"documentId"`
	ContributorID string `json:"contributorId"`
	Subject       string `json:"subject"`
	Status        string `json:"status"`
}

// PurchaseConfirmed is emitted when a payment is verified and recorded.
type PurchaseConfirmed struct {
	OrderID       string `json:"orderId"`
	DocumentID    string `json:"documentId"`
	ContributorID string `json:"contributorId"`
	StudentID     string `json:"studentId"`
	AmountPaid    int    `json:"amountPaid"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close()
}

// noopPublisher drops all events. Used when no broker is configured.
type noopPublisher struct{}

// NewNoop creates a publisher that discards events.
func NewNoop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(ctx context.Context, eventType string, payload any) error { return nil }
func (noopPublisher) Close()                                                           {}
