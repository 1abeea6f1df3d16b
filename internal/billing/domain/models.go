package domain

import "context"

type EventType string

const (
	EventCheckoutCompleted  EventType = "checkout_completed"
	EventSubscriptionChange EventType = "subscription_change"
	EventSubscriptionEnded  EventType = "subscription_ended"
)

// Event is the normalized form of a provider webhook. Exactly one of the
// payload fields is set, matching Type.
type Event struct {
	Type         EventType
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
}

// CheckoutCompleted carries the fields needed to reconcile a finished
// checkout session against the entitlement ledger.
type CheckoutCompleted struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	Email          string
	PurchaseType   string
	Amount         int64
	Currency       string
}

// SubscriptionChange covers both created/updated and deleted notifications.
type SubscriptionChange struct {
	SubscriptionID string
	CustomerID     string
	Status         string
}

// Active reports whether the subscription status grants premium access.
func (s *SubscriptionChange) Active() bool {
	return s.Status == "active" || s.Status == "trialing"
}

type CheckoutRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PortalRequest struct {
	Email string `json:"email"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type Service interface {
	// Checkout creates a hosted checkout session for one of the purchase
	// types and returns its redirect URL.
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)

	// Portal creates a billing portal session for a user with a stored
	// provider customer id.
	Portal(ctx context.Context, req PortalRequest) (PortalResponse, error)

	// HandleWebhook verifies the signature, parses the payload and applies
	// the event to the entitlement ledger. Ignored event types and events
	// that reference no known account return nil.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}
