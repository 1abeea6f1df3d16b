package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	billingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
)

// Webhook verifies Stripe-Signature headers and normalizes event payloads.
type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: strings.TrimSpace(secret)}
}

func (w *Webhook) Verify(payload []byte, sigHeader string) error {
	if w.secret == "" {
		return billingdomain.ErrInvalidConfig
	}
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" {
		return billingdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return billingdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return billingdomain.ErrInvalidSignature
}

func (w *Webhook) Parse(payload []byte) (*billingdomain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, billingdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, billingdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return parseCheckoutSession(event)
	case "customer.subscription.created", "customer.subscription.updated":
		return parseSubscription(event, billingdomain.EventSubscriptionChange)
	case "customer.subscription.deleted":
		return parseSubscription(event, billingdomain.EventSubscriptionEnded)
	default:
		return nil, billingdomain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata    map[string]string `json:"metadata"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
}

type subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

func parseCheckoutSession(event stripeEvent) (*billingdomain.Event, error) {
	var session checkoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, billingdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, billingdomain.ErrInvalidEvent
	}

	email := strings.TrimSpace(session.Metadata["email"])
	if email == "" {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}
	if email == "" {
		email = strings.TrimSpace(session.CustomerEmail)
	}

	return &billingdomain.Event{
		Type: billingdomain.EventCheckoutCompleted,
		Checkout: &billingdomain.CheckoutCompleted{
			SessionID:      session.ID,
			CustomerID:     strings.TrimSpace(session.Customer),
			SubscriptionID: strings.TrimSpace(session.Subscription),
			Email:          strings.ToLower(email),
			PurchaseType:   strings.TrimSpace(session.Metadata["type"]),
			Amount:         session.AmountTotal,
			Currency:       strings.ToUpper(strings.TrimSpace(session.Currency)),
		},
	}, nil
}

func parseSubscription(event stripeEvent, eventType billingdomain.EventType) (*billingdomain.Event, error) {
	var sub subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, billingdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(sub.ID) == "" || strings.TrimSpace(sub.Customer) == "" {
		return nil, billingdomain.ErrInvalidEvent
	}

	return &billingdomain.Event{
		Type: eventType,
		Subscription: &billingdomain.SubscriptionChange{
			SubscriptionID: strings.TrimSpace(sub.ID),
			CustomerID:     strings.TrimSpace(sub.Customer),
			Status:         strings.TrimSpace(sub.Status),
		},
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}
