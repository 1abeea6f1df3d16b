package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	billingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSignatureHeader(secret string, payload []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp + "." + string(payload)))
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	webhook := NewWebhook(secret)

	header := buildSignatureHeader(secret, payload, "1700000000")
	assert.NoError(t, webhook.Verify(payload, header))

	wrong := buildSignatureHeader("whsec_other", payload, "1700000000")
	assert.ErrorIs(t, webhook.Verify(payload, wrong), billingdomain.ErrInvalidSignature)

	assert.ErrorIs(t, webhook.Verify(payload, ""), billingdomain.ErrInvalidSignature)
	assert.ErrorIs(t, webhook.Verify(payload, "t=1700000000"), billingdomain.ErrInvalidSignature)

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'x'
	assert.ErrorIs(t, webhook.Verify(tampered, header), billingdomain.ErrInvalidSignature)
}

func TestVerify_MultipleSignatures(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	webhook := NewWebhook(secret)

	good := buildSignatureHeader(secret, payload, "1700000000")
	header := "t=1700000000,v1=deadbeef," + good[len("t=1700000000,"):]
	assert.NoError(t, webhook.Verify(payload, header))
}

func TestParse_CheckoutCompleted(t *testing.T) {
	webhook := NewWebhook("whsec_test")
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_123",
			"customer": "cus_9",
			"subscription": "sub_5",
			"customer_details": {"email": "Fallback@Example.com"},
			"metadata": {"email": "buyer@example.com", "type": "ticket10"},
			"amount_total": 1500,
			"currency": "jpy"
		}}
	}`)

	event, err := webhook.Parse(payload)
	require.NoError(t, err)
	require.Equal(t, billingdomain.EventCheckoutCompleted, event.Type)
	require.NotNil(t, event.Checkout)
	assert.Equal(t, "cs_123", event.Checkout.SessionID)
	assert.Equal(t, "cus_9", event.Checkout.CustomerID)
	assert.Equal(t, "sub_5", event.Checkout.SubscriptionID)
	assert.Equal(t, "buyer@example.com", event.Checkout.Email)
	assert.Equal(t, "ticket10", event.Checkout.PurchaseType)
	assert.Equal(t, int64(1500), event.Checkout.Amount)
	assert.Equal(t, "JPY", event.Checkout.Currency)
}

func TestParse_CheckoutEmailFallback(t *testing.T) {
	webhook := NewWebhook("whsec_test")
	payload := []byte(`{
		"id": "evt_2",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_456",
			"customer_details": {"email": "Session@Example.com"},
			"metadata": {"type": "single"}
		}}
	}`)

	event, err := webhook.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, "session@example.com", event.Checkout.Email)
}

func TestParse_Subscription(t *testing.T) {
	webhook := NewWebhook("whsec_test")

	updated := []byte(`{
		"id": "evt_3",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "active"}}
	}`)
	event, err := webhook.Parse(updated)
	require.NoError(t, err)
	require.Equal(t, billingdomain.EventSubscriptionChange, event.Type)
	assert.True(t, event.Subscription.Active())

	pastDue := []byte(`{
		"id": "evt_4",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "past_due"}}
	}`)
	event, err = webhook.Parse(pastDue)
	require.NoError(t, err)
	assert.False(t, event.Subscription.Active())

	deleted := []byte(`{
		"id": "evt_5",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "canceled"}}
	}`)
	event, err = webhook.Parse(deleted)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.EventSubscriptionEnded, event.Type)
}

func TestParse_IgnoredAndInvalid(t *testing.T) {
	webhook := NewWebhook("whsec_test")

	_, err := webhook.Parse([]byte(`{"id": "evt_6", "type": "invoice.paid", "data": {"object": {}}}`))
	assert.ErrorIs(t, err, billingdomain.ErrEventIgnored)

	_, err = webhook.Parse([]byte(`not json`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPayload)

	_, err = webhook.Parse([]byte(`{"type": "checkout.session.completed"}`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidEvent)
}
