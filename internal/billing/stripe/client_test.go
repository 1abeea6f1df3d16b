package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cs_123", "url": "https://checkout.stripe.com/c/pay/cs_123"}`))
	}))
	defer server.Close()

	client := New("sk_test", server.URL)
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		Mode:          ModeSubscription,
		PriceID:       "price_sub",
		SuccessURL:    "https://app.example.com/pricing?success=1",
		CancelURL:     "https://app.example.com/pricing?canceled=1",
		CustomerEmail: "buyer@example.com",
		Metadata:      map[string]string{"type": "subMonthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_123", session.URL)

	assert.Equal(t, "/v1/checkout/sessions", gotPath)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, []string{"subscription"}, gotForm["mode"])
	assert.Equal(t, []string{"price_sub"}, gotForm["line_items[0][price]"])
	assert.Equal(t, []string{"buyer@example.com"}, gotForm["customer_email"])
	assert.Equal(t, []string{"subMonthly"}, gotForm["metadata[type]"])
}

func TestCreateCheckoutSession_CustomerPrecedence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
		assert.Empty(t, r.PostForm.Get("customer_email"))
		_, _ = w.Write([]byte(`{"id": "cs_1", "url": "https://checkout.stripe.com/c/pay/cs_1"}`))
	}))
	defer server.Close()

	client := New("sk_test", server.URL)
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		Mode:          ModePayment,
		PriceID:       "price_single",
		CustomerID:    "cus_1",
		CustomerEmail: "ignored@example.com",
	})
	require.NoError(t, err)
}

func TestCreatePortalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_9", r.PostForm.Get("customer"))
		assert.Equal(t, "https://app.example.com/mypage", r.PostForm.Get("return_url"))
		_, _ = w.Write([]byte(`{"id": "bps_1", "url": "https://billing.stripe.com/session/bps_1"}`))
	}))
	defer server.Close()

	client := New("sk_test", server.URL)
	session, err := client.CreatePortalSession(context.Background(), "cus_9", "https://app.example.com/mypage")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/session/bps_1", session.URL)
}

func TestCreateCheckoutSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "No such price: 'price_missing'"}}`))
	}))
	defer server.Close()

	client := New("sk_test", server.URL)
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		Mode:    ModePayment,
		PriceID: "price_missing",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such price")
}
