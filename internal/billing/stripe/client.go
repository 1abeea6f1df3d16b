package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	billingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
)

const defaultBaseURL = "https://api.stripe.com"

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// CheckoutParams describes a hosted checkout session. CustomerID takes
// precedence over CustomerEmail when both are set.
type CheckoutParams struct {
	Mode          string
	PriceID       string
	Quantity      int64
	SuccessURL    string
	CancelURL     string
	CustomerID    string
	CustomerEmail string
	Metadata      map[string]string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (Session, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (Session, error)
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type restClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New builds a client against the public Stripe API. baseURL overrides the
// endpoint when non-empty (tests point it at a local server).
func New(apiKey, baseURL string) Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &restClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *restClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (Session, error) {
	if params.Mode == "" || params.PriceID == "" {
		return Session{}, billingdomain.ErrInvalidConfig
	}
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	values := url.Values{}
	values.Set("mode", params.Mode)
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", strconv.FormatInt(quantity, 10))
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		values.Set("customer", params.CustomerID)
	} else if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}

	return c.doRequest(ctx, "/v1/checkout/sessions", values)
}

func (c *restClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (Session, error) {
	if strings.TrimSpace(customerID) == "" {
		return Session{}, billingdomain.ErrNoBillingAccount
	}
	values := url.Values{}
	values.Set("customer", customerID)
	if returnURL != "" {
		values.Set("return_url", returnURL)
	}
	return c.doRequest(ctx, "/v1/billing_portal/sessions", values)
}

func (c *restClient) doRequest(ctx context.Context, path string, values url.Values) (Session, error) {
	if c.apiKey == "" {
		return Session{}, billingdomain.ErrInvalidConfig
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return Session{}, errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return Session{}, errors.New(message)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, err
	}
	if session.ID == "" {
		return Session{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}
