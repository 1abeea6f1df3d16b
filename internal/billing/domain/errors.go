package domain

import "errors"

var (
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPurchaseType = errors.New("invalid_purchase_type")
	ErrInvalidConfig       = errors.New("invalid_config")
	ErrInvalidSignature    = errors.New("invalid_signature")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrInvalidEvent        = errors.New("invalid_event")
	ErrEventIgnored        = errors.New("event_ignored")
	ErrNoBillingAccount    = errors.New("no_billing_account")
)
