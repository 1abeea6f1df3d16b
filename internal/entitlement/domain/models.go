package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Reading log kinds. The daily_free row doubles as the once-per-day marker.
const (
	KindDailyFree = "daily_free"
	KindCredit    = "credit"
	KindPremium   = "premium"
	KindFreeShort = "free_short"
)

const (
	PurchaseSingle     = "single"
	PurchaseTicket10   = "ticket10"
	PurchaseSubMonthly = "subMonthly"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Entitlement is the single mutable record of what a user can do right now.
type Entitlement struct {
	UserID           snowflake.ID `gorm:"primaryKey" json:"user_id"`
	Plan             string       `gorm:"not null;default:free" json:"plan"`
	Credits          int64        `gorm:"not null;default:0" json:"credits"`
	StripeCustomerID *string      `gorm:"index" json:"stripe_customer_id,omitempty"`
	StripeSubID      *string      `json:"stripe_sub_id,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (e Entitlement) IsPremium() bool {
	return e.Plan == PlanPremium
}

// ReadingLog rows are append-only history and are never updated.
type ReadingLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Ymd       string       `gorm:"not null" json:"ymd"`
	Kind      string       `gorm:"not null" json:"kind"`
	Spread    string       `gorm:"not null" json:"spread"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Purchase is the immutable audit record of a completed checkout. The unique
// session id is what makes webhook redelivery safe.
type Purchase struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID `gorm:"not null;index" json:"user_id"`
	Type            string       `gorm:"not null" json:"type"`
	StripeSessionID string       `gorm:"not null;uniqueIndex" json:"stripe_session_id"`
	Amount          int64        `json:"amount"`
	Currency        string       `json:"currency"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Owner pairs an entitlement with the email it belongs to, for lookups that
// start from a billing customer id instead of an email.
type Owner struct {
	Email string
	Entitlement
}
