package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// GetOrCreate upserts the user and a zero-credit free entitlement keyed by
	// email. Idempotent; safe to call on first contact of any kind.
	GetOrCreate(ctx context.Context, db *gorm.DB, email string) (*Owner, error)

	// FindByEmail returns nil when the user has never been seen.
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Owner, error)

	// FindByCustomerID resolves an entitlement from the billing provider's
	// customer reference. Returns nil when no entitlement carries the id.
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Owner, error)

	// AddCredits atomically increments the balance by n (n > 0).
	AddCredits(ctx context.Context, db *gorm.DB, userID snowflake.ID, n int64) error

	// ConsumeCredit is an atomic decrement-if-positive. Returns false when the
	// balance was already zero; two concurrent callers can never both succeed
	// on a balance of one.
	ConsumeCredit(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error)

	// SetPlan sets the plan and, when non-nil, the provider references.
	// Nil pointers preserve whatever is stored.
	SetPlan(ctx context.Context, db *gorm.DB, userID snowflake.ID, plan string, customerID, subID *string) error

	SetCustomerID(ctx context.Context, db *gorm.DB, userID snowflake.ID, customerID string) error

	// ClearSubscription nulls the subscription id, keeping the customer id.
	ClearSubscription(ctx context.Context, db *gorm.DB, userID snowflake.ID) error

	HasUsedDailyFree(ctx context.Context, db *gorm.DB, userID snowflake.ID, ymd string) (bool, error)

	// InsertDailyFree writes the daily_free log row for (user, ymd). The insert
	// is the uniqueness check: it returns false when another request already
	// claimed today's allowance.
	InsertDailyFree(ctx context.Context, db *gorm.DB, log *ReadingLog) (bool, error)

	AppendLog(ctx context.Context, db *gorm.DB, log *ReadingLog) error

	// InsertPurchase writes the audit record. Returns false when the checkout
	// session id was already recorded (webhook redelivery).
	InsertPurchase(ctx context.Context, db *gorm.DB, purchase *Purchase) (bool, error)
}
