package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	pkgdb "github.com/TAROSUKE-Cyber/tarot-app/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) domain.Repository {
	return &repo{genID: genID}
}

type ownerRow struct {
	Email            string       `gorm:"column:email"`
	UserID           snowflake.ID `gorm:"column:user_id"`
	Plan             string       `gorm:"column:plan"`
	Credits          int64        `gorm:"column:credits"`
	StripeCustomerID *string      `gorm:"column:stripe_customer_id"`
	StripeSubID      *string      `gorm:"column:stripe_sub_id"`
	CreatedAt        time.Time    `gorm:"column:created_at"`
	UpdatedAt        time.Time    `gorm:"column:updated_at"`
}

func (row ownerRow) owner() *domain.Owner {
	return &domain.Owner{
		Email: row.Email,
		Entitlement: domain.Entitlement{
			UserID:           row.UserID,
			Plan:             row.Plan,
			Credits:          row.Credits,
			StripeCustomerID: row.StripeCustomerID,
			StripeSubID:      row.StripeSubID,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		},
	}
}

func (r *repo) GetOrCreate(ctx context.Context, db *gorm.DB, email string) (*domain.Owner, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO users (id, email, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		r.genID.Generate(),
		email,
		now,
	).Error; err != nil {
		return nil, err
	}

	var userID snowflake.ID
	if err := db.WithContext(ctx).Raw(
		`SELECT id FROM users WHERE email = ?`,
		email,
	).Scan(&userID).Error; err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, errors.New("user_upsert_failed")
	}

	if err := db.WithContext(ctx).Exec(
		`INSERT INTO entitlements (user_id, plan, credits, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
		domain.PlanFree,
		now,
		now,
	).Error; err != nil {
		return nil, err
	}

	return r.FindByEmail(ctx, db, email)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Owner, error) {
	var row ownerRow
	err := db.WithContext(ctx).Raw(
		`SELECT u.email, e.user_id, e.plan, e.credits, e.stripe_customer_id, e.stripe_sub_id,
			e.created_at, e.updated_at
		 FROM entitlements e
		 JOIN users u ON u.id = e.user_id
		 WHERE u.email = ?`,
		strings.TrimSpace(email),
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.UserID == 0 {
		return nil, nil
	}
	return row.owner(), nil
}

func (r *repo) FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.Owner, error) {
	var row ownerRow
	err := db.WithContext(ctx).Raw(
		`SELECT u.email, e.user_id, e.plan, e.credits, e.stripe_customer_id, e.stripe_sub_id,
			e.created_at, e.updated_at
		 FROM entitlements e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.stripe_customer_id = ?`,
		strings.TrimSpace(customerID),
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.UserID == 0 {
		return nil, nil
	}
	return row.owner(), nil
}

func (r *repo) AddCredits(ctx context.Context, db *gorm.DB, userID snowflake.ID, n int64) error {
	if n <= 0 {
		return errors.New("invalid_credit_grant")
	}
	return db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET credits = credits + ?, updated_at = ?
		 WHERE user_id = ?`,
		n,
		time.Now().UTC(),
		userID,
	).Error
}

func (r *repo) ConsumeCredit(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error) {
	// Conditional decrement; the WHERE clause is the concurrency guard.
	res := db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET credits = credits - 1, updated_at = ?
		 WHERE user_id = ? AND credits > 0`,
		time.Now().UTC(),
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetPlan(ctx context.Context, db *gorm.DB, userID snowflake.ID, plan string, customerID, subID *string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET plan = ?,
			 stripe_customer_id = COALESCE(?, stripe_customer_id),
			 stripe_sub_id = COALESCE(?, stripe_sub_id),
			 updated_at = ?
		 WHERE user_id = ?`,
		plan,
		customerID,
		subID,
		time.Now().UTC(),
		userID,
	).Error
}

func (r *repo) SetCustomerID(ctx context.Context, db *gorm.DB, userID snowflake.ID, customerID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET stripe_customer_id = ?, updated_at = ?
		 WHERE user_id = ?`,
		customerID,
		time.Now().UTC(),
		userID,
	).Error
}

func (r *repo) ClearSubscription(ctx context.Context, db *gorm.DB, userID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET stripe_sub_id = NULL, updated_at = ?
		 WHERE user_id = ?`,
		time.Now().UTC(),
		userID,
	).Error
}

func (r *repo) HasUsedDailyFree(ctx context.Context, db *gorm.DB, userID snowflake.ID, ymd string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM reading_logs
		 WHERE user_id = ? AND ymd = ? AND kind = ?`,
		userID,
		ymd,
		domain.KindDailyFree,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertDailyFree(ctx context.Context, db *gorm.DB, log *domain.ReadingLog) (bool, error) {
	if log.ID == 0 {
		log.ID = r.genID.Generate()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	log.Kind = domain.KindDailyFree

	// The partial unique index on (user_id, ymd) WHERE kind = 'daily_free'
	// makes this insert the atomic claim on today's allowance.
	res := db.WithContext(ctx).Exec(
		`INSERT INTO reading_logs (id, user_id, ymd, kind, spread, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, ymd) WHERE kind = 'daily_free' DO NOTHING`,
		log.ID,
		log.UserID,
		log.Ymd,
		log.Kind,
		log.Spread,
		log.CreatedAt,
	)
	if res.Error != nil {
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) AppendLog(ctx context.Context, db *gorm.DB, log *domain.ReadingLog) error {
	if log.ID == 0 {
		log.ID = r.genID.Generate()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO reading_logs (id, user_id, ymd, kind, spread, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.UserID,
		log.Ymd,
		log.Kind,
		log.Spread,
		log.CreatedAt,
	).Error
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, purchase *domain.Purchase) (bool, error) {
	if purchase.ID == 0 {
		purchase.ID = r.genID.Generate()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	res := db.WithContext(ctx).Exec(
		`INSERT INTO purchases (id, user_id, type, stripe_session_id, amount, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_session_id) DO NOTHING`,
		purchase.ID,
		purchase.UserID,
		purchase.Type,
		purchase.StripeSessionID,
		purchase.Amount,
		purchase.Currency,
		purchase.CreatedAt,
	)
	if res.Error != nil {
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
