package migration

import (
	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	"gorm.io/gorm"
)

// RunSqliteMigrations builds the schema through AutoMigrate for the sqlite
// dialect used in local runs and tests. The partial unique index is raw SQL
// because gorm tags cannot express the predicate.
func RunSqliteMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entitlementdomain.User{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.ReadingLog{},
		&entitlementdomain.Purchase{},
	); err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_reading_logs_daily_free
		 ON reading_logs (user_id, ymd) WHERE kind = 'daily_free'`,
	).Error
}
