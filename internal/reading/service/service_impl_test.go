package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/clock"
	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	entitlementrepo "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/repository"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/oracle"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/reading/domain"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeInterpreter struct {
	err error
}

func (f *fakeInterpreter) Interpret(_ context.Context, req oracle.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch req.Depth {
	case oracle.DepthShort:
		return "teaser text", nil
	case oracle.DepthStandard:
		return "standard text", nil
	default:
		return "deep text", nil
	}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entitlementdomain.User{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.ReadingLog{},
		&entitlementdomain.Purchase{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_reading_logs_daily_free
		 ON reading_logs (user_id, ymd) WHERE kind = 'daily_free'`,
	).Error)
	return db
}

func newService(t *testing.T, db *gorm.DB, interp oracle.Interpreter, clk clock.Clock) (domain.Service, entitlementdomain.Repository) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	repo := entitlementrepo.Provide(node)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Repo:        repo,
		Dealer:      tarot.NewDealer(rand.NewPCG(7, 11)),
		Interpreter: interp,
		Clock:       clk,
	})
	return svc, repo
}

func TestDraw_NewUserGetsDailyFreeThenFreeShort(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, _ := newService(t, db, &fakeInterpreter{}, clk)

	first, err := svc.Draw(context.Background(), domain.DrawRequest{
		Email:  "new@example.com",
		Spread: tarot.SpreadOne,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierDailyFree, first.Tier)
	assert.Equal(t, entitlementdomain.PlanFree, first.Plan)
	assert.Len(t, first.Cards, 1)
	assert.Equal(t, []string{"今日のメッセージ"}, first.Positions)
	assert.Equal(t, int64(0), first.CreditsLeft)
	assert.Equal(t, "standard text", first.Text)
	assert.Equal(t, domain.MessageDailyFreeUsed, first.Message)

	second, err := svc.Draw(context.Background(), domain.DrawRequest{
		Email:  "new@example.com",
		Spread: tarot.SpreadOne,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierFreeShort, second.Tier)
	assert.Equal(t, "teaser text", second.Text)
	assert.Equal(t, domain.MessageUpsell, second.Message)
}

func TestDraw_DailyFreeResetsNextDay(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, _ := newService(t, db, &fakeInterpreter{}, clk)

	first, err := svc.Draw(context.Background(), domain.DrawRequest{Email: "reset@example.com", Spread: tarot.SpreadOne})
	require.NoError(t, err)
	assert.Equal(t, domain.TierDailyFree, first.Tier)

	clk.Advance(24 * time.Hour)

	next, err := svc.Draw(context.Background(), domain.DrawRequest{Email: "reset@example.com", Spread: tarot.SpreadOne})
	require.NoError(t, err)
	assert.Equal(t, domain.TierDailyFree, next.Tier)
}

func TestDraw_CreditCountdown(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, repo := newService(t, db, &fakeInterpreter{}, clk)

	owner, err := repo.GetOrCreate(context.Background(), db, "tickets@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.AddCredits(context.Background(), db, owner.UserID, 10))

	got, err := svc.Draw(context.Background(), domain.DrawRequest{
		Email:  "tickets@example.com",
		Spread: tarot.SpreadThree,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierCredit, got.Tier)
	assert.Equal(t, int64(9), got.CreditsLeft)
	assert.Len(t, got.Cards, 3)
	assert.Equal(t, []string{"過去", "現在", "未来"}, got.Positions)
	assert.Equal(t, "deep text", got.Text)
	assert.Empty(t, got.Message)

	// Burn the rest; every attempt is a credit tier until the balance hits zero.
	for i := int64(8); i >= 0; i-- {
		got, err = svc.Draw(context.Background(), domain.DrawRequest{Email: "tickets@example.com", Spread: tarot.SpreadThree})
		require.NoError(t, err)
		assert.Equal(t, domain.TierCredit, got.Tier)
		assert.Equal(t, i, got.CreditsLeft)
	}

	// Balance exhausted: the daily free allowance kicks in, then the teaser.
	got, err = svc.Draw(context.Background(), domain.DrawRequest{Email: "tickets@example.com", Spread: tarot.SpreadThree})
	require.NoError(t, err)
	assert.Equal(t, domain.TierDailyFree, got.Tier)
	assert.Equal(t, int64(0), got.CreditsLeft)

	got, err = svc.Draw(context.Background(), domain.DrawRequest{Email: "tickets@example.com", Spread: tarot.SpreadThree})
	require.NoError(t, err)
	assert.Equal(t, domain.TierFreeShort, got.Tier)
}

func TestDraw_PremiumIsUnlimited(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, repo := newService(t, db, &fakeInterpreter{}, clk)

	owner, err := repo.GetOrCreate(context.Background(), db, "premium@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.AddCredits(context.Background(), db, owner.UserID, 3))
	require.NoError(t, repo.SetPlan(context.Background(), db, owner.UserID, entitlementdomain.PlanPremium, nil, nil))

	for i := 0; i < 4; i++ {
		got, err := svc.Draw(context.Background(), domain.DrawRequest{
			Email:  "premium@example.com",
			Spread: tarot.SpreadThree,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TierPremium, got.Tier)
		assert.Equal(t, entitlementdomain.PlanPremium, got.Plan)
		assert.Equal(t, int64(3), got.CreditsLeft, "premium must not touch credits")
		assert.Equal(t, "deep text", got.Text)
	}
}

func TestDraw_ValidatesInput(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, _ := newService(t, db, &fakeInterpreter{}, clk)

	_, err := svc.Draw(context.Background(), domain.DrawRequest{Email: "", Spread: tarot.SpreadOne})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Draw(context.Background(), domain.DrawRequest{Email: "not-an-email", Spread: tarot.SpreadOne})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Draw(context.Background(), domain.DrawRequest{Email: "a@b.jp", Spread: tarot.SpreadType("celtic")})
	assert.ErrorIs(t, err, domain.ErrInvalidSpread)
}

func TestDraw_InterpreterFailureSurfaces(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	boom := errors.New("completion down")
	svc, _ := newService(t, db, &fakeInterpreter{err: boom}, clk)

	_, err := svc.Draw(context.Background(), domain.DrawRequest{Email: "x@example.com", Spread: tarot.SpreadOne})
	assert.ErrorIs(t, err, boom)
}

func TestDraw_ExactlyOneLogPerAttempt(t *testing.T) {
	db := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 12, 11, 3, 0, 0, 0, time.UTC))
	svc, _ := newService(t, db, &fakeInterpreter{}, clk)

	for i := 0; i < 3; i++ {
		_, err := svc.Draw(context.Background(), domain.DrawRequest{Email: "logs@example.com", Spread: tarot.SpreadOne})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM reading_logs`).Scan(&count).Error)
	assert.Equal(t, int64(3), count)
}
