package domain

import (
	"context"
	"errors"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
)

// Tier is the level of reading service granted for one attempt.
type Tier string

const (
	TierPremium   Tier = "premium"
	TierCredit    Tier = "credit"
	TierDailyFree Tier = "daily_free"
	TierFreeShort Tier = "free_short"
)

type DrawRequest struct {
	Email  string
	Spread tarot.SpreadType
}

type DrawResponse struct {
	Spread      tarot.SpreadType `json:"spread"`
	Cards       []tarot.Card     `json:"cards"`
	Positions   []string         `json:"positions"`
	Tier        Tier             `json:"tier"`
	Plan        string           `json:"plan"`
	CreditsLeft int64            `json:"creditsLeft"`
	Text        string           `json:"text"`
	Message     string           `json:"message,omitempty"`
}

type Service interface {
	Draw(context.Context, DrawRequest) (DrawResponse, error)
}

var (
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidSpread = errors.New("invalid_spread")
)

const (
	// Shown when the once-per-day free deep reading is spent by this attempt.
	MessageDailyFreeUsed = "本日の無料深掘りを使用しました。"
	// Shown when only the short teaser is available.
	MessageUpsell = "深掘りはチケット購入または月額で解放されます。"
)
