package service

import (
	"context"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/clock"
	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	obsmetrics "github.com/TAROSUKE-Cyber/tarot-app/internal/observability/metrics"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/oracle"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/reading/domain"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        entitlementdomain.Repository
	Dealer      *tarot.Dealer
	Interpreter oracle.Interpreter
	Clock       clock.Clock
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        entitlementdomain.Repository
	dealer      *tarot.Dealer
	interpreter oracle.Interpreter
	clock       clock.Clock
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reading.service"),
		repo:        p.Repo,
		dealer:      p.Dealer,
		interpreter: p.Interpreter,
		clock:       p.Clock,
		metrics:     p.Metrics,
	}
}

// Draw resolves exactly one tier for the attempt, in strict order:
// premium, credit, daily free, short teaser. Each arm performs its single
// entitlement mutation before the deep interpretation call; an interpretation
// failure after a credit decrement is not rolled back.
func (s *Service) Draw(ctx context.Context, req domain.DrawRequest) (domain.DrawResponse, error) {
	email := entitlementdomain.NormalizeEmail(req.Email)
	if !entitlementdomain.ValidEmail(email) {
		return domain.DrawResponse{}, domain.ErrInvalidEmail
	}
	spread := req.Spread
	if spread != tarot.SpreadOne && spread != tarot.SpreadThree {
		return domain.DrawResponse{}, domain.ErrInvalidSpread
	}

	owner, err := s.repo.GetOrCreate(ctx, s.db, email)
	if err != nil {
		return domain.DrawResponse{}, err
	}

	drawn := s.dealer.Draw(spread)
	ymd := clock.DayKey(s.clock.Now())

	// The teaser doubles as the free_short body and is generated for every
	// attempt regardless of the tier granted below.
	teaser, err := s.interpret(ctx, drawn, oracle.DepthShort)
	if err != nil {
		return domain.DrawResponse{}, err
	}

	resp := domain.DrawResponse{
		Spread:    drawn.Type,
		Cards:     drawn.Cards,
		Positions: drawn.Positions,
		Plan:      owner.Plan,
	}

	if owner.IsPremium() {
		text, err := s.interpret(ctx, drawn, oracle.DepthDeep)
		if err != nil {
			return domain.DrawResponse{}, err
		}
		if err := s.appendLog(ctx, owner.UserID, ymd, entitlementdomain.KindPremium, spread); err != nil {
			return domain.DrawResponse{}, err
		}

		resp.Tier = domain.TierPremium
		resp.CreditsLeft = owner.Credits
		resp.Text = text
		return s.done(resp), nil
	}

	consumed, err := s.repo.ConsumeCredit(ctx, s.db, owner.UserID)
	if err != nil {
		return domain.DrawResponse{}, err
	}
	if consumed {
		text, err := s.interpret(ctx, drawn, oracle.DepthDeep)
		if err != nil {
			return domain.DrawResponse{}, err
		}
		if err := s.appendLog(ctx, owner.UserID, ymd, entitlementdomain.KindCredit, spread); err != nil {
			return domain.DrawResponse{}, err
		}

		after, err := s.repo.FindByEmail(ctx, s.db, email)
		if err != nil {
			return domain.DrawResponse{}, err
		}

		resp.Tier = domain.TierCredit
		if after != nil {
			resp.Plan = after.Plan
			resp.CreditsLeft = after.Credits
		}
		resp.Text = text
		return s.done(resp), nil
	}

	granted, err := s.repo.InsertDailyFree(ctx, s.db, &entitlementdomain.ReadingLog{
		UserID: owner.UserID,
		Ymd:    ymd,
		Spread: string(spread),
	})
	if err != nil {
		return domain.DrawResponse{}, err
	}
	if granted {
		text, err := s.interpret(ctx, drawn, oracle.DepthStandard)
		if err != nil {
			return domain.DrawResponse{}, err
		}

		resp.Tier = domain.TierDailyFree
		resp.CreditsLeft = owner.Credits
		resp.Text = text
		resp.Message = domain.MessageDailyFreeUsed
		return s.done(resp), nil
	}

	if err := s.appendLog(ctx, owner.UserID, ymd, entitlementdomain.KindFreeShort, spread); err != nil {
		return domain.DrawResponse{}, err
	}

	resp.Tier = domain.TierFreeShort
	resp.CreditsLeft = owner.Credits
	resp.Text = teaser
	resp.Message = domain.MessageUpsell
	return s.done(resp), nil
}

func (s *Service) interpret(ctx context.Context, drawn tarot.Spread, depth oracle.Depth) (string, error) {
	text, err := s.interpreter.Interpret(ctx, oracle.Request{
		Spread:    drawn.Type,
		Cards:     drawn.Cards,
		Positions: drawn.Positions,
		Depth:     depth,
	})
	if err != nil {
		s.log.Warn("interpretation failed", zap.String("depth", string(depth)), zap.Error(err))
		return "", err
	}
	return text, nil
}

func (s *Service) appendLog(ctx context.Context, userID snowflake.ID, ymd, kind string, spread tarot.SpreadType) error {
	return s.repo.AppendLog(ctx, s.db, &entitlementdomain.ReadingLog{
		UserID: userID,
		Ymd:    ymd,
		Kind:   kind,
		Spread: string(spread),
	})
}

func (s *Service) done(resp domain.DrawResponse) domain.DrawResponse {
	s.metrics.RecordReading(string(resp.Tier))
	return resp
}
