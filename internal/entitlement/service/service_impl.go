package service

import (
	"context"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("entitlement.service"),
		repo: p.Repo,
	}
}

func (s *Service) Status(ctx context.Context, req domain.StatusRequest) (domain.StatusResponse, error) {
	email := domain.NormalizeEmail(req.Email)
	if !domain.ValidEmail(email) {
		return domain.StatusResponse{}, domain.ErrInvalidEmail
	}

	owner, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.StatusResponse{}, err
	}

	// Users we have never seen get free-plan defaults, not an error.
	if owner == nil {
		return domain.StatusResponse{
			Plan:      domain.PlanFree,
			PlanLabel: planLabel(domain.PlanFree),
		}, nil
	}

	return domain.StatusResponse{
		Plan:       owner.Plan,
		PlanLabel:  planLabel(owner.Plan),
		Credits:    owner.Credits,
		IsPremium:  owner.IsPremium(),
		HasCredits: owner.Credits > 0,
	}, nil
}

func planLabel(plan string) string {
	switch plan {
	case domain.PlanPremium:
		return "プレミアムプラン"
	case domain.PlanFree:
		return "無料プラン"
	default:
		return "プラン：" + plan
	}
}
