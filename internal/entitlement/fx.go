package entitlement

import (
	"github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/repository"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
