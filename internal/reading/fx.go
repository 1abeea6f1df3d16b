package reading

import (
	"math/rand/v2"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/reading/service"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
	"go.uber.org/fx"
)

func provideDealer() *tarot.Dealer {
	return tarot.NewDealer(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

var Module = fx.Module("reading.service",
	fx.Provide(provideDealer),
	fx.Provide(service.New),
)
