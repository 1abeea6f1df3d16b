package billing

import (
	"github.com/TAROSUKE-Cyber/tarot-app/internal/billing/service"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/billing/stripe"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	"go.uber.org/fx"
)

func provideClient(cfg config.Config) stripe.Client {
	return stripe.New(cfg.Stripe.SecretKey, "")
}

func provideWebhook(cfg config.Config) *stripe.Webhook {
	return stripe.NewWebhook(cfg.Stripe.WebhookSecret)
}

var Module = fx.Module("billing.service",
	fx.Provide(provideClient),
	fx.Provide(provideWebhook),
	fx.Provide(service.New),
)
