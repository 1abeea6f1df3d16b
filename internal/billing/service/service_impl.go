package service

import (
	"context"
	"errors"
	"strings"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/billing/stripe"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	obsmetrics "github.com/TAROSUKE-Cyber/tarot-app/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Repo    entitlementdomain.Repository
	Client  stripe.Client
	Webhook *stripe.Webhook
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	repo    entitlementdomain.Repository
	client  stripe.Client
	webhook *stripe.Webhook
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		cfg:     p.Cfg,
		repo:    p.Repo,
		client:  p.Client,
		webhook: p.Webhook,
		metrics: p.Metrics,
	}
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	email := entitlementdomain.NormalizeEmail(req.Email)
	if !entitlementdomain.ValidEmail(email) {
		return domain.CheckoutResponse{}, domain.ErrInvalidEmail
	}

	purchaseType := strings.TrimSpace(req.Type)
	var priceID, mode string
	switch purchaseType {
	case entitlementdomain.PurchaseSingle:
		priceID, mode = s.cfg.Stripe.PriceSingle, stripe.ModePayment
	case entitlementdomain.PurchaseTicket10:
		priceID, mode = s.cfg.Stripe.PriceTicket10, stripe.ModePayment
	case entitlementdomain.PurchaseSubMonthly:
		priceID, mode = s.cfg.Stripe.PriceSubMonthly, stripe.ModeSubscription
	default:
		return domain.CheckoutResponse{}, domain.ErrInvalidPurchaseType
	}
	if priceID == "" || s.cfg.AppURL == "" {
		return domain.CheckoutResponse{}, domain.ErrInvalidConfig
	}

	owner, err := s.repo.GetOrCreate(ctx, s.db, email)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	params := stripe.CheckoutParams{
		Mode:       mode,
		PriceID:    priceID,
		SuccessURL: s.cfg.AppURL + "/pricing?success=1",
		CancelURL:  s.cfg.AppURL + "/pricing?canceled=1",
		Metadata: map[string]string{
			"email":   email,
			"type":    purchaseType,
			"user_id": owner.UserID.String(),
		},
	}
	if owner.StripeCustomerID != nil && *owner.StripeCustomerID != "" {
		params.CustomerID = *owner.StripeCustomerID
	} else {
		params.CustomerEmail = email
	}

	session, err := s.client.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.log.Error("checkout session failed",
			zap.String("type", purchaseType),
			zap.Error(err),
		)
		return domain.CheckoutResponse{}, err
	}

	return domain.CheckoutResponse{URL: session.URL}, nil
}

func (s *Service) Portal(ctx context.Context, req domain.PortalRequest) (domain.PortalResponse, error) {
	email := entitlementdomain.NormalizeEmail(req.Email)
	if !entitlementdomain.ValidEmail(email) {
		return domain.PortalResponse{}, domain.ErrInvalidEmail
	}

	owner, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.PortalResponse{}, err
	}
	if owner == nil || owner.StripeCustomerID == nil || *owner.StripeCustomerID == "" {
		return domain.PortalResponse{}, domain.ErrNoBillingAccount
	}

	session, err := s.client.CreatePortalSession(ctx, *owner.StripeCustomerID, s.cfg.AppURL+"/mypage")
	if err != nil {
		s.log.Error("portal session failed", zap.Error(err))
		return domain.PortalResponse{}, err
	}

	return domain.PortalResponse{URL: session.URL}, nil
}

// HandleWebhook applies one provider event to the ledger. Redelivered
// checkout events are dropped by the purchase insert; events referencing
// accounts we have never seen are logged and dropped without error so the
// provider stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := s.webhook.Verify(payload, sigHeader); err != nil {
		return err
	}

	event, err := s.webhook.Parse(payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return nil
		}
		return err
	}

	switch event.Type {
	case domain.EventCheckoutCompleted:
		return s.applyCheckout(ctx, event.Checkout)
	case domain.EventSubscriptionChange:
		return s.applySubscription(ctx, event.Subscription)
	case domain.EventSubscriptionEnded:
		return s.applySubscriptionEnded(ctx, event.Subscription)
	}
	return nil
}

func (s *Service) applyCheckout(ctx context.Context, checkout *domain.CheckoutCompleted) error {
	email := entitlementdomain.NormalizeEmail(checkout.Email)
	if email == "" {
		s.log.Warn("checkout event without email", zap.String("session_id", checkout.SessionID))
		return nil
	}

	owner, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}
	if owner == nil {
		s.log.Warn("checkout event for unknown email",
			zap.String("session_id", checkout.SessionID),
			zap.String("email", checkout.Email),
		)
		return nil
	}

	if checkout.CustomerID != "" {
		if err := s.repo.SetCustomerID(ctx, s.db, owner.UserID, checkout.CustomerID); err != nil {
			return err
		}
	}

	inserted, err := s.repo.InsertPurchase(ctx, s.db, &entitlementdomain.Purchase{
		UserID:          owner.UserID,
		Type:            checkout.PurchaseType,
		StripeSessionID: checkout.SessionID,
		Amount:          checkout.Amount,
		Currency:        checkout.Currency,
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Info("checkout session already processed", zap.String("session_id", checkout.SessionID))
		return nil
	}

	switch checkout.PurchaseType {
	case entitlementdomain.PurchaseSingle:
		err = s.repo.AddCredits(ctx, s.db, owner.UserID, 1)
	case entitlementdomain.PurchaseTicket10:
		err = s.repo.AddCredits(ctx, s.db, owner.UserID, 10)
	case entitlementdomain.PurchaseSubMonthly:
		customerID := optional(checkout.CustomerID)
		subID := optional(checkout.SubscriptionID)
		err = s.repo.SetPlan(ctx, s.db, owner.UserID, entitlementdomain.PlanPremium, customerID, subID)
	default:
		s.log.Warn("checkout event with unknown purchase type",
			zap.String("session_id", checkout.SessionID),
			zap.String("type", checkout.PurchaseType),
		)
		return nil
	}
	if err != nil {
		return err
	}

	s.metrics.RecordBillingEvent("checkout." + checkout.PurchaseType)
	return nil
}

func (s *Service) applySubscription(ctx context.Context, sub *domain.SubscriptionChange) error {
	owner, err := s.repo.FindByCustomerID(ctx, s.db, sub.CustomerID)
	if err != nil {
		return err
	}
	if owner == nil {
		s.log.Warn("subscription event for unknown customer", zap.String("customer_id", sub.CustomerID))
		return nil
	}

	plan := entitlementdomain.PlanFree
	if sub.Active() {
		plan = entitlementdomain.PlanPremium
	}
	if err := s.repo.SetPlan(ctx, s.db, owner.UserID, plan, nil, optional(sub.SubscriptionID)); err != nil {
		return err
	}

	s.metrics.RecordBillingEvent("subscription." + sub.Status)
	return nil
}

func (s *Service) applySubscriptionEnded(ctx context.Context, sub *domain.SubscriptionChange) error {
	owner, err := s.repo.FindByCustomerID(ctx, s.db, sub.CustomerID)
	if err != nil {
		return err
	}
	if owner == nil {
		s.log.Warn("subscription delete for unknown customer", zap.String("customer_id", sub.CustomerID))
		return nil
	}

	if err := s.repo.SetPlan(ctx, s.db, owner.UserID, entitlementdomain.PlanFree, nil, nil); err != nil {
		return err
	}
	if err := s.repo.ClearSubscription(ctx, s.db, owner.UserID); err != nil {
		return err
	}

	s.metrics.RecordBillingEvent("subscription.deleted")
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
