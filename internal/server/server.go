package server

import (
	"context"
	"net/http"
	"time"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/billing"
	billingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/clock"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement"
	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	obsmetrics "github.com/TAROSUKE-Cyber/tarot-app/internal/observability/metrics"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/oracle"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/ratelimit"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/reading"
	readingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/reading/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	clock.Module,
	oracle.Module,
	entitlement.Module,
	reading.Module,
	billing.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	readingSvc     readingdomain.Service
	entitlementSvc entitlementdomain.Service
	billingSvc     billingdomain.Service
	readingLimiter *ratelimit.ReadingLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	ReadingSvc     readingdomain.Service
	EntitlementSvc entitlementdomain.Service
	BillingSvc     billingdomain.Service
	ReadingLimiter *ratelimit.ReadingLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		readingSvc:     p.ReadingSvc,
		entitlementSvc: p.EntitlementSvc,
		billingSvc:     p.BillingSvc,
		readingLimiter: p.ReadingLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/tarot", s.DrawReading)
	api.POST("/entitlement/status", s.EntitlementStatus)

	stripe := api.Group("/stripe")
	{
		stripe.POST("/checkout", s.CreateCheckout)
		stripe.POST("/portal", s.CreatePortal)
		stripe.POST("/webhook", s.StripeWebhook)
	}
}
