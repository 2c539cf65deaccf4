package bootstrap

import (
	"context"
	"log"
	"time"

	"prompt-polish-be/internal/config"
	"prompt-polish-be/internal/controller"
	"prompt-polish-be/internal/pkg/logger"
	"prompt-polish-be/internal/pkg/mailer"
	"prompt-polish-be/internal/repository/unitofwork"
	"prompt-polish-be/internal/service"
	"prompt-polish-be/pkg/enhance"
	"prompt-polish-be/pkg/enhance/factory"
	"prompt-polish-be/pkg/quota"

	pktNats "prompt-polish-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	EnhanceController controller.IEnhanceController
	SessionController controller.ISessionController

	// Background services (exposed for main.go to run)
	RefreshWorker service.IRefreshWorker
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Infrastructure
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		// Quota counting cannot work without Redis, every enhance would fail.
		log.Fatalf("[FATAL] Failed to connect to Redis: %v", err)
	}

	ledger := quota.NewLedger(rdb)

	enhanceProvider, err := factory.NewProvider(
		cfg.Enhance.Provider,
		cfg.Enhance.Model,
		cfg.Enhance.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize enhancement provider: %v", err)
	}
	log.Printf("[INFO] Using enhancement provider: %s (%s)", cfg.Enhance.Provider, cfg.Enhance.Model)

	verifier := enhance.NewRuleVerifier()

	// 3. Services
	quotaService := service.NewQuotaService(ledger, natsPub, sysLogger)

	refreshScheduler := service.NewRefreshScheduler(
		pubSub,
		time.Duration(cfg.Refresh.DelaySeconds)*time.Second,
		sysLogger,
	)
	refreshWorker := service.NewRefreshWorker(
		pubSub,
		uowFactory,
		enhanceProvider,
		sysLogger,
		cfg.Refresh.Workers,
		cfg.Refresh.MaxAttempts,
	)

	enhanceService := service.NewEnhanceService(
		uowFactory,
		ledger,
		enhanceProvider,
		verifier,
		refreshScheduler,
		natsPub,
		sysLogger,
	)
	sessionService := service.NewSessionService(uowFactory, natsPub, sysLogger)
	authService := service.NewAuthService(uowFactory, emailService, quotaService, natsPub, cfg.App.JWTSecret, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, quotaService, natsPub, cfg, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService),
		OAuthController:   controller.NewOAuthController(oauthService, cfg.App.ClientURL),
		EnhanceController: controller.NewEnhanceController(enhanceService, quotaService),
		SessionController: controller.NewSessionController(sessionService),

		RefreshWorker: refreshWorker,
	}
}
