package config

import (
	"context"
	"time"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/notify"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	Redis           *redis.Client
	Notifier        *notify.Dispatcher
	RouterService   *router.RouterService
	Logger          *log.Logger
	Config          *AppConfig
	TracingShutdown func(context.Context) error
	StartedAt       time.Time
}

type AppConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Store           *StoreConfig
	Waitlist        *WaitlistConfig
	Mail            *MailConfig
}

func NewAppConfig() *AppConfig {
	waitlist := NewWaitlistConfig()

	return &AppConfig{
		RequestTimeout:  utils.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: utils.GetEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Store:           NewStoreConfig(),
		Waitlist:        waitlist,
		Mail:            NewMailConfig(waitlist.AppName, waitlist.Locale),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	CloseDispatcher(ctx, ac.Notifier, ac.Logger)

	if ac.TracingShutdown != nil {
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.Redis != nil {
		_ = CloseRedis(ac.Redis, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	appConfig := NewAppConfig()
	appCtx := &ApplicationConfig{
		Logger:    logger,
		Config:    appConfig,
		StartedAt: time.Now(),
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}
	appCtx.TracingShutdown = tracingShutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	appCtx.DB, appCtx.Redis, err = appConfig.Store.Connect(ctx, logger, autoMigrate)
	if err != nil {
		appCtx.Cleanup()
		return nil, err
	}

	appCtx.RouterService = router.CreateRouterService(logger, &router.RouterConfig{
		RequestTimeout: appConfig.RequestTimeout,
	})

	appCtx.Notifier, err = appConfig.Mail.NewDispatcher(ctx, logger, appCtx.RouterService.MetricsRegisterer())
	if err != nil {
		appCtx.Cleanup()
		return nil, err
	}

	logger.Info("Application configuration loaded successfully",
		"store", appConfig.Store.Driver,
		"locale", appConfig.Waitlist.Locale,
		"admin_listing", appConfig.Waitlist.AdminPassword != "",
	)

	return appCtx, nil
}
