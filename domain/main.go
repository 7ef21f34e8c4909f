package domain

import (
	"context"
	"fmt"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/domain/monitoring"
	"github.com/akeren/go-waitlist/domain/waitlist"
)

// NewWaitlistRepository builds the store selected by the application config.
func NewWaitlistRepository(appConfig *config.ApplicationConfig) (waitlist.WaitlistRepository, error) {
	store := appConfig.Config.Store
	return waitlist.NewRepositoryForDriver(waitlist.StoreSettings{
		Driver:         store.Driver,
		Key:            store.Key,
		AppendAttempts: store.AppendAttempts,
	}, appConfig.DB, appConfig.Redis)
}

func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	cfg := appConfig.Config

	repository, err := NewWaitlistRepository(appConfig)
	if err != nil {
		return err
	}

	messages, err := waitlist.LoadMessages(cfg.Waitlist.Locale, cfg.Waitlist.MessagesFile)
	if err != nil {
		return fmt.Errorf("load waitlist messages: %w", err)
	}

	var notifier waitlist.Notifier
	var mailStatus monitoring.MailStatus
	if appConfig.Notifier != nil {
		notifier = appConfig.Notifier
		mailStatus = appConfig.Notifier
	}

	factory := waitlist.NewWaitlistServiceFactory(repository, notifier, appConfig.Logger, waitlist.ServiceConfig{
		AdminPassword: cfg.Waitlist.AdminPassword,
		StoreTimeout:  cfg.Store.Timeout,
		Messages:      messages,
	})

	if err := factory.CreateService().Initialize(context.Background()); err != nil {
		return fmt.Errorf("initialize waitlist store: %w", err)
	}

	if cfg.Waitlist.AdminPassword == "" {
		appConfig.Logger.Warn("WAITLIST_ADMIN_PASSWORD is not set; the admin listing rejects every request")
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(
		repository,
		cfg.Store.Driver,
		mailStatus,
		cfg.Waitlist.AppName,
		appConfig.Logger,
		appConfig.StartedAt,
	).CreateController())
	appConfig.RouterService.MountController(factory.CreateController())

	return nil
}
