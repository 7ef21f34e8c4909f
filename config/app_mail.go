package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/notify"
	"github.com/akeren/go-waitlist/pkg/circuitbreaker"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
)

type MailConfig struct {
	Driver        string
	AppName       string
	Locale        string
	SMTP          notify.SMTPConfig
	SES           notify.SESConfig
	Timeout       time.Duration
	QueueSize     int
	RatePerSecond float64
}

// NewMailConfig reads MAIL_DRIVER, falling back to smtp when EMAIL_USER is
// set and to none otherwise.
func NewMailConfig(appName, locale string) *MailConfig {
	user := utils.GetEnvTrimmed("EMAIL_USER")

	driver := strings.ToLower(utils.GetEnvTrimmed("MAIL_DRIVER"))
	if driver == "" {
		driver = constants.MailDriverNone
		if user != "" {
			driver = constants.MailDriverSMTP
		}
	}

	return &MailConfig{
		Driver:  driver,
		AppName: appName,
		Locale:  locale,
		SMTP: notify.SMTPConfig{
			Service:  utils.GetEnvTrimmed("EMAIL_SERVICE"),
			Host:     utils.GetEnvTrimmed("SMTP_HOST"),
			Port:     utils.GetEnvInt("SMTP_PORT", 0),
			Username: user,
			Password: utils.GetEnvOrDefault("EMAIL_PASS", ""),
			FromName: appName,
		},
		SES: notify.SESConfig{
			Region:    utils.GetEnvTrimmed("AWS_REGION"),
			AccessKey: utils.GetEnvTrimmed("AWS_ACCESS_KEY_ID"),
			SecretKey: utils.GetEnvTrimmed("AWS_SECRET_ACCESS_KEY"),
			From:      utils.GetEnvTrimmedOrDefault("MAIL_FROM", user),
			FromName:  appName,
		},
		Timeout:       utils.GetEnvDuration("MAIL_TIMEOUT", constants.DefaultMailTimeout),
		QueueSize:     utils.GetEnvInt("MAIL_QUEUE_SIZE", constants.DefaultMailQueueSize),
		RatePerSecond: utils.GetEnvFloat("MAIL_SEND_RATE", constants.DefaultMailRatePerSecond),
	}
}

func (mc *MailConfig) Enabled() bool {
	return mc.Driver != constants.MailDriverNone
}

func (mc *MailConfig) NewMailer(ctx context.Context) (notify.Mailer, error) {
	switch mc.Driver {
	case constants.MailDriverSMTP:
		return notify.NewSMTPMailer(mc.SMTP)
	case constants.MailDriverSES:
		if mc.SES.From == "" {
			return nil, errors.New("MAIL_FROM or EMAIL_USER must be set for the ses mail driver")
		}
		return notify.NewSESMailer(ctx, mc.SES)
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q (expected %s, %s or %s)",
			mc.Driver, constants.MailDriverSMTP, constants.MailDriverSES, constants.MailDriverNone)
	}
}

// NewDispatcher returns nil when mail is disabled.
func (mc *MailConfig) NewDispatcher(ctx context.Context, logger *log.Logger, reg prometheus.Registerer) (*notify.Dispatcher, error) {
	logger.Info("Email configured", "configured", mc.Enabled(), "driver", mc.Driver)

	if !mc.Enabled() {
		return nil, nil
	}

	mailer, err := mc.NewMailer(ctx)
	if err != nil {
		logger.Error("Failed to create mailer", "driver", mc.Driver, "error", err)
		return nil, err
	}

	renderer, err := notify.NewRenderer(mc.AppName, mc.Locale)
	if err != nil {
		return nil, err
	}

	return notify.NewDispatcher(mailer, renderer, logger, notify.DispatcherConfig{
		Driver:        mc.Driver,
		QueueSize:     mc.QueueSize,
		SendTimeout:   mc.Timeout,
		RatePerSecond: mc.RatePerSecond,
		Breaker: &circuitbreaker.Config{
			FailureThreshold: constants.DefaultMailBreakerFailure,
			RecoveryTimeout:  constants.DefaultMailBreakerRecover,
			SuccessThreshold: 1,
		},
		Registerer: reg,
	}), nil
}

func CloseDispatcher(ctx context.Context, dispatcher *notify.Dispatcher, logger *log.Logger) {
	if dispatcher == nil {
		return
	}

	if err := dispatcher.Close(ctx); err != nil {
		logger.Error("Mail queue did not drain before shutdown", "error", err)
		return
	}

	logger.Info("Mail dispatcher stopped")
}
