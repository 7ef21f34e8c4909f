package config

import (
	"context"
	"testing"

	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMailEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MAIL_DRIVER", "EMAIL_USER", "EMAIL_PASS", "EMAIL_SERVICE", "SMTP_HOST", "SMTP_PORT",
		"MAIL_FROM", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"MAIL_TIMEOUT", "MAIL_QUEUE_SIZE", "MAIL_SEND_RATE",
	} {
		t.Setenv(key, "")
	}
}

func TestNewMailConfig_DriverFallback(t *testing.T) {
	clearMailEnv(t)
	assert.Equal(t, constants.MailDriverNone, NewMailConfig("Chimera", "fr").Driver)

	t.Setenv("EMAIL_USER", "team@chimera.io")
	cfg := NewMailConfig("Chimera", "fr")
	assert.Equal(t, constants.MailDriverSMTP, cfg.Driver)
	assert.Equal(t, "team@chimera.io", cfg.SMTP.Username)
	assert.Equal(t, "Chimera", cfg.SMTP.FromName)
	assert.Equal(t, "team@chimera.io", cfg.SES.From)

	t.Setenv("MAIL_DRIVER", "SES")
	assert.Equal(t, constants.MailDriverSES, NewMailConfig("Chimera", "fr").Driver)
}

func TestNewMailConfig_Defaults(t *testing.T) {
	clearMailEnv(t)

	cfg := NewMailConfig("Chimera", "fr")

	assert.Equal(t, constants.DefaultMailTimeout, cfg.Timeout)
	assert.Equal(t, constants.DefaultMailQueueSize, cfg.QueueSize)
	assert.Equal(t, constants.DefaultMailRatePerSecond, cfg.RatePerSecond)
}

func TestMailConfig_NewDispatcher(t *testing.T) {
	t.Run("disabled returns nil", func(t *testing.T) {
		cfg := &MailConfig{Driver: constants.MailDriverNone}

		d, err := cfg.NewDispatcher(context.Background(), quietLogger(), nil)

		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("smtp", func(t *testing.T) {
		clearMailEnv(t)
		t.Setenv("EMAIL_USER", "team@chimera.io")
		cfg := NewMailConfig("Chimera", "fr")

		d, err := cfg.NewDispatcher(context.Background(), quietLogger(), prometheus.NewRegistry())
		require.NoError(t, err)
		require.NotNil(t, d)
		defer CloseDispatcher(context.Background(), d, quietLogger())

		assert.Equal(t, "smtp", d.Status().Driver)
		assert.Equal(t, "closed", d.Status().Breaker)
	})

	t.Run("ses without sender", func(t *testing.T) {
		cfg := &MailConfig{Driver: constants.MailDriverSES}

		_, err := cfg.NewDispatcher(context.Background(), quietLogger(), nil)

		assert.ErrorContains(t, err, "MAIL_FROM")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &MailConfig{Driver: "carrier-pigeon"}

		_, err := cfg.NewDispatcher(context.Background(), quietLogger(), nil)

		assert.ErrorContains(t, err, "unknown MAIL_DRIVER")
	})
}

func TestNewWaitlistConfig(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("WAITLIST_ADMIN_PASSWORD", "s3cret")
	t.Setenv("WAITLIST_LOCALE", "")
	t.Setenv("WAITLIST_MESSAGES_FILE", "")

	cfg := NewWaitlistConfig()

	assert.Equal(t, constants.DefaultAppName, cfg.AppName)
	assert.Equal(t, "s3cret", cfg.AdminPassword)
	assert.Equal(t, "fr", cfg.Locale)
	assert.Empty(t, cfg.MessagesFile)
}
