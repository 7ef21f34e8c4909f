package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("STORE_TIMEOUT", time.Second))

	t.Setenv("STORE_TIMEOUT", "1500")
	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("STORE_TIMEOUT", time.Second))

	t.Setenv("STORE_TIMEOUT", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("STORE_TIMEOUT", time.Second))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("MAIL_QUEUE_SIZE", " 42 ")
	assert.Equal(t, 42, GetEnvInt("MAIL_QUEUE_SIZE", 100))

	t.Setenv("MAIL_QUEUE_SIZE", "-1")
	assert.Equal(t, 100, GetEnvInt("MAIL_QUEUE_SIZE", 100))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	assert.True(t, IsTracingEnabled())

	t.Setenv("OTEL_TRACES_ENABLED", "nope")
	assert.False(t, IsTracingEnabled())
}

func TestOTelServiceName_Default(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "go-waitlist", OTelServiceName())
}
