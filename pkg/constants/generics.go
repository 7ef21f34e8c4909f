package constants

import "time"

// ISO8601MillisFormat renders UTC instants with millisecond precision and a Z suffix.
const ISO8601MillisFormat = "2006-01-02T15:04:05.000Z"

// DefaultStoreKey names the waitlist collection inside the key-value store.
const DefaultStoreKey = "waitlist"

const (
	DefaultStoreTimeout       = 5 * time.Second
	DefaultAppendAttempts     = 64
	DefaultMailTimeout        = 10 * time.Second
	DefaultMailQueueSize      = 100
	DefaultMailRatePerSecond  = 5.0
	DefaultMailBreakerFailure = 5
	DefaultMailBreakerRecover = 30 * time.Second
)

// DefaultAppName is used in mail subjects and sender names.
const DefaultAppName = "Chimera"

const (
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

const (
	MailDriverSMTP = "smtp"
	MailDriverSES  = "ses"
	MailDriverNone = "none"
)
