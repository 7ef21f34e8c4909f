package waitlist

import (
	"fmt"
	"strings"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type StoreSettings struct {
	Driver         string
	Key            string
	AppendAttempts int
}

// NewRepositoryForDriver picks the backend named by settings.Driver. The
// matching connection must be non-nil.
func NewRepositoryForDriver(settings StoreSettings, db *gorm.DB, client *redis.Client) (WaitlistRepository, error) {
	key := settings.Key
	if key == "" {
		key = constants.DefaultStoreKey
	}
	attempts := settings.AppendAttempts
	if attempts <= 0 {
		attempts = constants.DefaultAppendAttempts
	}

	switch strings.ToLower(strings.TrimSpace(settings.Driver)) {
	case "", constants.StoreDriverRedis:
		if client == nil {
			return nil, fmt.Errorf("store driver %q requires a redis client", constants.StoreDriverRedis)
		}
		return NewRedisWaitlistRepository(client, key, attempts), nil
	case constants.StoreDriverPostgres, constants.StoreDriverSQLite:
		if db == nil {
			return nil, fmt.Errorf("store driver %q requires a database", settings.Driver)
		}
		return NewWaitlistRepository(db, key), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", settings.Driver)
	}
}

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	repository WaitlistRepository
	notifier   Notifier
	logger     *log.Logger
	config     ServiceConfig
}

func NewWaitlistServiceFactory(repository WaitlistRepository, notifier Notifier, logger *log.Logger, cfg ServiceConfig) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		repository: repository,
		notifier:   notifier,
		logger:     logger,
		config:     cfg,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, f.repository, f.notifier, f.config)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.repository, f.notifier, f.logger, f.config)
}
