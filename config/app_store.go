package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type StoreConfig struct {
	Driver         string
	Key            string
	AppendAttempts int
	Timeout        time.Duration
	SQLitePath     string
}

func NewStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver:         strings.ToLower(utils.GetEnvTrimmedOrDefault("STORE_DRIVER", constants.StoreDriverRedis)),
		Key:            utils.GetEnvTrimmedOrDefault("WAITLIST_KEY", constants.DefaultStoreKey),
		AppendAttempts: utils.GetEnvInt("STORE_APPEND_ATTEMPTS", constants.DefaultAppendAttempts),
		Timeout:        utils.GetEnvDuration("STORE_TIMEOUT", constants.DefaultStoreTimeout),
		SQLitePath:     utils.GetEnvTrimmedOrDefault("SQLITE_PATH", "waitlist.db"),
	}
}

// Connect opens the backend named by Driver. Exactly one of the returned
// handles is non-nil on success. SQLite is always migrated since it has no
// separate migration step.
func (sc *StoreConfig) Connect(ctx context.Context, logger *log.Logger, autoMigrate bool) (*gorm.DB, *redis.Client, error) {
	logger.Info("Connecting waitlist store", "driver", sc.Driver, "key", sc.Key)

	switch sc.Driver {
	case constants.StoreDriverRedis:
		client, err := NewRedisConfig().NewClient(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		return nil, client, nil

	case constants.StoreDriverPostgres:
		db, err := NewDatabase(logger, NewDBConfig())
		if err != nil {
			return nil, nil, err
		}
		if autoMigrate {
			if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
				CloseDatabase(db, logger)
				return nil, nil, err
			}
		}
		return db, nil, nil

	case constants.StoreDriverSQLite:
		db, err := NewSQLiteDatabase(logger, sc.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			CloseDatabase(db, logger)
			return nil, nil, err
		}
		return db, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q (expected %s, %s or %s)",
			sc.Driver, constants.StoreDriverRedis, constants.StoreDriverPostgres, constants.StoreDriverSQLite)
	}
}
