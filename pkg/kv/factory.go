package kv

import (
	"context"
	"fmt"

	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/db"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/migrate"
	"github.com/angelmondragon/staffdesk/pkg/redis"
)

// Open selects a Store implementation from the storage driver.
//
//	memory: process memory only
//	file: one file per slot under STAFFDESK_STORAGE_DIR (default)
//	sqlite, postgres: kv_slots table, migrated on open
//	redis: namespaced redis strings
//	s3: one object per slot under STAFFDESK_S3_PREFIX
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	driver := cfg.Storage.NormalizedDriver()
	ctx = logg.WithField(ctx, "storage_driver", driver)

	switch driver {
	case config.StorageDriverMemory:
		return NewMemory(), nil
	case config.StorageDriverFile, "":
		return NewFile(cfg.Storage.Dir)
	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		return openSQL(ctx, driver, cfg, logg)
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return NewRedis(client)
	case config.StorageDriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openSQL(ctx context.Context, driver string, cfg *config.Config, logg *logger.Logger) (Store, error) {
	client, err := db.New(ctx, driver, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := client.SQL()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := migrate.Up(ctx, sqlDB, client.Dialect()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrating slot table: %w", err)
	}
	logg.Debug(ctx, "slot table migrated")
	return NewSQL(client)
}
