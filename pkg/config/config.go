package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	S3           S3Config
	Password     PasswordConfig
	Session      SessionConfig
	Registration RegistrationConfig
	Seed         SeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(cfg.Storage); err != nil {
		return nil, err
	}
	if err := cfg.Session.ensureSecret(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STAFFDESK_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STAFFDESK_LOG_LEVEL" default:"warn"`
	LogWarnStack bool   `envconfig:"STAFFDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// StorageConfig selects the durable key-value backend and the slot names
// used for the snapshot and the session handoff values.
type StorageConfig struct {
	Driver      string `envconfig:"STAFFDESK_STORAGE_DRIVER" default:"file"`
	Dir         string `envconfig:"STAFFDESK_STORAGE_DIR" default:".staffdesk"`
	SnapshotKey string `envconfig:"STAFFDESK_SNAPSHOT_KEY" default:"ipt_demo_v1"`
	TokenKey    string `envconfig:"STAFFDESK_TOKEN_KEY" default:"auth_token"`
	PendingKey  string `envconfig:"STAFFDESK_PENDING_KEY" default:"unverified_email"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s StorageConfig) validate() error {
	driver := s.NormalizedDriver()
	for _, candidate := range validStorageDrivers {
		if candidate == driver {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", EnvStorageDriver, strings.Join(validStorageDrivers, ", "), s.Driver)
}

type DBConfig struct {
	DSN string `envconfig:"STAFFDESK_DB_DSN"`

	MaxOpenConns    int           `envconfig:"STAFFDESK_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STAFFDESK_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STAFFDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAFFDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STAFFDESK_REDIS_URL"`
	Address      string        `envconfig:"STAFFDESK_REDIS_ADDR"`
	Password     string        `envconfig:"STAFFDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAFFDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAFFDESK_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STAFFDESK_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STAFFDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAFFDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAFFDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type S3Config struct {
	Bucket    string `envconfig:"STAFFDESK_S3_BUCKET"`
	Region    string `envconfig:"STAFFDESK_S3_REGION" default:"us-east-1"`
	Endpoint  string `envconfig:"STAFFDESK_S3_ENDPOINT"`
	PathStyle bool   `envconfig:"STAFFDESK_S3_PATH_STYLE" default:"false"`
	Prefix    string `envconfig:"STAFFDESK_S3_PREFIX" default:"staffdesk/"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STAFFDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STAFFDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STAFFDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STAFFDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STAFFDESK_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"STAFFDESK_PASSWORD_MIN_LENGTH" default:"6"`
}

// SessionConfig signs the remembered-identity token kept in the token slot.
type SessionConfig struct {
	Secret   string `envconfig:"STAFFDESK_SESSION_SECRET"`
	Issuer   string `envconfig:"STAFFDESK_SESSION_ISSUER" default:"staffdesk"`
	TTLHours int    `envconfig:"STAFFDESK_SESSION_TTL_HOURS" default:"720"`
}

// TTL returns the remembered-identity lifetime; zero disables expiry.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 0
	}
	return time.Duration(s.TTLHours) * time.Hour
}

// ensureSecret falls back to a fixed local secret in dev only.
func (s *SessionConfig) ensureSecret(app AppConfig) error {
	if strings.TrimSpace(s.Secret) != "" {
		return nil
	}
	if !app.IsDev() {
		return fmt.Errorf("%s is required when %s is %q", EnvSessionSecret, EnvAppEnv, app.Env)
	}
	s.Secret = devSessionSecret
	return nil
}

type RegistrationConfig struct {
	DefaultRole string `envconfig:"STAFFDESK_REGISTRATION_DEFAULT_ROLE" default:"User"`
}

type SeedConfig struct {
	File string `envconfig:"STAFFDESK_SEED_FILE"`
}

func (db *DBConfig) ensureDSN(storage StorageConfig) error {
	if db.DSN != "" {
		return nil
	}
	switch storage.NormalizedDriver() {
	case StorageDriverPostgres:
		return fmt.Errorf("%s is required for the postgres storage driver", EnvDBDSN)
	case StorageDriverSQLite:
		db.DSN = strings.TrimRight(storage.Dir, "/") + "/staffdesk.db"
	}
	return nil
}
