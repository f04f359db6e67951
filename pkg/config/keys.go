package config

const (
	EnvPrefix = "STAFFDESK"

	AppEnvDev = "dev"

	devSessionSecret = "staffdesk-local-secret"

	EnvAppEnv        = "STAFFDESK_APP_ENV"
	EnvLogLevel      = "STAFFDESK_LOG_LEVEL"
	EnvStorageDriver = "STAFFDESK_STORAGE_DRIVER"
	EnvStorageDir    = "STAFFDESK_STORAGE_DIR"
	EnvSnapshotKey   = "STAFFDESK_SNAPSHOT_KEY"
	EnvDBDSN         = "STAFFDESK_DB_DSN"
	EnvRedisURL      = "STAFFDESK_REDIS_URL"
	EnvS3Bucket      = "STAFFDESK_S3_BUCKET"
	EnvSessionSecret = "STAFFDESK_SESSION_SECRET"
	EnvDefaultRole   = "STAFFDESK_REGISTRATION_DEFAULT_ROLE"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverS3       = "s3"
)

var validStorageDrivers = []string{
	StorageDriverMemory,
	StorageDriverFile,
	StorageDriverSQLite,
	StorageDriverPostgres,
	StorageDriverRedis,
	StorageDriverS3,
}
