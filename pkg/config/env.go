package config

// Keys are spelled out in the struct tags, so no prefix is prepended.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQL    = "sql"
)

const (
	EnvAppEnv          = "LINARQA_APP_ENV"
	EnvPort            = "LINARQA_APP_PORT"
	EnvLogFormat       = "LINARQA_LOG_FORMAT"
	EnvAPIBaseURL      = "LINARQA_API_BASE_URL"
	EnvAPITimeout      = "LINARQA_API_TIMEOUT"
	EnvStorageDriver   = "LINARQA_STORAGE_DRIVER"
	EnvRedisURL        = "LINARQA_REDIS_URL"
	EnvRedisAddr       = "LINARQA_REDIS_ADDR"
	EnvDBDSN           = "LINARQA_DB_DSN"
	EnvDBHost          = "LINARQA_DB_HOST"
	EnvDBUser          = "LINARQA_DB_USER"
	EnvDBName          = "LINARQA_DB_NAME"
	EnvUseSQLite       = "LINARQA_USE_SQLITE"
	EnvDefaultLanguage = "LINARQA_DEFAULT_LANGUAGE"
	EnvMaxUploadMB     = "LINARQA_MAX_UPLOAD_MB"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
