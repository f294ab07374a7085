package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	API          APIConfig
	Session      SessionConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Media        MediaConfig
	I18n         I18nConfig
	Belongings   BelongingsConfig
	LoginLimit   LoginLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("%s must be an absolute url: %w", EnvAPIBaseURL, err)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s=redis requires %s or %s", EnvStorageDriver, EnvRedisURL, EnvRedisAddr)
		}
	case StorageSQL:
		if err := c.DB.ensureDSN(c.FeatureFlags.UseSQLite); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}

	switch strings.ToLower(c.I18n.DefaultLanguage) {
	case "fr", "ar":
	default:
		return fmt.Errorf("unsupported %s %q", EnvDefaultLanguage, c.I18n.DefaultLanguage)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"LINARQA_APP_ENV" required:"true"`
	Port         string `envconfig:"LINARQA_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"LINARQA_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LINARQA_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LINARQA_LOG_WARN_STACK" default:"false"`
	// comma separated, only applied to the JSON endpoints
	CORSOrigins []string `envconfig:"LINARQA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points at the school REST API.
type APIConfig struct {
	BaseURL string        `envconfig:"LINARQA_API_BASE_URL" default:"http://localhost:8080/api"`
	Timeout time.Duration `envconfig:"LINARQA_API_TIMEOUT" default:"30s"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"LINARQA_SESSION_COOKIE" default:"lq_sid"`
	TTL        time.Duration `envconfig:"LINARQA_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"LINARQA_SESSION_SECURE" default:"false"`
}

type StorageConfig struct {
	Driver string `envconfig:"LINARQA_STORAGE_DRIVER" default:"memory"`
}

type DBConfig struct {
	DSN    string `envconfig:"LINARQA_DB_DSN"`
	Driver string `envconfig:"LINARQA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LINARQA_DB_HOST"`
	Port     int    `envconfig:"LINARQA_DB_PORT" default:"5432"`
	User     string `envconfig:"LINARQA_DB_USER"`
	Password string `envconfig:"LINARQA_DB_PASSWORD"`
	Name     string `envconfig:"LINARQA_DB_NAME"`
	SSLMode  string `envconfig:"LINARQA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LINARQA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LINARQA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LINARQA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LINARQA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LINARQA_REDIS_URL"`
	Address      string        `envconfig:"LINARQA_REDIS_ADDR"`
	Password     string        `envconfig:"LINARQA_REDIS_PASSWORD"`
	DB           int           `envconfig:"LINARQA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LINARQA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LINARQA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LINARQA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LINARQA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LINARQA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LINARQA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LINARQA_AUTO_MIGRATE" default:"false"`
}

type MediaConfig struct {
	MaxUploadMB    int `envconfig:"LINARQA_MAX_UPLOAD_MB" default:"5"`
	ImageMaxWidth  int `envconfig:"LINARQA_MEDIA_IMAGE_MAX_WIDTH" default:"800"`
	ImageMaxHeight int `envconfig:"LINARQA_MEDIA_IMAGE_MAX_HEIGHT" default:"800"`
	ImageQuality   int `envconfig:"LINARQA_MEDIA_IMAGE_QUALITY" default:"85"`
	// MaxPixels caps width*height before an upload is decoded.
	MaxPixels int `envconfig:"LINARQA_MEDIA_MAX_PIXELS" default:"40000000"`
}

// MaxUploadBytes converts MaxUploadMB into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type I18nConfig struct {
	DefaultLanguage string `envconfig:"LINARQA_DEFAULT_LANGUAGE" default:"fr"`
}

type BelongingsConfig struct {
	TrackingConcurrency int `envconfig:"LINARQA_BELONGINGS_TRACKING_CONCURRENCY" default:"8"`
}

// LoginLimitConfig throttles sign-in attempts per client IP and per email.
// Only the memory and redis storage drivers can count; with sql it is off.
type LoginLimitConfig struct {
	Window     time.Duration `envconfig:"LINARQA_LOGIN_LIMIT_WINDOW" default:"15m"`
	IPLimit    int           `envconfig:"LINARQA_LOGIN_LIMIT_IP" default:"30"`
	EmailLimit int           `envconfig:"LINARQA_LOGIN_LIMIT_EMAIL" default:"10"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:linarqa.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
