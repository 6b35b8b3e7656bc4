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
	DB           DBConfig
	Redis        RedisConfig
	Kangu        KanguConfig
	Platform     PlatformConfig
	Webhook      WebhookConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPBRIDGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHIPBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHIPBRIDGE_DB_DSN"`
	Driver string `envconfig:"SHIPBRIDGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHIPBRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHIPBRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHIPBRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"SHIPBRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHIPBRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHIPBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHIPBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHIPBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHIPBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIPBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIPBRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHIPBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"SHIPBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIPBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIPBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIPBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIPBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// KanguConfig points the carrier gateway at the Kangu TMS API.
type KanguConfig struct {
	BaseURL string        `envconfig:"SHIPBRIDGE_KANGU_BASE_URL" default:"https://portal.kangu.com.br"`
	Timeout time.Duration `envconfig:"SHIPBRIDGE_KANGU_TIMEOUT" default:"30s"`
}

// PlatformConfig points the store-api client at the e-commerce platform.
type PlatformConfig struct {
	BaseURL string        `envconfig:"SHIPBRIDGE_PLATFORM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SHIPBRIDGE_PLATFORM_TIMEOUT" default:"15s"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SHIPBRIDGE_WEBHOOK_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHIPBRIDGE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
