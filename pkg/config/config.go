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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Channel      ChannelConfig
	Carrier      CarrierConfig
	Webhook      WebhookConfig
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
	Env          string `envconfig:"GOLDYS_APP_ENV" required:"true"`
	Port         string `envconfig:"GOLDYS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOLDYS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOLDYS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GOLDYS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GOLDYS_DB_DSN"`
	Driver string `envconfig:"GOLDYS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GOLDYS_DB_HOST"`
	LegacyPort     int    `envconfig:"GOLDYS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOLDYS_DB_USER"`
	LegacyPassword string `envconfig:"GOLDYS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOLDYS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOLDYS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GOLDYS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOLDYS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOLDYS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOLDYS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GOLDYS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GOLDYS_REDIS_ADDR"`
	Password     string        `envconfig:"GOLDYS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOLDYS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOLDYS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOLDYS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOLDYS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOLDYS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOLDYS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GOLDYS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GOLDYS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GOLDYS_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GOLDYS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GOLDYS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GOLDYS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GOLDYS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOLDYS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic          string `envconfig:"GOLDYS_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription   string `envconfig:"GOLDYS_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	TrackingTopic        string `envconfig:"GOLDYS_PUBSUB_TRACKING_TOPIC" required:"true"`
	TrackingSubscription string `envconfig:"GOLDYS_PUBSUB_TRACKING_SUBSCRIPTION" required:"true"`
}

// ChannelConfig covers the e-commerce channel admin API. Store domain and
// access token live per store row; only the shared knobs are env-driven.
type ChannelConfig struct {
	APIVersion  string        `envconfig:"GOLDYS_CHANNEL_API_VERSION" default:"2024-07"`
	Timeout     time.Duration `envconfig:"GOLDYS_CHANNEL_TIMEOUT" default:"15s"`
	MaxAttempts uint64        `envconfig:"GOLDYS_CHANNEL_MAX_ATTEMPTS" default:"3"`
	Backoff     time.Duration `envconfig:"GOLDYS_CHANNEL_BACKOFF" default:"1s"`
}

// CarrierConfig covers the shipping carrier integration. The tracking URL
// template receives the AWB number.
type CarrierConfig struct {
	TrackingURLTemplate string `envconfig:"GOLDYS_CARRIER_TRACKING_URL" default:"https://goldysnestt.shiprocket.co/tracking/%s"`
}

type WebhookConfig struct {
	DedupTTL        time.Duration `envconfig:"GOLDYS_WEBHOOK_DEDUP_TTL" default:"24h"`
	Workers         int           `envconfig:"GOLDYS_WEBHOOK_WORKERS" default:"8"`
	QueueDepth      int           `envconfig:"GOLDYS_WEBHOOK_QUEUE_DEPTH" default:"64"`
	RateLimitWindow time.Duration `envconfig:"GOLDYS_WEBHOOK_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"GOLDYS_WEBHOOK_RATE_LIMIT" default:"120"`
	MetricsPort     string        `envconfig:"GOLDYS_WEBHOOK_METRICS_PORT" default:"9090"`
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
