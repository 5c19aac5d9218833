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
	JWT          JWTConfig
	OfferedGate  OfferedGateConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	SiteContent  SiteContentConfig
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
	Env          string `envconfig:"BAZAR_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAZAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAZAR_DB_DSN"`
	Driver string `envconfig:"BAZAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAZAR_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZAR_DB_USER"`
	LegacyPassword string `envconfig:"BAZAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAZAR_REDIS_ADDR"`
	Password     string        `envconfig:"BAZAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

// OfferedGateConfig guards the "Ofertado" payment status transition.
// SecretHash holds an Argon2id hash of the shared secret the operator
// must present alongside an admin token.
type OfferedGateConfig struct {
	SecretHash string `envconfig:"BAZAR_OFFERED_GATE_SECRET_HASH" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZAR_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"BAZAR_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BAZAR_PUBSUB_DOMAIN_TOPIC" default:"bazar-domain-events"`
	DomainSubscription string `envconfig:"BAZAR_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAZAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAZAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAZAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SiteContentConfig struct {
	CacheTTL time.Duration `envconfig:"BAZAR_SITE_CONTENT_CACHE_TTL" default:"5m"`
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
