package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	Scheduler     SchedulerConfig
	Admin         AdminConfig
	JWT           JWTConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PINTUAN_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PINTUAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PINTUAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PINTUAN_SERVICE_KIND" default:"group-closer"`
}

type DBConfig struct {
	DSN string `envconfig:"PINTUAN_DB_DSN"`

	LegacyHost     string `envconfig:"PINTUAN_DB_HOST"`
	LegacyPort     int    `envconfig:"PINTUAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PINTUAN_DB_USER"`
	LegacyPassword string `envconfig:"PINTUAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"PINTUAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"PINTUAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PINTUAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PINTUAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PINTUAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PINTUAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; without a URL or address the closer runs with a process-local lock.
type RedisConfig struct {
	URL          string        `envconfig:"PINTUAN_REDIS_URL"`
	Address      string        `envconfig:"PINTUAN_REDIS_ADDR"`
	Password     string        `envconfig:"PINTUAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"PINTUAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PINTUAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PINTUAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PINTUAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PINTUAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PINTUAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SchedulerConfig struct {
	Interval       time.Duration `envconfig:"PINTUAN_SCHEDULER_INTERVAL" default:"60s"`
	GroupTimeout   time.Duration `envconfig:"PINTUAN_SCHEDULER_GROUP_TIMEOUT" default:"30s"`
	MaxConcurrency int           `envconfig:"PINTUAN_SCHEDULER_MAX_CONCURRENCY" default:"8"`
	LockTTL        time.Duration `envconfig:"PINTUAN_SCHEDULER_LOCK_TTL" default:"5m"`
}

func (s SchedulerConfig) validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvSchedulerInterval)
	}
	if s.GroupTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvSchedulerGroupTimeout)
	}
	if s.MaxConcurrency <= 0 {
		return fmt.Errorf("%s must be positive", EnvSchedulerMaxConcurrency)
	}
	return nil
}

type AdminConfig struct {
	Port string `envconfig:"PINTUAN_ADMIN_PORT" default:"9090"`
}

// JWTConfig verifies operator tokens presented to the management surface.
type JWTConfig struct {
	Secret            string `envconfig:"PINTUAN_JWT_SECRET"`
	Issuer            string `envconfig:"PINTUAN_JWT_ISSUER" default:"pintuan"`
	ExpirationMinutes int    `envconfig:"PINTUAN_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PINTUAN_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PINTUAN_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic string        `envconfig:"PINTUAN_PUBSUB_NOTIFICATION_TOPIC" default:"pintuan-notification-events"`
	PublishTimeout    time.Duration `envconfig:"PINTUAN_PUBSUB_PUBLISH_TIMEOUT" default:"10s"`
}

type NotificationsConfig struct {
	// Channels lists the notifier backends to fan out to: "store", "pubsub".
	Channels []string `envconfig:"PINTUAN_NOTIFICATION_CHANNELS" default:"store"`
}

// Uses reports whether the named channel is enabled.
func (n NotificationsConfig) Uses(channel string) bool {
	for _, c := range n.Channels {
		if strings.EqualFold(strings.TrimSpace(c), channel) {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PINTUAN_AUTO_MIGRATE" default:"false"`
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
