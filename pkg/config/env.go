package config

const EnvPrefix = "PINTUAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                  = "PINTUAN_APP_ENV"
	EnvDBDSN                   = "PINTUAN_DB_DSN"
	EnvDBHost                  = "PINTUAN_DB_HOST"
	EnvDBUser                  = "PINTUAN_DB_USER"
	EnvDBPassword              = "PINTUAN_DB_PASSWORD"
	EnvDBName                  = "PINTUAN_DB_NAME"
	EnvRedisURL                = "PINTUAN_REDIS_URL"
	EnvSchedulerInterval       = "PINTUAN_SCHEDULER_INTERVAL"
	EnvSchedulerGroupTimeout   = "PINTUAN_SCHEDULER_GROUP_TIMEOUT"
	EnvSchedulerMaxConcurrency = "PINTUAN_SCHEDULER_MAX_CONCURRENCY"
	EnvNotificationChannels    = "PINTUAN_NOTIFICATION_CHANNELS"
	EnvJWTSecret               = "PINTUAN_JWT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
