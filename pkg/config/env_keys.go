package config

const (
	EnvPrefix = "SHIPBRIDGE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "SHIPBRIDGE_APP_ENV"
	EnvPort   = "SHIPBRIDGE_APP_PORT"

	EnvDBDSN  = "SHIPBRIDGE_DB_DSN"
	EnvDBHost = "SHIPBRIDGE_DB_HOST"
	EnvDBUser = "SHIPBRIDGE_DB_USER"
	EnvDBName = "SHIPBRIDGE_DB_NAME"

	EnvRedisURL = "SHIPBRIDGE_REDIS_URL"

	EnvKanguBaseURL    = "SHIPBRIDGE_KANGU_BASE_URL"
	EnvPlatformBaseURL = "SHIPBRIDGE_PLATFORM_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
