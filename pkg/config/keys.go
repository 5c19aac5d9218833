package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// envconfig tags, so the prefix only affects untagged fields.
const EnvPrefix = "BAZAR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "BAZAR_APP_ENV"
	EnvPort   = "BAZAR_APP_PORT"

	EnvDBDSN  = "BAZAR_DB_DSN"
	EnvDBHost = "BAZAR_DB_HOST"
	EnvDBUser = "BAZAR_DB_USER"
	EnvDBName = "BAZAR_DB_NAME"

	EnvRedisURL = "BAZAR_REDIS_URL"

	EnvJWTSecret  = "BAZAR_JWT_SECRET"
	EnvJWTIssuer  = "BAZAR_JWT_ISSUER"
	EnvJWTExpMins = "BAZAR_JWT_EXPIRATION_MINUTES"

	EnvOfferedGateSecretHash = "BAZAR_OFFERED_GATE_SECRET_HASH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
