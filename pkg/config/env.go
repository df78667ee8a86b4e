package config

// EnvPrefix is handed to envconfig; every tag carries the full variable name.
const EnvPrefix = "SWEETSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "SWEETSHOP_APP_ENV"
	EnvPort      = "SWEETSHOP_APP_PORT"
	EnvLogLevel  = "SWEETSHOP_LOG_LEVEL"
	EnvDBDSN     = "SWEETSHOP_DB_DSN"
	EnvDBDriver  = "SWEETSHOP_DB_DRIVER"
	EnvDBHost    = "SWEETSHOP_DB_HOST"
	EnvDBUser    = "SWEETSHOP_DB_USER"
	EnvDBName    = "SWEETSHOP_DB_NAME"
	EnvRedisURL  = "SWEETSHOP_REDIS_URL"
	EnvRedisAddr = "SWEETSHOP_REDIS_ADDR"
	EnvJWTSecret = "SWEETSHOP_JWT_SECRET"
	EnvJWTIssuer = "SWEETSHOP_JWT_ISSUER"
	EnvJWTExpMin = "SWEETSHOP_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite = "SWEETSHOP_USE_SQLITE"
	EnvSeed      = "SWEETSHOP_SEED_CATALOG"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
