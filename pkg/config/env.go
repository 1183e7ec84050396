package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "FOODBRIDGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FOODBRIDGE_APP_ENV"
	EnvPort     = "FOODBRIDGE_APP_PORT"
	EnvLogLevel = "FOODBRIDGE_LOG_LEVEL"

	EnvDBDSN    = "FOODBRIDGE_DB_DSN"
	EnvDBDriver = "FOODBRIDGE_DB_DRIVER"
	EnvDBHost   = "FOODBRIDGE_DB_HOST"
	EnvDBUser   = "FOODBRIDGE_DB_USER"
	EnvDBName   = "FOODBRIDGE_DB_NAME"

	EnvRedisURL = "FOODBRIDGE_REDIS_URL"

	EnvJWTSecret              = "FOODBRIDGE_JWT_SECRET"
	EnvJWTIssuer              = "FOODBRIDGE_JWT_ISSUER"
	EnvJWTExpMins             = "FOODBRIDGE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FOODBRIDGE_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite   = "FOODBRIDGE_USE_SQLITE"
	EnvAutoMigrate = "FOODBRIDGE_AUTO_MIGRATE"

	EnvCacheBackend   = "FOODBRIDGE_CACHE_BACKEND"
	EnvCacheSharedTTL = "FOODBRIDGE_CACHE_SHARED_TTL"
	EnvCacheEntityTTL = "FOODBRIDGE_CACHE_ENTITY_TTL"

	EnvOpenAIAPIKey = "FOODBRIDGE_OPENAI_API_KEY"
	EnvOpenAIModel  = "FOODBRIDGE_OPENAI_MODEL"

	EnvGCPProjectID       = "FOODBRIDGE_GCP_PROJECT_ID"
	EnvGCPCredentialsJSON = "FOODBRIDGE_GCP_CREDENTIALS_JSON"
	EnvPubSubDomainTopic  = "FOODBRIDGE_PUBSUB_DOMAIN_TOPIC"

	EnvCronInterval = "FOODBRIDGE_CRON_INTERVAL"
)

// DB drivers understood by pkg/db.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Cache backends understood by pkg/cache.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendOff    = "off"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
