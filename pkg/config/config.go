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
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cache         CacheConfig
	OpenAI        OpenAIConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FOODBRIDGE_APP_ENV" required:"true"`
	Port         string   `envconfig:"FOODBRIDGE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"FOODBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FOODBRIDGE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FOODBRIDGE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FOODBRIDGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FOODBRIDGE_DB_DSN"`
	Driver string `envconfig:"FOODBRIDGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODBRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODBRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODBRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"FOODBRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODBRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODBRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOODBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"FOODBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODBRIDGE_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FOODBRIDGE_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FOODBRIDGE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FOODBRIDGE_JWT_ISSUER" default:"foodbridge"`
	ExpirationMinutes      int    `envconfig:"FOODBRIDGE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FOODBRIDGE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODBRIDGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODBRIDGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODBRIDGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODBRIDGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODBRIDGE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FOODBRIDGE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOODBRIDGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOODBRIDGE_AUTO_MIGRATE" default:"false"`
}

// CacheConfig selects the query cache backend and its TTL policy.
type CacheConfig struct {
	Backend   string        `envconfig:"FOODBRIDGE_CACHE_BACKEND" default:"memory"`
	SharedTTL time.Duration `envconfig:"FOODBRIDGE_CACHE_SHARED_TTL" default:"5s"`
	EntityTTL time.Duration `envconfig:"FOODBRIDGE_CACHE_ENTITY_TTL" default:"10s"`
}

func (c *CacheConfig) validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "":
		c.Backend = CacheBackendMemory
	case CacheBackendMemory, CacheBackendRedis, CacheBackendOff:
	default:
		return fmt.Errorf("%s must be one of memory, redis, off (got %q)", EnvCacheBackend, c.Backend)
	}
	if c.SharedTTL < 0 || c.EntityTTL < 0 {
		return fmt.Errorf("cache ttl values must not be negative")
	}
	return nil
}

type OpenAIConfig struct {
	APIKey  string        `envconfig:"FOODBRIDGE_OPENAI_API_KEY"`
	Model   string        `envconfig:"FOODBRIDGE_OPENAI_MODEL" default:"gpt-4o"`
	BaseURL string        `envconfig:"FOODBRIDGE_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Timeout time.Duration `envconfig:"FOODBRIDGE_OPENAI_TIMEOUT" default:"30s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FOODBRIDGE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FOODBRIDGE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"FOODBRIDGE_PUBSUB_DOMAIN_TOPIC" default:"fb-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FOODBRIDGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FOODBRIDGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FOODBRIDGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"FOODBRIDGE_CRON_INTERVAL" default:"5m"`
	BatchSize       int           `envconfig:"FOODBRIDGE_CRON_BATCH_SIZE" default:"200"`
	LockTTL         time.Duration `envconfig:"FOODBRIDGE_CRON_LOCK_TTL" default:"10m"`
	OutboxRetention time.Duration `envconfig:"FOODBRIDGE_CRON_OUTBOX_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:foodbridge.db?_foreign_keys=on"
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	missing := []string{}
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
