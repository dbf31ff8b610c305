package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is intentionally empty; each field carries a fully
	// qualified GIFTNEST_* variable name.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	LocalCache    LocalCacheConfig
	Oracle        OracleConfig
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
	Env          string `envconfig:"GIFTNEST_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTNEST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTNEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTNEST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GIFTNEST_DB_DSN"`
	Driver string `envconfig:"GIFTNEST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIFTNEST_DB_HOST"`
	LegacyPort     int    `envconfig:"GIFTNEST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIFTNEST_DB_USER"`
	LegacyPassword string `envconfig:"GIFTNEST_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIFTNEST_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIFTNEST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIFTNEST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIFTNEST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIFTNEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIFTNEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if strings.EqualFold(d.Driver, "sqlite") {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name parts are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTNEST_REDIS_URL"`
	Address      string        `envconfig:"GIFTNEST_REDIS_ADDR"`
	Password     string        `envconfig:"GIFTNEST_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTNEST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTNEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTNEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTNEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTNEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTNEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GIFTNEST_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GIFTNEST_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GIFTNEST_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GIFTNEST_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GIFTNEST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GIFTNEST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GIFTNEST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GIFTNEST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GIFTNEST_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GIFTNEST_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	// RemoteEnabled gates every write to the authoritative gift store.
	// When off the engine runs local-only and sync passes are skipped.
	RemoteEnabled bool `envconfig:"GIFTNEST_REMOTE_ENABLED" default:"true"`
	UseSQLite     bool `envconfig:"GIFTNEST_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"GIFTNEST_AUTO_MIGRATE" default:"false"`
}

type LocalCacheConfig struct {
	Dir string `envconfig:"GIFTNEST_LOCAL_CACHE_DIR" default:"./data/selections"`
}

type OracleConfig struct {
	BaseURL     string        `envconfig:"GIFTNEST_ORACLE_BASE_URL"`
	APIKey      string        `envconfig:"GIFTNEST_ORACLE_API_KEY"`
	Timeout     time.Duration `envconfig:"GIFTNEST_ORACLE_TIMEOUT" default:"15s"`
	MaxAttempts int           `envconfig:"GIFTNEST_ORACLE_MAX_ATTEMPTS" default:"3"`
	CacheTTL    time.Duration `envconfig:"GIFTNEST_ORACLE_CACHE_TTL" default:"30m"`
}
