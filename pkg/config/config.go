package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix scopes every environment variable consumed by the portal.
const EnvPrefix = "GYMPORTAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced by error messages and tests.
const (
	EnvAppEnv     = "GYMPORTAL_APP_ENV"
	EnvPort       = "GYMPORTAL_APP_PORT"
	EnvDBDSN      = "GYMPORTAL_DB_DSN"
	EnvDBHost     = "GYMPORTAL_DB_HOST"
	EnvDBUser     = "GYMPORTAL_DB_USER"
	EnvDBName     = "GYMPORTAL_DB_NAME"
	EnvRedisURL   = "GYMPORTAL_REDIS_URL"
	EnvJWTSecret  = "GYMPORTAL_JWT_SECRET"
	EnvJWTIssuer  = "GYMPORTAL_JWT_ISSUER"
	EnvJWTExpMins = "GYMPORTAL_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeesConfig
	Lifecycle    LifecycleConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"GYMPORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"GYMPORTAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GYMPORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GYMPORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GYMPORTAL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GYMPORTAL_DB_DSN"`
	Driver string `envconfig:"GYMPORTAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GYMPORTAL_DB_HOST"`
	LegacyPort     int    `envconfig:"GYMPORTAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GYMPORTAL_DB_USER"`
	LegacyPassword string `envconfig:"GYMPORTAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"GYMPORTAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"GYMPORTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GYMPORTAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GYMPORTAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GYMPORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GYMPORTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GYMPORTAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GYMPORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"GYMPORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"GYMPORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GYMPORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GYMPORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GYMPORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GYMPORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GYMPORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GYMPORTAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GYMPORTAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GYMPORTAL_JWT_EXPIRATION_MINUTES" required:"true"`
}

// FeesConfig carries the hardcoded fallbacks used when the operational
// settings store is unreachable or unset. Pricing never hard-fails on a
// missing setting.
type FeesConfig struct {
	AdmissionFallback string `envconfig:"GYMPORTAL_FEE_ADMISSION_FALLBACK" default:"1200"`
	MonthlyFallback   string `envconfig:"GYMPORTAL_FEE_MONTHLY_FALLBACK" default:"650"`
}

// AdmissionFallbackAmount parses the admission fallback, defaulting hard
// when the env override is malformed.
func (f FeesConfig) AdmissionFallbackAmount() decimal.Decimal {
	if v, err := decimal.NewFromString(f.AdmissionFallback); err == nil {
		return v
	}
	return decimal.NewFromInt(1200)
}

// MonthlyFallbackAmount parses the monthly fee fallback.
func (f FeesConfig) MonthlyFallbackAmount() decimal.Decimal {
	if v, err := decimal.NewFromString(f.MonthlyFallback); err == nil {
		return v
	}
	return decimal.NewFromInt(650)
}

// LifecycleConfig holds the windows the expiry sweep and trainer access
// checks operate on.
type LifecycleConfig struct {
	GraceDays         int           `envconfig:"GYMPORTAL_LIFECYCLE_GRACE_DAYS" default:"15"`
	TrainerGraceDays  int           `envconfig:"GYMPORTAL_LIFECYCLE_TRAINER_GRACE_DAYS" default:"5"`
	SweepInterval     time.Duration `envconfig:"GYMPORTAL_LIFECYCLE_SWEEP_INTERVAL" default:"1h"`
	SubmissionLockTTL time.Duration `envconfig:"GYMPORTAL_SUBMISSION_LOCK_TTL" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GYMPORTAL_AUTO_MIGRATE" default:"false"`
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
