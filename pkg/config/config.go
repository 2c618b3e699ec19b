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
	Password     PasswordConfig
	Razorpay      RazorpayConfig
	Frontend      FrontendConfig
	AuthRateLimit AuthRateLimitConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZAYANCART_APP_ENV" required:"true"`
	Port         string `envconfig:"ZAYANCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZAYANCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZAYANCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZAYANCART_DB_DSN"`
	Driver string `envconfig:"ZAYANCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZAYANCART_DB_HOST"`
	LegacyPort     int    `envconfig:"ZAYANCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZAYANCART_DB_USER"`
	LegacyPassword string `envconfig:"ZAYANCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZAYANCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZAYANCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZAYANCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZAYANCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZAYANCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZAYANCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZAYANCART_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"ZAYANCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZAYANCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZAYANCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZAYANCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZAYANCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ZAYANCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ZAYANCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ZAYANCART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZAYANCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZAYANCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZAYANCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZAYANCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZAYANCART_ARGON_KEY_LEN" default:"32"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"ZAYANCART_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string        `envconfig:"ZAYANCART_RAZORPAY_KEY_SECRET" required:"true"`
	Currency  string        `envconfig:"ZAYANCART_RAZORPAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"ZAYANCART_RAZORPAY_TIMEOUT" default:"10s"`
}

type FrontendConfig struct {
	BaseURL string `envconfig:"ZAYANCART_FRONTEND_BASE_URL" default:"http://localhost:3000"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ZAYANCART_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"ZAYANCART_RL_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit    int           `envconfig:"ZAYANCART_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"ZAYANCART_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"ZAYANCART_RL_REGISTER_IP_LIMIT" default:"20"`
	RegisterEmailLimit int           `envconfig:"ZAYANCART_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZAYANCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZAYANCART_AUTO_MIGRATE" default:"false"`
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
