package config

// EnvPrefix is the envconfig prefix for every zayancart variable.
const EnvPrefix = "ZAYANCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "ZAYANCART_APP_ENV"
	EnvPort       = "ZAYANCART_APP_PORT"
	EnvLogLevel   = "ZAYANCART_LOG_LEVEL"
	EnvDBDSN      = "ZAYANCART_DB_DSN"
	EnvDBHost     = "ZAYANCART_DB_HOST"
	EnvDBUser     = "ZAYANCART_DB_USER"
	EnvDBName     = "ZAYANCART_DB_NAME"
	EnvRedisURL   = "ZAYANCART_REDIS_URL"
	EnvJWTSecret  = "ZAYANCART_JWT_SECRET"
	EnvJWTIssuer  = "ZAYANCART_JWT_ISSUER"
	EnvJWTExpMins = "ZAYANCART_JWT_EXPIRATION_MINUTES"

	EnvRazorpayKeyID     = "ZAYANCART_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret = "ZAYANCART_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
