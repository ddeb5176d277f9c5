package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "EBOOKSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "EBOOKSHOP_APP_ENV"
	EnvPort        = "EBOOKSHOP_APP_PORT"
	EnvDBDSN       = "EBOOKSHOP_DB_DSN"
	EnvDBHost      = "EBOOKSHOP_DB_HOST"
	EnvDBUser      = "EBOOKSHOP_DB_USER"
	EnvDBName      = "EBOOKSHOP_DB_NAME"
	EnvRedisURL    = "EBOOKSHOP_REDIS_URL"
	EnvRedisAddr   = "EBOOKSHOP_REDIS_ADDR"
	EnvJWTSecret   = "EBOOKSHOP_JWT_SECRET"
	EnvJWTIssuer   = "EBOOKSHOP_JWT_ISSUER"
	EnvJWTExpMins  = "EBOOKSHOP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTTL  = "EBOOKSHOP_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite   = "EBOOKSHOP_USE_SQLITE"
	EnvCartTTL     = "EBOOKSHOP_CART_TTL"
	EnvGCPProject  = "EBOOKSHOP_GCP_PROJECT_ID"
	EnvOrdersTopic = "EBOOKSHOP_PUBSUB_ORDERS_TOPIC"
	EnvCORSOrigins = "EBOOKSHOP_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
