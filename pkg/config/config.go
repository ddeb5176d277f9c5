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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Shop          ShopConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if cfg.Cart.TTL < 0 {
		return nil, fmt.Errorf("%s must not be negative", EnvCartTTL)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"EBOOKSHOP_APP_ENV" required:"true"`
	Port            string        `envconfig:"EBOOKSHOP_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"EBOOKSHOP_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"EBOOKSHOP_LOG_FORMAT" default:"json"`
	LogWarnStack    bool          `envconfig:"EBOOKSHOP_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"EBOOKSHOP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EBOOKSHOP_DB_DSN"`
	Driver string `envconfig:"EBOOKSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EBOOKSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"EBOOKSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EBOOKSHOP_DB_USER"`
	LegacyPassword string `envconfig:"EBOOKSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"EBOOKSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"EBOOKSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EBOOKSHOP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"EBOOKSHOP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"EBOOKSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EBOOKSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"EBOOKSHOP_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EBOOKSHOP_REDIS_URL"`
	Address      string        `envconfig:"EBOOKSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"EBOOKSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"EBOOKSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EBOOKSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EBOOKSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EBOOKSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EBOOKSHOP_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"EBOOKSHOP_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EBOOKSHOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EBOOKSHOP_JWT_ISSUER" default:"ebookshop"`
	ExpirationMinutes      int    `envconfig:"EBOOKSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"EBOOKSHOP_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the lifetime of minted access tokens.
func (j JWTConfig) AccessTokenTTL() time.Duration {
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
	ArgonMemoryKB    int `envconfig:"EBOOKSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EBOOKSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EBOOKSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EBOOKSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EBOOKSHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"EBOOKSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"EBOOKSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"EBOOKSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EBOOKSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EBOOKSHOP_AUTO_MIGRATE" default:"false"`
}

// CartConfig controls where and for how long visitor carts are kept.
type CartConfig struct {
	TTL          time.Duration `envconfig:"EBOOKSHOP_CART_TTL" default:"720h"`
	CookieName   string        `envconfig:"EBOOKSHOP_CART_COOKIE" default:"ebk_cart"`
	CookieSecure bool          `envconfig:"EBOOKSHOP_CART_COOKIE_SECURE" default:"true"`
}

// ShopConfig carries storefront details printed on receipts.
type ShopConfig struct {
	Name           string `envconfig:"EBOOKSHOP_SHOP_NAME" default:"E-Book Shop"`
	Currency       string `envconfig:"EBOOKSHOP_SHOP_CURRENCY" default:"USD"`
	CurrencySymbol string `envconfig:"EBOOKSHOP_SHOP_CURRENCY_SYMBOL" default:"$"`
	SupportContact string `envconfig:"EBOOKSHOP_SHOP_SUPPORT_CONTACT"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"EBOOKSHOP_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"EBOOKSHOP_PUBSUB_ORDERS_TOPIC" default:"ebookshop-orders"`
	// CreateTopic creates a missing topic at boot; meant for the emulator.
	CreateTopic  bool          `envconfig:"EBOOKSHOP_PUBSUB_CREATE_TOPIC" default:"false"`
	PublishDelay time.Duration `envconfig:"EBOOKSHOP_PUBSUB_PUBLISH_DELAY" default:"10ms"`
}

// Enabled reports whether order events can be published.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(gcp.ProjectID) != "" && strings.TrimSpace(p.OrdersTopic) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"EBOOKSHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = "sqlite"
		db.DSN = "ebookshop.db"
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
