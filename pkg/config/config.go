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
	OTP           OTPConfig
	SMS           SMSConfig
	Pricing       PricingConfig
	Orders        OrdersConfig
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
	Env          string `envconfig:"QUICKCART_APP_ENV" required:"true"`
	Port         string `envconfig:"QUICKCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUICKCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUICKCART_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"QUICKCART_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUICKCART_DB_DSN"`
	Driver string `envconfig:"QUICKCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUICKCART_DB_HOST"`
	LegacyPort     int    `envconfig:"QUICKCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUICKCART_DB_USER"`
	LegacyPassword string `envconfig:"QUICKCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUICKCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUICKCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUICKCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUICKCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUICKCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUICKCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUICKCART_REDIS_URL" required:"true"`
	Password     string        `envconfig:"QUICKCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUICKCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUICKCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUICKCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUICKCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUICKCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUICKCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret          string `envconfig:"QUICKCART_JWT_SECRET" required:"true"`
	Issuer          string `envconfig:"QUICKCART_JWT_ISSUER" default:"quickcart"`
	ExpirationHours int    `envconfig:"QUICKCART_JWT_EXPIRATION_HOURS" default:"168"`
}

// AccessTokenTTL returns the access token lifetime. The default is
// seven days so returning customers stay signed in between orders.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationHours <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"QUICKCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"QUICKCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"QUICKCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"QUICKCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"QUICKCART_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL            time.Duration `envconfig:"QUICKCART_OTP_TTL" default:"5m"`
	MaxAttempts    int           `envconfig:"QUICKCART_OTP_MAX_ATTEMPTS" default:"3"`
	DailySendLimit int           `envconfig:"QUICKCART_OTP_DAILY_SEND_LIMIT" default:"20"`
	DevExpose      bool          `envconfig:"QUICKCART_OTP_DEV_EXPOSE" default:"false"`
}

type SMSConfig struct {
	Provider string `envconfig:"QUICKCART_SMS_PROVIDER" default:"console"`
	APIKey   string `envconfig:"QUICKCART_SMS_API_KEY"`
	SenderID string `envconfig:"QUICKCART_SMS_SENDER_ID" default:"QCKCRT"`
}

type PricingConfig struct {
	FreeDeliveryThreshold string `envconfig:"QUICKCART_FREE_DELIVERY_THRESHOLD" default:"99"`
	DefaultDeliveryFee    string `envconfig:"QUICKCART_DEFAULT_DELIVERY_FEE" default:"20"`
	DefaultHandlingFee    string `envconfig:"QUICKCART_DEFAULT_HANDLING_FEE" default:"0"`
}

type OrdersConfig struct {
	// AllowAnyStatusTransition lets operators skip the fulfillment
	// transition table, for support tooling only.
	AllowAnyStatusTransition bool          `envconfig:"QUICKCART_ORDERS_ALLOW_ANY_TRANSITION" default:"false"`
	EstimatedDeliveryWindow  time.Duration `envconfig:"QUICKCART_ORDERS_ESTIMATED_DELIVERY_WINDOW" default:"30m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"QUICKCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"QUICKCART_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"QUICKCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QUICKCART_AUTO_MIGRATE" default:"false"`
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
