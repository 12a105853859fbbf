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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Commission   CommissionConfig
	Delivery     DeliveryConfig
	Cart         CartConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRESHCART_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRESHCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FRESHCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FRESHCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FRESHCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHCART_DB_DSN"`
	Driver string `envconfig:"FRESHCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHCART_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHCART_DB_USER"`
	LegacyPassword string `envconfig:"FRESHCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHCART_REDIS_URL"`
	Address      string        `envconfig:"FRESHCART_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"FRESHCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FRESHCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FRESHCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FRESHCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FRESHCART_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig drives the delivery fee policy applied at placement.
type CheckoutConfig struct {
	DeliveryFlatFeeCents       int64    `envconfig:"FRESHCART_DELIVERY_FLAT_FEE_CENTS" default:"4000"`
	FreeDeliveryThresholdCents int64    `envconfig:"FRESHCART_DELIVERY_FREE_THRESHOLD_CENTS" default:"50000"`
	FeeExemptCategories        []string `envconfig:"FRESHCART_DELIVERY_FEE_EXEMPT_CATEGORIES" default:"medicine"`
}

// ExemptCategorySet returns the normalized set of fee-exempt categories.
func (c CheckoutConfig) ExemptCategorySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.FeeExemptCategories))
	for _, category := range c.FeeExemptCategories {
		normalized := strings.ToLower(strings.TrimSpace(category))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (c CheckoutConfig) validate() error {
	if c.DeliveryFlatFeeCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvDeliveryFlatFee)
	}
	if c.FreeDeliveryThresholdCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvDeliveryFreeThreshold)
	}
	return nil
}

type CommissionConfig struct {
	DeveloperCents int64 `envconfig:"FRESHCART_COMMISSION_DEVELOPER_CENTS" default:"500"`
	DeliveryCents  int64 `envconfig:"FRESHCART_COMMISSION_DELIVERY_CENTS" default:"3000"`
}

type DeliveryConfig struct {
	// SelectionSeed fixes the courier picker; zero seeds from the clock.
	SelectionSeed int64 `envconfig:"FRESHCART_DELIVERY_SELECTION_SEED" default:"0"`
}

type CartConfig struct {
	GuestTTL time.Duration `envconfig:"FRESHCART_GUEST_CART_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FRESHCART_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic   string `envconfig:"FRESHCART_PUBSUB_ORDERS_TOPIC" default:"fc-order-events"`
	DeliveryTopic string `envconfig:"FRESHCART_PUBSUB_DELIVERY_TOPIC" default:"fc-delivery-events"`
	PayoutsTopic  string `envconfig:"FRESHCART_PUBSUB_PAYOUTS_TOPIC" default:"fc-payout-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FRESHCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FRESHCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FRESHCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"FRESHCART_OUTBOX_RETENTION_DAYS" default:"30"`
	// dead letters outlive published rows so operators can replay them
	DLQRetentionDays int `envconfig:"FRESHCART_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

// RateLimitConfig throttles coupon probing per user.
type RateLimitConfig struct {
	CouponValidateLimit  int           `envconfig:"FRESHCART_RATE_LIMIT_COUPON_VALIDATE" default:"20"`
	CouponValidateWindow time.Duration `envconfig:"FRESHCART_RATE_LIMIT_COUPON_WINDOW" default:"1m"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"FRESHCART_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"FRESHCART_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"FRESHCART_CRON_INTERVAL" default:"15m"`
	PendingOrderTTL time.Duration `envconfig:"FRESHCART_CRON_PENDING_ORDER_TTL" default:"6h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		db.DSN = pinSessionTimeZone(db.DSN)
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

	q := u.Query()
	if db.LegacySSLMode != "" {
		q.Set("sslmode", db.LegacySSLMode)
	}
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()

	db.DSN = u.String()
	return nil
}

// pinSessionTimeZone runs sessions in UTC unless the DSN already names a zone, so date columns
// and timestamptz values agree on where a day starts.
func pinSessionTimeZone(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "timezone=") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("TimeZone", "UTC")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn + " TimeZone=UTC"
}
