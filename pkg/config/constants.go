package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "FRESHCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "FRESHCART_APP_ENV"
	EnvPort      = "FRESHCART_APP_PORT"
	EnvRedisURL  = "FRESHCART_REDIS_URL"
	EnvJWTSecret = "FRESHCART_JWT_SECRET"
	EnvJWTIssuer = "FRESHCART_JWT_ISSUER"

	EnvDBDSN  = "FRESHCART_DB_DSN"
	EnvDBHost = "FRESHCART_DB_HOST"
	EnvDBUser = "FRESHCART_DB_USER"
	EnvDBName = "FRESHCART_DB_NAME"

	EnvDeliveryFlatFee       = "FRESHCART_DELIVERY_FLAT_FEE_CENTS"
	EnvDeliveryFreeThreshold = "FRESHCART_DELIVERY_FREE_THRESHOLD_CENTS"
	EnvDeliveryExemptCats    = "FRESHCART_DELIVERY_FEE_EXEMPT_CATEGORIES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
