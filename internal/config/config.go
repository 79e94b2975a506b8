package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// PlatformDomain is the apex domain partner subdomains hang off,
	// e.g. "stackbundle.io" serves tenants at "<slug>.stackbundle.io".
	PlatformDomain string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StripeSecretKey string
	// ApplicationFeePercent is the platform cut applied to every
	// connected-account subscription.
	ApplicationFeePercent float64
	// PlatformPriceIDMonth/Year are the prices for the primary
	// (non-white-label) product sold on the platform account.
	PlatformPriceIDMonth string
	PlatformPriceIDYear  string

	ResendAPIKey      string
	ResendDefaultFrom string

	DiscordBotToken string
	DiscordGuildID  string

	AnalyticsToken string

	MagicLinkSecret string
	MagicLinkTTLMin int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getenv("APP_SERVICE", "partnerhub"),
		AppVersion:     getenv("APP_VERSION", "0.1.0"),
		Environment:    getenv("ENVIRONMENT", "development"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		PlatformDomain: getenv("PLATFORM_DOMAIN", "stackbundle.io"),
		OTLPEndpoint:   getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "partnerhub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		StripeSecretKey:       strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		ApplicationFeePercent: getenvFloat("APPLICATION_FEE_PERCENT", 50),
		PlatformPriceIDMonth:  strings.TrimSpace(getenv("PLATFORM_PRICE_ID_MONTH", "")),
		PlatformPriceIDYear:   strings.TrimSpace(getenv("PLATFORM_PRICE_ID_YEAR", "")),

		ResendAPIKey:      strings.TrimSpace(getenv("RESEND_API_KEY", "")),
		ResendDefaultFrom: getenv("RESEND_DEFAULT_FROM", "login@stackbundle.io"),

		DiscordBotToken: strings.TrimSpace(getenv("DISCORD_BOT_TOKEN", "")),
		DiscordGuildID:  strings.TrimSpace(getenv("DISCORD_GUILD_ID", "")),

		AnalyticsToken: strings.TrimSpace(getenv("ANALYTICS_TOKEN", "")),

		MagicLinkSecret: strings.TrimSpace(getenv("MAGIC_LINK_SECRET", "")),
		MagicLinkTTLMin: getenvInt("MAGIC_LINK_TTL_MIN", 15),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
