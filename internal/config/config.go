package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	StoreName     string
	PublicBaseURL string
	HTTPAddr      string

	Discord DiscordConfig
	Stripe  StripeConfig
	Crypto  CryptoConfig
	Ticket  TicketConfig
	Invoice InvoiceConfig

	CatalogPath string
	RedisAddr   string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBMetricsEnabled  bool
}

type DiscordConfig struct {
	Token        string
	AppID        string
	GuildID      string
	LogChannelID string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string
}

type CryptoConfig struct {
	MerchantID    string
	APIKey        string
	WebhookSecret string
	APIBaseURL    string
}

type TicketConfig struct {
	CategoryID    string
	SupportRoleID string
	OwnerID       string
	LockTTL       time.Duration
	CloseTrigger  string
	CloseDelay    time.Duration
	ConfirmWindow time.Duration
}

type InvoiceConfig struct {
	Storage      string
	Dir          string
	S3Region     string
	S3Bucket     string
	S3Prefix     string
	S3PublicBase string
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "ticketbot"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		StoreName:     getenv("STORE_NAME", "Store"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_BASE_URL", "http://localhost:8080")), "/"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		Discord: DiscordConfig{
			Token:        strings.TrimSpace(getenv("DISCORD_TOKEN", "")),
			AppID:        strings.TrimSpace(getenv("DISCORD_APP_ID", "")),
			GuildID:      strings.TrimSpace(getenv("GUILD_ID", "")),
			LogChannelID: strings.TrimSpace(getenv("LOG_CHANNEL_ID", "")),
		},
		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			APIBaseURL:    getenv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		},
		Crypto: CryptoConfig{
			MerchantID:    strings.TrimSpace(getenv("CRYPTOMUS_MERCHANT_ID", "")),
			APIKey:        strings.TrimSpace(getenv("CRYPTOMUS_API_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("CRYPTO_WEBHOOK_SECRET", "")),
			APIBaseURL:    getenv("CRYPTOMUS_API_BASE_URL", "https://api.cryptomus.com"),
		},
		Ticket: TicketConfig{
			CategoryID:    strings.TrimSpace(getenv("TICKET_CATEGORY_ID", "")),
			SupportRoleID: strings.TrimSpace(getenv("SUPPORT_ROLE_ID", "")),
			OwnerID:       strings.TrimSpace(getenv("OWNER_ID", "")),
			LockTTL:       getenvDuration("TICKET_LOCK_TTL", 15*time.Second),
			CloseTrigger:  getenv("CLOSE_TRIGGER", "+close"),
			CloseDelay:    getenvDuration("CLOSE_DELAY", 10*time.Second),
			ConfirmWindow: getenvDuration("CLOSE_CONFIRM_WINDOW", 5*time.Minute),
		},
		Invoice: InvoiceConfig{
			Storage:      strings.ToLower(getenv("INVOICE_STORAGE", "local")),
			Dir:          getenv("INVOICE_DIR", "./invoices"),
			S3Region:     getenv("S3_REGION", ""),
			S3Bucket:     getenv("S3_BUCKET", ""),
			S3Prefix:     getenv("S3_PREFIX", "invoices"),
			S3PublicBase: getenv("S3_PUBLIC_BASE_URL", ""),
		},
		CatalogPath:       getenv("CATALOG_PATH", "catalog.yaml"),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "ticketbot"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "ticketbot.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBMetricsEnabled:  getenvBool("DATABASE_METRICS_ENABLED", false),
	}
}

// CardWebhookURL is the public URL Stripe posts checkout events to.
func (c Config) CardWebhookURL() string {
	return c.PublicBaseURL + "/webhooks/stripe"
}

// CryptoWebhookURL is the public URL the crypto provider posts invoice updates to.
func (c Config) CryptoWebhookURL() string {
	return c.PublicBaseURL + "/webhooks/crypto"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
