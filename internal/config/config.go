package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Quota    QuotaConfig
	Email    EmailConfig
	Admin    AdminConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	SiteURL        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

type AIConfig struct {
	APIKey           string
	BaseURL          string
	BasicModel       string
	PremiumModel     string
	BasicMaxTokens   int
	PremiumMaxTokens int
	MaxMessageChars  int
	RequestTimeout   int // seconds
}

type AuthConfig struct {
	JWTSecret string
}

type BillingConfig struct {
	CreemAPIKey       string
	CreemBaseURL      string
	WebhookSecret     string
	ProProductID      string
	AnnualProductID   string
	CancelWindowDays  int
	RefundWindowHours int
	FullRefundMaxUse  int
}

// QuotaConfig holds the per-tier daily message ceilings. Anonymous and free
// share one limit; pro has a higher one plus a fair-use quota for the
// premium model.
type QuotaConfig struct {
	FreeDailyLimit    int
	ProDailyLimit     int
	PremiumDailyQuota int
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

type AdminConfig struct {
	Key string
}

type CronConfig struct {
	Secret       string
	ReminderDays int
	ReminderSpec string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			SiteURL:        getEnv("SITE_URL", "http://localhost:3000"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "askzeninsight"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		AI: AIConfig{
			APIKey:           getEnv("GLM_API_KEY", ""),
			BaseURL:          getEnv("GLM_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
			BasicModel:       getEnv("GLM_BASIC_MODEL", "glm-4-flash"),
			PremiumModel:     getEnv("GLM_PREMIUM_MODEL", "glm-4-plus"),
			BasicMaxTokens:   getEnvInt("GLM_BASIC_MAX_TOKENS", 1024),
			PremiumMaxTokens: getEnvInt("GLM_PREMIUM_MAX_TOKENS", 4096),
			MaxMessageChars:  getEnvInt("CHAT_MAX_MESSAGE_CHARS", 4000),
			RequestTimeout:   getEnvInt("GLM_REQUEST_TIMEOUT", 55),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Billing: BillingConfig{
			CreemAPIKey:       getEnv("CREEM_API_KEY", ""),
			CreemBaseURL:      getEnv("CREEM_BASE_URL", "https://api.creem.io/v1"),
			WebhookSecret:     getEnv("CREEM_WEBHOOK_SECRET", ""),
			ProProductID:      getEnv("CREEM_PRO_PRODUCT_ID", ""),
			AnnualProductID:   getEnv("CREEM_ANNUAL_PRODUCT_ID", ""),
			CancelWindowDays:  getEnvInt("CANCEL_WINDOW_DAYS", 7),
			RefundWindowHours: getEnvInt("REFUND_WINDOW_HOURS", 48),
			FullRefundMaxUse:  getEnvInt("FULL_REFUND_MAX_USAGE", 5),
		},
		Quota: QuotaConfig{
			FreeDailyLimit:    getEnvInt("FREE_DAILY_LIMIT", 10),
			ProDailyLimit:     getEnvInt("PRO_DAILY_LIMIT", 100),
			PremiumDailyQuota: getEnvInt("PREMIUM_DAILY_QUOTA", 30),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM", "AskZenInsight <noreply@askzeninsight.com>"),
		},
		Admin: AdminConfig{
			Key: getEnv("ADMIN_KEY", ""),
		},
		Cron: CronConfig{
			Secret:       getEnv("CRON_SECRET", ""),
			ReminderDays: getEnvInt("REMINDER_DAYS", 3),
			ReminderSpec: getEnv("REMINDER_CRON_SPEC", "0 0 9 * * *"),
		},
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
