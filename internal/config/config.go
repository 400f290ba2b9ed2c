package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Bot       BotConfig
	RateLimit RateLimitConfig
	Spam      SpamConfig
	Admin     AdminConfig
	Schedule  ScheduleConfig
	Channels  ChannelsConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	BackupDir      string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// BotConfig defines message-handling behavior of the bot itself.
type BotConfig struct {
	SelfID           string
	GreetingWord     string
	EscalationTarget string
	MediaMaxBytes    int64
}

// RateLimitConfig holds the ticket-creation maxima per window.
type RateLimitConfig struct {
	MaxPerMinute int
	MaxPerHour   int
	MaxPerDay    int
}

// SpamConfig controls the auto-ban arrival window.
type SpamConfig struct {
	MaxMessages int
	Window      time.Duration
}

// AdminConfig holds the single configured credential pair.
type AdminConfig struct {
	Username     string
	PasswordHash string
	Password     string
}

// ScheduleConfig defines background job cadence and the active-hours window.
type ScheduleConfig struct {
	ActiveDays   []time.Weekday
	ActiveFrom   int
	ActiveTo     int
	AgingAfter   time.Duration
	AgingSpec    string
	ReminderSpec string
	BackupSpec   string
}

// ChannelsConfig configures the concrete transports.
type ChannelsConfig struct {
	Webhook  WebhookConfig
	Telegram TelegramConfig
}

// WebhookConfig configures the HTTP inbound/outbound channel.
type WebhookConfig struct {
	Enabled     bool
	JWTSecret   string
	OutboundURL string
	DedupTTL    time.Duration
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Enabled  bool
	BotToken string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	activeDays, err := parseWeekdays(getEnv("ACTIVE_DAYS", "Mon,Tue,Wed,Thu,Fri"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVE_DAYS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "support-intake-bot"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			BackupDir:      os.Getenv("BACKUP_DIR"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Bot: BotConfig{
			SelfID:           os.Getenv("BOT_SELF_ID"),
			GreetingWord:     getEnv("GREETING_WORD", "hello"),
			EscalationTarget: os.Getenv("ESCALATION_TARGET"),
			MediaMaxBytes:    int64(getEnvAsInt("MEDIA_MAX_BYTES", 10*1024*1024)),
		},
		RateLimit: RateLimitConfig{
			MaxPerMinute: getEnvAsInt("RATE_MAX_PER_MINUTE", 1),
			MaxPerHour:   getEnvAsInt("RATE_MAX_PER_HOUR", 5),
			MaxPerDay:    getEnvAsInt("RATE_MAX_PER_DAY", 20),
		},
		Spam: SpamConfig{
			MaxMessages: getEnvAsInt("SPAM_MAX_MESSAGES", 10),
			Window:      time.Duration(getEnvAsInt("SPAM_WINDOW_SECONDS", 60)) * time.Second,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			Password:     os.Getenv("ADMIN_PASSWORD"),
		},
		Schedule: ScheduleConfig{
			ActiveDays:   activeDays,
			ActiveFrom:   getEnvAsInt("ACTIVE_HOUR_FROM", 9),
			ActiveTo:     getEnvAsInt("ACTIVE_HOUR_TO", 18),
			AgingAfter:   time.Duration(getEnvAsInt("AGING_AFTER_HOURS", 24)) * time.Hour,
			AgingSpec:    getEnv("AGING_CRON", "0 0 * * * *"),
			ReminderSpec: getEnv("REMINDER_CRON", "0 0 10 * * *"),
			BackupSpec:   getEnv("BACKUP_CRON", "0 30 3 * * *"),
		},
		Channels: ChannelsConfig{
			Webhook: WebhookConfig{
				Enabled:     getEnvAsBool("WEBHOOK_ENABLED", true),
				JWTSecret:   getEnv("WEBHOOK_JWT_SECRET", "dev-secret"),
				OutboundURL: os.Getenv("WEBHOOK_OUTBOUND_URL"),
				DedupTTL:    time.Duration(getEnvAsInt("WEBHOOK_DEDUP_TTL_SECONDS", 600)) * time.Second,
			},
			Telegram: TelegramConfig{
				Enabled:  getEnvAsBool("TELEGRAM_ENABLED", false),
				BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			},
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// InActiveWindow reports whether t falls inside the configured active hours.
func (s ScheduleConfig) InActiveWindow(t time.Time) bool {
	dayOK := false
	for _, d := range s.ActiveDays {
		if t.Weekday() == d {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false
	}
	return t.Hour() >= s.ActiveFrom && t.Hour() < s.ActiveTo
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		day, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
