package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultPort          = "8080"
	defaultEnv           = "local"
	defaultTokenTTL      = 24 * time.Hour
	defaultChatTimeout   = 30 * time.Second
	defaultChatRateLimit = 20
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultExpoPushURL   = "https://exp.host/--/api/v2/push/send"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	JWTSecret string
	TokenTTL  time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	ChatTimeout   time.Duration

	RedisURL      string
	ChatRateLimit int

	SentryDSN string

	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	SendGridAPIKey string
	MailFrom       string

	ExpoPushURL      string
	SchedulerEnabled bool
}

// New sets up all config related services. Values come from the
// environment, optionally seeded from a .env file in the working directory.
func New() *Config {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	env := getEnv("APP_ENV", defaultEnv)

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getEnv("PORT", defaultPort),
		Env:          env,

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getDuration("TOKEN_TTL", defaultTokenTTL),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
		ChatTimeout:   getDuration("CHAT_TIMEOUT", defaultChatTimeout),

		RedisURL:      os.Getenv("REDIS_URL"),
		ChatRateLimit: getInt("CHAT_RATE_LIMIT", defaultChatRateLimit),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnv("MAIL_FROM", "reminders@medassist.app"),

		ExpoPushURL:      getEnv("EXPO_PUSH_URL", defaultExpoPushURL),
		SchedulerEnabled: getBool("SCHEDULER_ENABLED", true),
	}
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "DB_URI")
	}
	if c.DatabaseName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Server side failures are also sent to
// sentry when it has been initialised.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	if httpStatusCode >= http.StatusInternalServerError && err != nil {
		sentry.CaptureException(fmt.Errorf("%s: %w", message, err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnw("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
