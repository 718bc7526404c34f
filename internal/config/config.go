package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gilangnh/matchday/internal/platform/resilience"
)

const (
	TrackingBackendPostgres = "postgres"
	TrackingBackendMemory   = "memory"
)

// Config stores runtime configuration for the service. Everything comes from
// the environment (optionally seeded from a .env file); there are no ambient
// globals.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	TrackingBackend string
	DBURL           string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LeagueCatalogPath string

	ESPNBaseURL    string
	ESPNTimeout    time.Duration
	ESPNMaxRetries int
	ESPNCircuit    resilience.CircuitBreakerConfig

	TelegramBaseURL        string
	TelegramToken          string
	TelegramChannelID      string
	TelegramPersonalChatID string
	TelegramHeartbeatText  string
	TelegramTimeout        time.Duration
	TelegramMaxRetries     int
	TelegramRetryDelay     time.Duration
	TelegramCircuit        resilience.CircuitBreakerConfig

	GeminiEnabled bool
	GeminiAPIKey  string
	GeminiModel   string

	WindowTimezone  string
	WindowLocation  *time.Location
	WindowStartHour int

	ReconcileInterval   time.Duration
	HeartbeatEnabled    bool
	HeartbeatInterval   time.Duration
	KickoffGrace        time.Duration
	CompletionThreshold time.Duration

	AcquireWorkers   int
	ReconcileWorkers int

	InternalJobToken string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAuthToken     string
	PyroscopeAppName       string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, values already exported win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		ServiceName:            getEnv("APP_SERVICE_NAME", "matchday-bot"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                  strings.TrimSpace(getEnv("DB_URL", "")),
		RedisAddr:              strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		LeagueCatalogPath:      getEnv("LEAGUE_CATALOG_PATH", "leagues.json"),
		ESPNBaseURL:            getEnv("ESPN_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/soccer"),
		TelegramBaseURL:        getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		TelegramToken:          strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		TelegramChannelID:      strings.TrimSpace(getEnv("TELEGRAM_CHANNEL_ID", "")),
		TelegramPersonalChatID: strings.TrimSpace(getEnv("TELEGRAM_PERSONAL_CHAT_ID", "")),
		TelegramHeartbeatText:  getEnv("TELEGRAM_HEARTBEAT_TEXT", "💓 matchday heartbeat"),
		GeminiAPIKey:           strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		WindowTimezone:         getEnv("WINDOW_TIMEZONE", "Asia/Kolkata"),
		InternalJobToken:       strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceDSN:             strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
	}

	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.TelegramChannelID == "" {
		return Config{}, fmt.Errorf("TELEGRAM_CHANNEL_ID is required")
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("TRACKING_STORE", TrackingBackendPostgres)))
	switch backend {
	case TrackingBackendPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when TRACKING_STORE=postgres")
		}
	case TrackingBackendMemory:
	default:
		return Config{}, fmt.Errorf("TRACKING_STORE must be %q or %q", TrackingBackendPostgres, TrackingBackendMemory)
	}
	cfg.TrackingBackend = backend

	var err error
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.ESPNTimeout, err = getEnvAsDuration("ESPN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ESPNMaxRetries, err = getEnvAsInt("ESPN_MAX_RETRIES", 2); err != nil {
		return Config{}, err
	}
	if cfg.ESPNMaxRetries < 0 {
		return Config{}, fmt.Errorf("ESPN_MAX_RETRIES must be >= 0")
	}
	if cfg.ESPNCircuit, err = getEnvAsCircuit("ESPN"); err != nil {
		return Config{}, err
	}

	if cfg.TelegramTimeout, err = getEnvAsDuration("TELEGRAM_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TelegramMaxRetries, err = getEnvAsInt("TELEGRAM_MAX_RETRIES", 5); err != nil {
		return Config{}, err
	}
	if cfg.TelegramMaxRetries < 1 {
		return Config{}, fmt.Errorf("TELEGRAM_MAX_RETRIES must be >= 1")
	}
	if cfg.TelegramRetryDelay, err = getEnvAsDuration("TELEGRAM_RETRY_DELAY", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TelegramCircuit, err = getEnvAsCircuit("TELEGRAM"); err != nil {
		return Config{}, err
	}

	if cfg.GeminiEnabled, err = getEnvAsBool("GEMINI_ENABLED", cfg.GeminiAPIKey != ""); err != nil {
		return Config{}, err
	}
	if cfg.GeminiEnabled && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY is required when GEMINI_ENABLED=true")
	}

	if cfg.WindowStartHour, err = getEnvAsInt("WINDOW_START_HOUR", 14); err != nil {
		return Config{}, err
	}
	if cfg.WindowStartHour < 0 || cfg.WindowStartHour > 23 {
		return Config{}, fmt.Errorf("WINDOW_START_HOUR must be between 0 and 23")
	}
	if cfg.WindowLocation, err = time.LoadLocation(cfg.WindowTimezone); err != nil {
		return Config{}, fmt.Errorf("parse WINDOW_TIMEZONE: %w", err)
	}

	if cfg.ReconcileInterval, err = getEnvAsDuration("RECONCILE_INTERVAL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_INTERVAL must be > 0")
	}
	if cfg.HeartbeatEnabled, err = getEnvAsBool("HEARTBEAT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.HeartbeatInterval, err = getEnvAsDuration("HEARTBEAT_INTERVAL", 4*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.KickoffGrace, err = getEnvAsDuration("KICKOFF_GRACE", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CompletionThreshold, err = getEnvAsDuration("COMPLETION_THRESHOLD", 110*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.KickoffGrace <= 0 || cfg.CompletionThreshold <= cfg.KickoffGrace {
		return Config{}, fmt.Errorf("COMPLETION_THRESHOLD must be greater than KICKOFF_GRACE, both > 0")
	}

	if cfg.AcquireWorkers, err = getEnvAsInt("ACQUIRE_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.AcquireWorkers < 1 {
		return Config{}, fmt.Errorf("ACQUIRE_WORKERS must be >= 1")
	}
	if cfg.ReconcileWorkers, err = getEnvAsInt("RECONCILE_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileWorkers < 1 {
		return Config{}, fmt.Errorf("RECONCILE_WORKERS must be >= 1")
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = getEnv("PPROF_ADDR", "localhost:6060")

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := getEnvAsBool(prefix+"_CIRCUIT_ENABLED", defaults.Enabled)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}
