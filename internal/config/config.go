package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	EngineNetHTTP  = "nethttp"
	EngineFastHTTP = "fasthttp"
)

// SourceConfig describes one dataset's upstreams and fetch policy.
type SourceConfig struct {
	URL           string
	SecondaryURLs []string
	APIKey        string
	Timeout       time.Duration
	MinInterval   time.Duration
	CacheTTL      time.Duration
	Retries       int
	RetryBackoff  time.Duration
}

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	InternalJobToken   string
	SwaggerEnabled     bool

	DatastoreDriver   string
	DatastorePath     string
	DatastoreMaxBytes int64
	DatastoreCacheTTL time.Duration
	DBURL             string
	// DBDisablePreparedBinary appends disable_prepared_binary_result=yes for
	// poolers that cannot carry binary results across prepared statements.
	DBDisablePreparedBinary bool

	SourceHTTPEngine            string
	SourceCircuitEnabled        bool
	SourceCircuitFailureCount   int
	SourceCircuitOpenTimeout    time.Duration
	SourceCircuitHalfOpenMaxReq int

	Football          SourceConfig
	FootballDaysAhead int
	UFC               SourceConfig
	UFCHydrateCards   bool
	UFCHydrateWorkers int
	ChannelMapFile    string
	CacheMaxBytes     int64

	EvictFootballGrace time.Duration
	EvictUFCDuration   time.Duration
	EvictUFCGrace      time.Duration

	SchedulerEnabled        bool
	FootballRefreshInterval time.Duration
	UFCRefreshInterval      time.Duration
	CleanupInterval         time.Duration

	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// LoadDotEnv seeds the process environment from the given files. Missing
// files are skipped and variables already set are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files %v: %w", existing, err)
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "sportsapp"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		DatastorePath:      strings.TrimSpace(getEnv("DATASTORE_PATH", "./data/sportsapp.json")),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		ChannelMapFile:     strings.TrimSpace(getEnv("CHANNEL_MAP_FILE", "")),
		PprofAddr:          strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}

	if cfg.SwaggerEnabled, err = getEnvAsBool("SWAGGER_ENABLED", "true"); err != nil {
		return Config{}, err
	}

	cfg.DatastoreDriver = strings.ToLower(strings.TrimSpace(getEnv("DATASTORE_DRIVER", DriverFile)))
	switch cfg.DatastoreDriver {
	case DriverFile:
		if cfg.DatastorePath == "" {
			return Config{}, fmt.Errorf("DATASTORE_PATH is required when DATASTORE_DRIVER=file")
		}
	case DriverPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when DATASTORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("invalid DATASTORE_DRIVER %q: valid values are %s, %s, %s", cfg.DatastoreDriver, DriverFile, DriverPostgres, DriverMemory)
	}
	if cfg.DatastoreMaxBytes, err = getEnvAsInt64("DATASTORE_MAX_BYTES", 5<<20); err != nil {
		return Config{}, err
	}
	if cfg.DatastoreCacheTTL, err = getEnvAsDuration("DATASTORE_CACHE_TTL", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", "true"); err != nil {
		return Config{}, err
	}
	if cfg.CacheMaxBytes, err = getEnvAsInt64("CACHE_MAX_BYTES", 2<<20); err != nil {
		return Config{}, err
	}

	cfg.SourceHTTPEngine = strings.ToLower(strings.TrimSpace(getEnv("SOURCE_HTTP_ENGINE", EngineNetHTTP)))
	if cfg.SourceHTTPEngine != EngineNetHTTP && cfg.SourceHTTPEngine != EngineFastHTTP {
		return Config{}, fmt.Errorf("invalid SOURCE_HTTP_ENGINE %q: valid values are %s, %s", cfg.SourceHTTPEngine, EngineNetHTTP, EngineFastHTTP)
	}
	if cfg.SourceCircuitEnabled, err = getEnvAsBool("SOURCE_CIRCUIT_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.SourceCircuitFailureCount, err = getEnvAsInt("SOURCE_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, err
	}
	if cfg.SourceCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SOURCE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.SourceCircuitOpenTimeout, err = getEnvAsDuration("SOURCE_CIRCUIT_OPEN_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.SourceCircuitHalfOpenMaxReq, err = getEnvAsInt("SOURCE_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return Config{}, err
	}
	if cfg.SourceCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SOURCE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	if cfg.Football, err = loadSourceConfig("FOOTBALL", sourceDefaults{
		url:         "https://www.live-footballontv.com/",
		timeout:     "15s",
		minInterval: "10s",
		cacheTTL:    "15m",
		retries:     1,
	}); err != nil {
		return Config{}, err
	}
	if cfg.FootballDaysAhead, err = getEnvAsInt("FOOTBALL_DAYS_AHEAD", 0); err != nil {
		return Config{}, err
	}
	if cfg.FootballDaysAhead < 0 || cfg.FootballDaysAhead > 14 {
		return Config{}, fmt.Errorf("FOOTBALL_DAYS_AHEAD must be between 0 and 14")
	}

	if cfg.UFC, err = loadSourceConfig("UFC", sourceDefaults{
		url:         "https://www.ufc.com/events",
		timeout:     "30s",
		minInterval: "5s",
		cacheTTL:    "30m",
		retries:     2,
	}); err != nil {
		return Config{}, err
	}
	if cfg.UFCHydrateCards, err = getEnvAsBool("UFC_HYDRATE_CARDS", "true"); err != nil {
		return Config{}, err
	}
	if cfg.UFCHydrateWorkers, err = getEnvAsInt("UFC_HYDRATE_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.UFCHydrateWorkers < 1 {
		return Config{}, fmt.Errorf("UFC_HYDRATE_WORKERS must be >= 1")
	}

	if cfg.EvictFootballGrace, err = getEnvAsDuration("EVICT_FOOTBALL_GRACE", "3h"); err != nil {
		return Config{}, err
	}
	if cfg.EvictUFCDuration, err = getEnvAsDuration("EVICT_UFC_DURATION", "5h"); err != nil {
		return Config{}, err
	}
	if cfg.EvictUFCGrace, err = getEnvAsDuration("EVICT_UFC_GRACE", "3h"); err != nil {
		return Config{}, err
	}

	if cfg.SchedulerEnabled, err = getEnvAsBool("SCHEDULER_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.FootballRefreshInterval, err = getEnvAsDuration("FOOTBALL_REFRESH_INTERVAL", "30m"); err != nil {
		return Config{}, err
	}
	if cfg.UFCRefreshInterval, err = getEnvAsDuration("UFC_REFRESH_INTERVAL", "6h"); err != nil {
		return Config{}, err
	}
	if cfg.CleanupInterval, err = getEnvAsDuration("CLEANUP_INTERVAL", "1h"); err != nil {
		return Config{}, err
	}

	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type sourceDefaults struct {
	url         string
	timeout     string
	minInterval string
	cacheTTL    string
	retries     int
}

func loadSourceConfig(prefix string, defaults sourceDefaults) (SourceConfig, error) {
	var (
		out SourceConfig
		err error
	)

	out.URL = strings.TrimSpace(getEnv(prefix+"_SOURCE_URL", defaults.url))
	if err := validateSourceURL(prefix+"_SOURCE_URL", out.URL); err != nil {
		return SourceConfig{}, err
	}
	out.SecondaryURLs = splitCSV(getEnv(prefix+"_SECONDARY_URLS", ""))
	for _, raw := range out.SecondaryURLs {
		if err := validateSourceURL(prefix+"_SECONDARY_URLS", raw); err != nil {
			return SourceConfig{}, err
		}
	}
	out.APIKey = strings.TrimSpace(getEnv(prefix+"_API_KEY", ""))

	if out.Timeout, err = getEnvAsDuration(prefix+"_TIMEOUT", defaults.timeout); err != nil {
		return SourceConfig{}, err
	}
	if out.MinInterval, err = getEnvAsDuration(prefix+"_MIN_INTERVAL", defaults.minInterval); err != nil {
		return SourceConfig{}, err
	}
	if out.CacheTTL, err = getEnvAsDuration(prefix+"_CACHE_TTL", defaults.cacheTTL); err != nil {
		return SourceConfig{}, err
	}
	if out.RetryBackoff, err = getEnvAsDuration(prefix+"_RETRY_BACKOFF", "2s"); err != nil {
		return SourceConfig{}, err
	}
	if out.Retries, err = getEnvAsInt(prefix+"_RETRIES", defaults.retries); err != nil {
		return SourceConfig{}, err
	}
	if out.Retries < 0 {
		return SourceConfig{}, fmt.Errorf("%s_RETRIES must be >= 0", prefix)
	}
	return out, nil
}

func validateSourceURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) url", key, raw)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// getEnvAsDuration rejects zero and negative durations.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
