package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/PabloGalante/vision-relay/internal/observability"
)

type Backend string

const (
	BackendAssistants Backend = "assistants"
	BackendVertex     Backend = "vertex"
	BackendMock       Backend = "mock"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageFirestore StorageBackend = "firestore"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = "5000"
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultBeta            = "assistants=v1"
	defaultHTTPTimeout     = 60 * time.Second
	defaultPollInterval    = 1500 * time.Millisecond
	defaultPollMaxAttempts = 200
	defaultPollTimeout     = 5 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxUploadBytes  = 20 << 20
	defaultGCPLocation     = "us-central1"
	defaultModelName       = "gemini-2.5-flash"
)

type Config struct {
	Host string
	Port string

	Backend Backend

	// Assistants API
	APIKey        string
	AssistantID   string
	BaseURL       string
	BetaHeader    string
	HTTPTimeout   time.Duration
	DeleteThreads bool

	PollInterval    time.Duration
	PollMaxAttempts int // 0 = unbounded
	PollTimeout     time.Duration

	AssistantsFile string // optional YAML catalog

	// Vertex backend and Firestore ledger
	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend StorageBackend

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	LogFormat     string // "json" o "text"
	LogLevel      slog.Level
	TraceExporter string // "none" o "stdout"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDurationEnv(key string, def time.Duration, allowZero bool) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("parse %s: value must be > 0", key)
	}
	return d, nil
}

func getIntEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse %s: value must be >= 0", key)
	}
	return n, nil
}

// LoadDotEnv loads the given .env files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	cfg := &Config{
		Host: getEnv("VISION_HOST", defaultHost),
		Port: getEnv("VISION_PORT", defaultPort),

		Backend: Backend(strings.ToLower(getEnv("VISION_BACKEND", string(BackendAssistants)))),

		APIKey:      getEnv("VISION_API_KEY", ""),
		AssistantID: getEnv("VISION_ASSISTANT_ID", ""),
		BaseURL:     getEnv("VISION_API_BASE_URL", defaultBaseURL),
		BetaHeader:  getEnv("VISION_API_BETA", defaultBeta),

		AssistantsFile: getEnv("VISION_ASSISTANTS_FILE", ""),

		GCPProjectID: getEnv("VISION_GCP_PROJECT", ""),
		GCPLocation:  getEnv("VISION_GCP_LOCATION", defaultGCPLocation),
		ModelName:    getEnv("VISION_MODEL_NAME", defaultModelName),

		StorageBackend: StorageBackend(strings.ToLower(getEnv("VISION_STORAGE_BACKEND", string(StorageMemory)))),

		LogFormat:     strings.ToLower(getEnv("VISION_LOG_FORMAT", "json")),
		TraceExporter: strings.ToLower(getEnv("VISION_TRACE_EXPORTER", "none")),
	}

	var err error
	if cfg.HTTPTimeout, err = getDurationEnv("VISION_HTTP_TIMEOUT", defaultHTTPTimeout, false); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDurationEnv("VISION_POLL_INTERVAL", defaultPollInterval, false); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = getDurationEnv("VISION_POLL_TIMEOUT", defaultPollTimeout, true); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDurationEnv("VISION_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, false); err != nil {
		return nil, err
	}
	if cfg.PollMaxAttempts, err = getIntEnv("VISION_POLL_MAX_ATTEMPTS", defaultPollMaxAttempts); err != nil {
		return nil, err
	}
	maxUpload, err := getIntEnv("VISION_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.DeleteThreads, err = getBoolEnv("VISION_DELETE_THREADS", false); err != nil {
		return nil, err
	}

	cfg.LogLevel = slog.LevelInfo
	if v := getEnv("VISION_LOG_LEVEL", ""); v != "" {
		level, ok := observability.ParseLevel(v)
		if !ok {
			return nil, fmt.Errorf("parse VISION_LOG_LEVEL: unknown level %q", v)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAssistants:
		if c.APIKey == "" {
			return errors.New("validate config: assistants backend requires VISION_API_KEY")
		}
		if c.AssistantID == "" && c.AssistantsFile == "" {
			return errors.New("validate config: assistants backend requires VISION_ASSISTANT_ID or VISION_ASSISTANTS_FILE")
		}
		if c.BaseURL == "" {
			return errors.New("validate config: assistants backend requires VISION_API_BASE_URL")
		}
	case BackendVertex:
		if c.GCPProjectID == "" {
			return errors.New("validate config: vertex backend requires VISION_GCP_PROJECT")
		}
	case BackendMock:
	default:
		return fmt.Errorf(
			"validate config: unsupported VISION_BACKEND %q (allowed: %q, %q, %q)",
			c.Backend, BackendAssistants, BackendVertex, BackendMock,
		)
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return errors.New("validate config: firestore storage requires VISION_GCP_PROJECT")
		}
	default:
		return fmt.Errorf(
			"validate config: unsupported VISION_STORAGE_BACKEND %q (allowed: %q, %q)",
			c.StorageBackend, StorageMemory, StorageFirestore,
		)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("validate config: unsupported VISION_LOG_FORMAT %q (allowed: \"json\", \"text\")", c.LogFormat)
	}

	switch c.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("validate config: unsupported VISION_TRACE_EXPORTER %q (allowed: \"none\", \"stdout\")", c.TraceExporter)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("validate config: VISION_MAX_UPLOAD_BYTES must be > 0")
	}
	return nil
}
