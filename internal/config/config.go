package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Gateway backends.
const (
	BackendHTTP   = "http"
	BackendOpenAI = "openai"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GatewayConfig selects and configures the LLM backend.
type GatewayConfig struct {
	Backend           string   `yaml:"backend"`
	Endpoint          string   `yaml:"endpoint"`
	APIKey            string   `yaml:"-"` // env-only, never in YAML
	BaseURL           string   `yaml:"base_url"`
	ModelName         string   `yaml:"model_name"`
	Temperature       float64  `yaml:"temperature"`
	TopP              float64  `yaml:"top_p"`
	MaxOutputTokens   int      `yaml:"max_output_tokens"`
	SystemInstruction string   `yaml:"system_instruction"`
	UserMetadata      string   `yaml:"user_metadata"`
	Timeout           Duration `yaml:"timeout"`
}

// GenerationConfig bounds the number of ideas per request.
type GenerationConfig struct {
	DefaultCount int `yaml:"default_count"`
	MaxCount     int `yaml:"max_count"`
}

// AuthConfig contains authentication settings.
// An empty APIKey leaves the mutating routes open.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotConfig controls periodic database backups.
// A zero Interval disables the snapshot worker.
type SnapshotConfig struct {
	Interval Duration              `yaml:"interval"`
	Path     string                `yaml:"path"`
	Storage  SnapshotStorageConfig `yaml:"storage"`
}

// SnapshotStorageConfig contains S3-compatible storage settings.
// An empty Bucket keeps snapshots local.
type SnapshotStorageConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Bucket    string   `yaml:"bucket"`
	Region    string   `yaml:"region"`
	Prefix    string   `yaml:"prefix"`
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence:
// defaults → YAML file → .env file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("GENSCRIPT_CONFIG_PATH", "config/genscript.yaml")
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	if err := loadDotEnv(getEnv("GENSCRIPT_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(120 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/genscript.db",
		},
		Gateway: GatewayConfig{
			Backend:         BackendHTTP,
			ModelName:       "gemini-2.0-flash",
			Temperature:     0.7,
			TopP:            0.95,
			MaxOutputTokens: 8192,
			Timeout:         Duration(90 * time.Second),
		},
		Generation: GenerationConfig{
			DefaultCount: 10,
			MaxCount:     50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			Interval: Duration(1 * time.Hour),
			Path:     "data/snapshots/genscript.db",
			Storage: SnapshotStorageConfig{
				URLExpiry: Duration(15 * time.Minute),
			},
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv populates the process environment from a .env file.
// Variables already set in the environment win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("GENSCRIPT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setDuration("GENSCRIPT_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("GENSCRIPT_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("GENSCRIPT_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("GENSCRIPT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Gateway
	if v := os.Getenv("GENSCRIPT_GATEWAY_BACKEND"); v != "" {
		cfg.Gateway.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("GENSCRIPT_API_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if v := os.Getenv("GENSCRIPT_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	// OPENAI_API_KEY is industry convention
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Gateway.APIKey == "" && cfg.Gateway.Backend == BackendOpenAI {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("GENSCRIPT_OPENAI_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("GENSCRIPT_MODEL_NAME"); v != "" {
		cfg.Gateway.ModelName = v
	}
	setDuration("GENSCRIPT_GATEWAY_TIMEOUT", &cfg.Gateway.Timeout)

	// Generation
	setInt("GENSCRIPT_DEFAULT_COUNT", &cfg.Generation.DefaultCount)
	setInt("GENSCRIPT_MAX_COUNT", &cfg.Generation.MaxCount)

	// Auth
	if v := os.Getenv("GENSCRIPT_AUTH_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("GENSCRIPT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GENSCRIPT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Snapshot
	setDuration("GENSCRIPT_SNAPSHOT_INTERVAL", &cfg.Snapshot.Interval)
	if v := os.Getenv("GENSCRIPT_SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("GENSCRIPT_SNAPSHOT_BUCKET"); v != "" {
		cfg.Snapshot.Storage.Bucket = v
	}
	if v := os.Getenv("GENSCRIPT_S3_ENDPOINT"); v != "" {
		cfg.Snapshot.Storage.Endpoint = v
	}
	if v := os.Getenv("GENSCRIPT_S3_REGION"); v != "" {
		cfg.Snapshot.Storage.Region = v
	}
	if v := os.Getenv("GENSCRIPT_S3_ACCESS_KEY"); v != "" {
		cfg.Snapshot.Storage.AccessKey = v
	}
	if v := os.Getenv("GENSCRIPT_S3_SECRET_KEY"); v != "" {
		cfg.Snapshot.Storage.SecretKey = v
	}
	setDuration("GENSCRIPT_S3_URL_EXPIRY", &cfg.Snapshot.Storage.URLExpiry)
	if v := os.Getenv("GENSCRIPT_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Snapshot.Storage.UseSSL = &b
		}
	}
}

func setDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// validate checks structural settings that every command depends on.
// Gateway credentials are checked separately by ValidateGateway.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Generation.MaxCount < 1 {
		return fmt.Errorf("generation.max_count must be at least 1, got %d", c.Generation.MaxCount)
	}
	if c.Generation.DefaultCount < 1 || c.Generation.DefaultCount > c.Generation.MaxCount {
		return fmt.Errorf("generation.default_count must be between 1 and %d, got %d",
			c.Generation.MaxCount, c.Generation.DefaultCount)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Snapshot.Interval < 0 {
		return errors.New("snapshot.interval must not be negative")
	}
	return nil
}

// ValidateGateway checks that the selected backend has what it needs to
// make requests. Commands that never call the gateway skip this.
func (c *Config) ValidateGateway() error {
	switch c.Gateway.Backend {
	case BackendHTTP:
		if c.Gateway.Endpoint == "" {
			return errors.New("GENSCRIPT_API_ENDPOINT is required for the http gateway backend")
		}
	case BackendOpenAI:
		if c.Gateway.APIKey == "" {
			return errors.New("GENSCRIPT_API_KEY or OPENAI_API_KEY is required for the openai gateway backend")
		}
	default:
		return fmt.Errorf("unknown gateway backend %q (want %s or %s)", c.Gateway.Backend, BackendHTTP, BackendOpenAI)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
