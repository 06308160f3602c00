package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Strategy names accepted by [AnalysisConfig.Strategy].
const (
	StrategyNumeric    = "numeric"
	StrategyGenerative = "generative"
)

// Generator names accepted by [AnalysisConfig.Generator].
const (
	GeneratorGemini = "gemini"
	GeneratorOllama = "ollama"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	Upstream    UpstreamConfig    `toml:"upstream"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Ollama  OllamaConfig  `toml:"ollama"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// GeminiConfig contains the text-generation service credential and model.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// OllamaConfig points at a self-hosted Ollama instance.
type OllamaConfig struct {
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	UIOrigin string `toml:"ui_origin"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AnalysisConfig selects the mood aggregation strategy.
type AnalysisConfig struct {
	Strategy  string `toml:"strategy"`
	Generator string `toml:"generator"`
}

// UpstreamConfig contains settings shared by all outbound HTTP calls.
type UpstreamConfig struct {
	APIBaseURL      string  `toml:"api_base_url"`
	AccountsBaseURL string  `toml:"accounts_base_url"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	RateLimit       float64 `toml:"rate_limit"`
}

// Timeout returns the per-call deadline, zero meaning none.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads a dotenv file into the process environment. A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with any recognized variables returned by lookup.
//
// Pass [os.LookupEnv] in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	str("SPOTIFY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI)
	str("FRONTEND_URI", &c.Server.UIOrigin)
	str("GEMINI_API_KEY", &c.Credentials.Gemini.APIKey)
	str("OLLAMA_HOST", &c.Credentials.Ollama.Host)
	str("VIBECAST_STRATEGY", &c.Analysis.Strategy)
	str("VIBECAST_GENERATOR", &c.Analysis.Generator)
	str("VIBECAST_DB_PATH", &c.Database.Path)
	str("VIBECAST_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	return nil
}

// Validate checks the settings every command depends on.
//
// A missing generative credential is deliberately not checked here: the generative strategy reports it per request.
func (c *Config) Validate() error {
	var problems []string

	if c.Credentials.Spotify.ClientID == "" {
		problems = append(problems, "spotify client_id is empty")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		problems = append(problems, "spotify client_secret is empty")
	}

	switch c.Analysis.Strategy {
	case StrategyNumeric, StrategyGenerative:
	default:
		problems = append(problems, fmt.Sprintf("unknown analysis strategy %q", c.Analysis.Strategy))
	}

	switch c.Analysis.Generator {
	case GeneratorGemini, GeneratorOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown generator %q", c.Analysis.Generator))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d", c.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
