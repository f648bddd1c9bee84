package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/loganalyzer/pkg/models"
	"github.com/spf13/viper"
)

// Config holds all configuration for a loganalyzer invocation.
type Config struct {
	Run      RunConfig
	Log      LogConfig
	Output   OutputConfig
	AI       AIConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
}

// RunConfig describes what to analyze.
type RunConfig struct {
	File       string
	ConfigFile string
	Lines      int
}

type LogConfig struct {
	File  string
	Level string
}

type OutputConfig struct {
	File string
	Save bool
}

type AIConfig struct {
	Backend string
	Ollama  OllamaConfig
	OpenAI  OpenAIConfig
}

// Timeout is the request timeout of the selected backend.
func (c AIConfig) Timeout() time.Duration {
	if c.Backend == string(models.BackendOpenAI) {
		return c.OpenAI.Timeout
	}
	return c.Ollama.Timeout
}

type OllamaConfig struct {
	Host    string
	Port    int
	Model   string
	Timeout time.Duration
}

// BaseURL is the root of the Ollama HTTP API.
func (c OllamaConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// DatabaseConfig enables run history when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the completion cache when URL is set.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type ServerConfig struct {
	Port         int
	APIKeyHash   string
	RateLimit    int
	MaxBodyBytes int64
}

// Keys shared by flags, env vars and Load.
const (
	KeyFile        = "file"
	KeyConfigFile  = "config"
	KeyLines       = "lines"
	KeyBackend     = "backend"
	KeyHost        = "host"
	KeyPort        = "port"
	KeyModel       = "model"
	KeyOpenAIModel = "openai-model"
	KeyOutput      = "output"
	KeySave        = "save"
	KeyLogFile     = "log-file"
	KeyLogLevel    = "log-level"
	KeyDatabaseURL = "database-url"
	KeyRedisURL    = "redis-url"
	KeyListen      = "listen"

	keyOllamaTimeout   = "ollama-timeout"
	keyOpenAIAPIKey    = "openai-api-key"
	keyOpenAIBaseURL   = "openai-base-url"
	keyOpenAIMaxTokens = "openai-max-tokens"
	keyOpenAITimeout   = "openai-timeout"
	keyCacheTTL        = "cache-ttl"
	keyAPIKeyHash      = "api-key-hash"
	keyRateLimit       = "rate-limit"
	keyDBMaxOpen       = "database-max-open-conns"
	keyDBMaxIdle       = "database-max-idle-conns"
	keyDBMaxLifetime   = "database-conn-max-lifetime"
)

// New returns a viper instance with defaults applied and environment
// overrides enabled (LOGANALYZER_LINES, LOGANALYZER_DATABASE_URL, ...).
// OPENAI_API_KEY is read without the prefix.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("LOGANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLines, 10)
	v.SetDefault(KeyBackend, string(models.BackendOllama))
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyPort, 11434)
	v.SetDefault(KeyModel, "llama3.2")
	v.SetDefault(KeyOpenAIModel, "gpt-4o")
	v.SetDefault(KeyOutput, "llm-responses.txt")
	v.SetDefault(KeySave, false)
	v.SetDefault(KeyLogFile, "log-analyzer.log")
	v.SetDefault(KeyLogLevel, "debug")
	v.SetDefault(KeyListen, 8080)

	v.SetDefault(keyOllamaTimeout, 60*time.Second)
	v.SetDefault(keyOpenAIMaxTokens, 2048)
	v.SetDefault(keyOpenAITimeout, 300*time.Second)
	v.SetDefault(keyCacheTTL, 24*time.Hour)
	v.SetDefault(keyRateLimit, 60)
	v.SetDefault(keyDBMaxOpen, 5)
	v.SetDefault(keyDBMaxIdle, 1)
	v.SetDefault(keyDBMaxLifetime, 5*time.Minute)

	_ = v.BindEnv(keyOpenAIAPIKey, "OPENAI_API_KEY")
	_ = v.BindEnv(keyOpenAIBaseURL, "OPENAI_BASE_URL")

	return v
}

// LoadLog reads only the log settings, so the log file can be opened
// before the rest of the configuration is validated.
func LoadLog(v *viper.Viper) LogConfig {
	return LogConfig{
		File:  v.GetString(KeyLogFile),
		Level: v.GetString(KeyLogLevel),
	}
}

// Load reads every setting from v and returns a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Run: RunConfig{
			File:       v.GetString(KeyFile),
			ConfigFile: v.GetString(KeyConfigFile),
			Lines:      v.GetInt(KeyLines),
		},
		Log: LoadLog(v),
		Output: OutputConfig{
			File: v.GetString(KeyOutput),
			Save: v.GetBool(KeySave),
		},
		AI: AIConfig{
			Backend: v.GetString(KeyBackend),
			Ollama: OllamaConfig{
				Host:    v.GetString(KeyHost),
				Port:    v.GetInt(KeyPort),
				Model:   v.GetString(KeyModel),
				Timeout: v.GetDuration(keyOllamaTimeout),
			},
			OpenAI: OpenAIConfig{
				APIKey:    v.GetString(keyOpenAIAPIKey),
				BaseURL:   v.GetString(keyOpenAIBaseURL),
				Model:     v.GetString(KeyOpenAIModel),
				MaxTokens: v.GetInt(keyOpenAIMaxTokens),
				Timeout:   v.GetDuration(keyOpenAITimeout),
			},
		},
		Database: DatabaseConfig{
			URL:             v.GetString(KeyDatabaseURL),
			MaxOpenConns:    v.GetInt(keyDBMaxOpen),
			MaxIdleConns:    v.GetInt(keyDBMaxIdle),
			ConnMaxLifetime: v.GetDuration(keyDBMaxLifetime),
		},
		Redis: RedisConfig{
			URL:      v.GetString(KeyRedisURL),
			CacheTTL: v.GetDuration(keyCacheTTL),
		},
		Server: ServerConfig{
			Port:         v.GetInt(KeyListen),
			APIKeyHash:   v.GetString(keyAPIKeyHash),
			RateLimit:    v.GetInt(keyRateLimit),
			MaxBodyBytes: 4 << 20,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireInputs checks the settings a single analysis run needs.
// serve only needs a template, so it is not part of validate.
func (c *Config) RequireInputs() error {
	if c.Run.File == "" {
		return fmt.Errorf("--file is required")
	}
	if c.Run.ConfigFile == "" {
		return fmt.Errorf("--config is required")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Run.Lines < 1 {
		return fmt.Errorf("--lines must be at least 1, got %d", c.Run.Lines)
	}

	if c.AI.Backend == "" {
		return fmt.Errorf("--backend is required")
	}
	backend, err := models.ParseBackend(c.AI.Backend)
	if err != nil {
		return fmt.Errorf("--backend: %w", err)
	}

	if c.AI.Ollama.Port < 1 || c.AI.Ollama.Port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535, got %d", c.AI.Ollama.Port)
	}
	if c.AI.Ollama.Host == "" {
		return fmt.Errorf("--host is required")
	}
	if backend == models.BackendOllama && c.AI.Ollama.Model == "" {
		return fmt.Errorf("--model is required when backend is ollama")
	}
	if backend == models.BackendOpenAI && c.AI.OpenAI.Model == "" {
		return fmt.Errorf("--openai-model is required when backend is openai")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("--listen must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Output.Save && c.Output.File == "" {
		return fmt.Errorf("--output is required when --save is set")
	}

	if c.Database.URL != "" &&
		!strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("--database-url must start with postgres:// or postgresql://")
	}
	if c.Redis.URL != "" &&
		!strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("--redis-url must start with redis:// or rediss://")
	}

	return nil
}
