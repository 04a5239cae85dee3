package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "AIVIS"

type Config struct {
	Server   ServerConfig
	OpenAI   OpenAIConfig
	Analysis AnalysisConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Stats    StatsConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port         int
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    float64
	RateBurst    int
	DevMode      bool
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
	SystemPrompt string
}

type AnalysisConfig struct {
	Pacing          time.Duration
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
	MaxCacheEntries int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StatsConfig struct {
	DataDir string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// LoadEnv loads .env.development, falling back to .env. Missing files are
// not an error; it reports which file was loaded, if any.
func LoadEnv() string {
	for _, name := range []string{".env.development", ".env"} {
		if err := godotenv.Load(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration from an optional config file and AIVIS_* environment
// variables on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The conventional variables win when set.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = key
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	case c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0:
		return errors.New("rate limit and burst must be positive")
	case c.Analysis.Pacing < 0:
		return errors.New("analysis pacing must not be negative")
	case c.Analysis.FetchTimeout <= 0:
		return errors.New("fetch timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second)
	v.SetDefault("server.rateLimit", 2)
	v.SetDefault("server.rateBurst", 5)
	v.SetDefault("server.devMode", false)

	v.SetDefault("openai.apiKey", "")
	v.SetDefault("openai.baseURL", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.maxTokens", 500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.systemPrompt", "You are a helpful assistant providing information about companies.")

	v.SetDefault("analysis.pacing", time.Second)
	v.SetDefault("analysis.fetchTimeout", 15*time.Second)
	v.SetDefault("analysis.cacheTTL", 30*time.Minute)
	v.SetDefault("analysis.maxCacheEntries", 1000)

	v.SetDefault("sqlite.path", "./data/ai_visibility.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stats.dataDir", "./data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
