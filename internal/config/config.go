package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Redis      RedisConfig
	DB         DBConfig
	LLM        LLMConfig
	Generation GenerationConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	BodyLimit      int
}

type LoggerConfig struct {
	Level string
	Env   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// LLMConfig configures the model client.
type LLMConfig struct {
	// Provider is one of "openai", "ollama" or "mock".
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	ServerURL  string // ollama only
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Temperature is sent only to model families that accept it.
	Temperature float64
}

// GenerationConfig bounds the content and the model output of one run.
type GenerationConfig struct {
	MaxContentChars      int
	MinContentChars      int
	BaseCompletionTokens int
	TokensPerQuestion    int
	MaxCompletionTokens  int
}

type RateLimitConfig struct {
	Enabled bool
	PerHour int64
	Window  time.Duration
	// ByIP keys anonymous HTTP callers by client address.
	ByIP    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 600)
	v.SetDefault("server.request_timeout", 600)
	v.SetDefault("server.body_limit", 10*1024*1024)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("db.port", 1521)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", 180)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", 5)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("generation.max_content_chars", 100000)
	v.SetDefault("generation.min_content_chars", 50)
	v.SetDefault("generation.base_completion_tokens", 1000)
	v.SetDefault("generation.tokens_per_question", 400)
	v.SetDefault("generation.max_completion_tokens", 16000)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.per_hour", 30)
	v.SetDefault("ratelimit.window", 3600)
	v.SetDefault("ratelimit.by_ip", false)
}

// LoadConfig reads config.yaml (when present) and the environment.
// A missing config file is not an error: defaults and env vars are enough to
// run the service.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	config := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout:   v.GetDuration("server.write_timeout") * time.Second,
			RequestTimeout: v.GetDuration("server.request_timeout") * time.Second,
			BodyLimit:      v.GetInt("server.body_limit"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			ServerURL:   v.GetString("llm.server_url"),
			Timeout:     v.GetDuration("llm.timeout") * time.Second,
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay") * time.Second,
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Generation: GenerationConfig{
			MaxContentChars:      v.GetInt("generation.max_content_chars"),
			MinContentChars:      v.GetInt("generation.min_content_chars"),
			BaseCompletionTokens: v.GetInt("generation.base_completion_tokens"),
			TokensPerQuestion:    v.GetInt("generation.tokens_per_question"),
			MaxCompletionTokens:  v.GetInt("generation.max_completion_tokens"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("ratelimit.enabled"),
			PerHour: v.GetInt64("ratelimit.per_hour"),
			Window:  v.GetDuration("ratelimit.window") * time.Second,
			ByIP:    v.GetBool("ratelimit.by_ip"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = openAIKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" && config.LLM.BaseURL == "" {
		config.LLM.BaseURL = baseURL
	}

	return config
}

// HasDatabase reports whether enough DB settings are present to connect.
func (c *Config) HasDatabase() bool {
	return c.DB.Host != "" && c.DB.User != "" && c.DB.DBName != ""
}

func (c *Config) GetDSN() string {
	// Oracle DSN format: user/password@host:port/service
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
