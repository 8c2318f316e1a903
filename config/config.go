package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type RetrievalConfig struct {
	BaseURL  string        `mapstructure:"baseURL"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RPS      int           `mapstructure:"rps"`
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type WebSearchConfig struct {
	BaseURL    string        `mapstructure:"baseURL"`
	APIKey     string        `mapstructure:"apiKey"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RPS        int           `mapstructure:"rps"`
	MaxResults int           `mapstructure:"maxResults"`
	WindowDays int           `mapstructure:"windowDays"`
	Locale     string        `mapstructure:"locale"`
	Country    string        `mapstructure:"country"`
	CacheTTL   time.Duration `mapstructure:"cacheTTL"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"apiKey"`
	BaseURL  string        `mapstructure:"baseURL"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CurationConfig struct {
	City                  string  `mapstructure:"city"`
	AnchorLatitude        float64 `mapstructure:"anchorLatitude"`
	AnchorLongitude       float64 `mapstructure:"anchorLongitude"`
	BackfillRadiusKm      float64 `mapstructure:"backfillRadiusKm"`
	SelectionMaxAttempts  int     `mapstructure:"selectionMaxAttempts"`
	SelectionTemperature  float32 `mapstructure:"selectionTemperature"`
	EnhanceTemperature    float32 `mapstructure:"enhanceTemperature"`
	SummaryTemperature    float32 `mapstructure:"summaryTemperature"`
	RecordLLMInteractions bool    `mapstructure:"recordLLMInteractions"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	WebSearch WebSearchConfig `mapstructure:"websearch"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Curation  CurationConfig  `mapstructure:"curation"`
}

// secretKeys are bound to environment variables so credentials never have
// to live in config.yml.
var secretKeys = map[string]string{
	"jwt.secretKey":                  "JWT_SECRET_KEY",
	"llm.apiKey":                     "LLM_API_KEY",
	"websearch.apiKey":               "WEBSEARCH_API_KEY",
	"repositories.postgres.password": "POSTGRES_PASSWORD",
	"repositories.redis.password":    "REDIS_PASSWORD",
	"retrieval.baseURL":              "RETRIEVAL_BASE_URL",
	"websearch.baseURL":              "WEBSEARCH_BASE_URL",
	"repositories.postgres.host":     "POSTGRES_HOST",
	"repositories.redis.addr":        "REDIS_ADDR",
	"llm.provider":                   "LLM_PROVIDER",
	"llm.model":                      "LLM_MODEL",
	"handlers.prometheus.port":       "METRICS_PORT",
	"server.HTTPPort":                "HTTP_PORT",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secretKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate fills defaults for optional tuning knobs and rejects settings the
// service cannot run without.
func (c *Config) Validate() error {
	if c.Retrieval.BaseURL == "" {
		return fmt.Errorf("retrieval.baseURL is required")
	}
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "8000"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 60 * time.Second
	}
	if c.Retrieval.Timeout <= 0 {
		c.Retrieval.Timeout = 8 * time.Second
	}
	if c.WebSearch.Timeout <= 0 {
		c.WebSearch.Timeout = 8 * time.Second
	}
	if c.WebSearch.WindowDays <= 0 {
		c.WebSearch.WindowDays = 30
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 45 * time.Second
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai":
	default:
		return fmt.Errorf("llm.provider must be gemini or openai, got %q", c.LLM.Provider)
	}
	if c.Curation.BackfillRadiusKm <= 0 {
		c.Curation.BackfillRadiusKm = 2
	}
	if c.Curation.SelectionMaxAttempts <= 0 {
		c.Curation.SelectionMaxAttempts = 2
	}
	return nil
}

const (
	sourceSlack  = 2 * time.Second
	requestSlack = 5 * time.Second
)

// SourceWait bounds how long generation waits on the catalog and web search.
// Retrieval may issue two searches for venue requests, so it sits above both
// client timeouts.
func (c *Config) SourceWait() time.Duration {
	return max(c.Retrieval.Timeout, c.WebSearch.Timeout) + sourceSlack
}

// RequestTimeout is the per-request deadline. It is never shorter than a
// generation that uses every selection attempt followed by enhancement.
func (c *Config) RequestTimeout() time.Duration {
	llmCalls := time.Duration(c.Curation.SelectionMaxAttempts + 1)
	pipeline := c.SourceWait() + llmCalls*c.LLM.Timeout + requestSlack
	return max(c.Server.Timeout, pipeline)
}
