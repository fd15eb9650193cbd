package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the answer relay
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Exa    ExaConfig    `mapstructure:"exa"`
	Relay  RelayConfig  `mapstructure:"relay"`
	Log    LogConfig    `mapstructure:"log"`
	Tracer TracerConfig `mapstructure:"tracer"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// ExaConfig holds upstream answer API configuration
type ExaConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	IncludeText  bool          `mapstructure:"include_text"` // full page text in citations
}

// RelayConfig holds streaming relay configuration
type RelayConfig struct {
	// MaxDuration bounds a whole relay request, enforced by the http.Server.
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// TracerConfig holds OpenTelemetry configuration
type TracerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // noop, stdout
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("EXAANSWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("exa.api_key", "EXAANSWER_EXA_API_KEY", "EXA_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("exa.api_key", "")
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("exa.model", "exa-pro")
	v.SetDefault("exa.timeout", 30*time.Second)
	v.SetDefault("exa.user_agent", "")
	v.SetDefault("exa.system_prompt", "")
	v.SetDefault("exa.include_text", false)

	v.SetDefault("relay.max_duration", 60*time.Second)

	v.SetDefault("log.development", false)

	v.SetDefault("tracer.enabled", false)
	v.SetDefault("tracer.exporter", "noop")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
