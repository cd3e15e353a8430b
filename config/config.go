package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int            `yaml:"port"`
	Language string         `yaml:"language"`
	Database DatabaseConfig `yaml:"database"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Weaviate WeaviateConfig `yaml:"weaviate"`
	Miniflux MinifluxConfig `yaml:"miniflux"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Auth     AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type WeaviateConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

type MinifluxConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	UserID   string `yaml:"user_id"`
	Interval string `yaml:"interval"`
}

type SweeperConfig struct {
	Schedule string `yaml:"schedule"`
}

// AuthConfig maps bearer tokens to user ids.
type AuthConfig struct {
	Tokens map[string]string `yaml:"tokens"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Port:     8080,
		Language: "en",
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "tubescribe",
			Password: "tubescribe",
			Database: "tubescribe",
		},
		Miniflux: MinifluxConfig{
			Interval: "1m",
		},
		Sweeper: SweeperConfig{
			Schedule: "*/15 * * * *",
		},
	}
}

func (c *Config) applyEnvOverrides() {
	setIfPresent := func(target *string, param string) {
		if val, ok := os.LookupEnv(param); ok {
			*target = val
		}
	}

	setIfPresent(&c.Database.Host, "POSTGRES_HOST")
	setIfPresent(&c.Database.Port, "POSTGRES_PORT")
	setIfPresent(&c.Database.User, "POSTGRES_USER")
	setIfPresent(&c.Database.Password, "POSTGRES_PASSWORD")
	setIfPresent(&c.Database.Database, "POSTGRES_DB")
	setIfPresent(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setIfPresent(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfPresent(&c.OpenAI.Model, "OPENAI_MODEL")
	setIfPresent(&c.Weaviate.Host, "WEAVIATE_HOST")
	setIfPresent(&c.Weaviate.APIKey, "WEAVIATE_APIKEY")
	setIfPresent(&c.Miniflux.Endpoint, "MINIFLUX_ENDPOINT")
	setIfPresent(&c.Miniflux.APIKey, "MINIFLUX_APIKEY")
	setIfPresent(&c.Miniflux.UserID, "MINIFLUX_USER_ID")
	setIfPresent(&c.Miniflux.Interval, "FETCH_INTERVAL")
	setIfPresent(&c.Sweeper.Schedule, "SWEEP_SCHEDULE")
}
