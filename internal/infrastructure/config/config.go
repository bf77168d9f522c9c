package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Session store
	DBDriver string `mapstructure:"DB_DRIVER"` // "sqlite" or "postgres"
	DBDSN    string `mapstructure:"DB_DSN"`    // empty selects the driver's default

	// Datasets
	ManifestPath  string        `mapstructure:"MANIFEST_PATH"`
	LoaderWorkers int           `mapstructure:"LOADER_WORKERS"`
	FetchTimeout  time.Duration `mapstructure:"FETCH_TIMEOUT"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

// Load reads configuration from defaults, an optional config.yaml found in
// one of searchPaths (the working directory when none are given), a .env
// file, and the environment, in increasing order of precedence.
func Load(searchPaths ...string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("MANIFEST_PATH", "datasets/manifest.yaml")
	v.SetDefault("LOADER_WORKERS", 4)
	v.SetDefault("FETCH_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: DB_DRIVER=%q must be sqlite or postgres", c.DBDriver)
	}
	if c.ServerAddress == "" {
		return errors.New("config: SERVER_ADDRESS is empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT=%s must be positive", c.ShutdownTimeout)
	}
	if c.LoaderWorkers < 1 {
		return fmt.Errorf("config: LOADER_WORKERS=%d must be at least 1", c.LoaderWorkers)
	}
	return nil
}
