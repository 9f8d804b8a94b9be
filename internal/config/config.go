package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	UI       UIConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ImportConfig bounds analyzer and preview work per request.
type ImportConfig struct {
	SampleSize  int    `mapstructure:"sample_size"`
	MaxRows     int    `mapstructure:"max_rows"`
	FormatsFile string `mapstructure:"formats_file"`
}

// UIConfig holds presentation defaults exposed through the settings
// endpoint. Values stored via PUT /settings override them per install.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string
}

// Load reads configuration from file and env. Env var overrides use prefix BUCKETD_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8288")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "bucketd", "bucketd.db"))
	v.SetDefault("import.sample_size", 20)
	v.SetDefault("import.max_rows", 10000)
	v.SetDefault("import.formats_file", "")
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Australia/Melbourne")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BUCKETD_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "bucketd"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BUCKETD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
