package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string   `mapstructure:"mode"`
	Port       int      `mapstructure:"port"`
	StaticPath string   `mapstructure:"static_path"`
	Secret     string   `mapstructure:"secret"`
	Label      string   `mapstructure:"label"`
	ICEURLs    []string `mapstructure:"ice_urls"`

	// ReliableTTL is how long a reliable-message ID is remembered for
	// duplicate suppression; SweepEvery is how many dedup insertions pass
	// between amortized sweeps.
	ReliableTTL  time.Duration `mapstructure:"reliable_ttl"`
	SweepEvery   int           `mapstructure:"sweep_every"`
	DebugAsserts bool          `mapstructure:"debug_asserts"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 9208)
	v.SetDefault("static_path", "./web")
	v.SetDefault("label", "geckos.io")
	v.SetDefault("ice_urls", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("reliable_ttl", "15s")
	v.SetDefault("sweep_every", 100)
	v.SetDefault("debug_asserts", false)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Label: %s | TTL: %s\n", cfg.Mode, cfg.Port, cfg.Label, cfg.ReliableTTL)
	return &cfg, nil
}
