package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuntimeConfig holds operational knobs that can change without a restart.
type RuntimeConfig struct {
	// SignupDefaultPlan is the plan assigned to newly registered companies.
	SignupDefaultPlan string `mapstructure:"signupDefaultPlan"`

	// LoginRatePerMinute limits login attempts per client.
	LoginRatePerMinute int `mapstructure:"loginRatePerMinute"`

	// ToggleRatePerMinute limits module enable/disable calls per company.
	ToggleRatePerMinute int `mapstructure:"toggleRatePerMinute"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		SignupDefaultPlan:   "starter",
		LoginRatePerMinute:  10,
		ToggleRatePerMinute: 30,
	}
}

// RuntimeConfigHolder serves the current runtime config and hot-reloads it
// when the backing file changes.
type RuntimeConfigHolder struct {
	current atomic.Value // holds RuntimeConfig
}

func NewRuntimeConfigHolder() (*RuntimeConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("runtime")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/shiplane/config")
	v.AddConfigPath("/etc/shiplane")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SHIPLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRuntimeConfig()
		v.SetDefault("runtime.signupDefaultPlan", defaults.SignupDefaultPlan)
		v.SetDefault("runtime.loginRatePerMinute", defaults.LoginRatePerMinute)
		v.SetDefault("runtime.toggleRatePerMinute", defaults.ToggleRatePerMinute)
	}

	var cfg RuntimeConfig
	if err := v.UnmarshalKey("runtime", &cfg); err != nil {
		return nil, err
	}
	if err := validateRuntimeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RuntimeConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RuntimeConfig
		if err := v.UnmarshalKey("runtime", &updated); err != nil {
			log.Printf("[runtime-config] reload failed: %v", err)
			return
		}
		if err := validateRuntimeConfig(updated); err != nil {
			log.Printf("[runtime-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// Current returns the active runtime config.
func (h *RuntimeConfigHolder) Current() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if strings.TrimSpace(cfg.SignupDefaultPlan) == "" {
		return errors.New("runtime config: signupDefaultPlan is required")
	}
	if cfg.LoginRatePerMinute < 0 || cfg.ToggleRatePerMinute < 0 {
		return errors.New("runtime config: rate limits must not be negative")
	}
	return nil
}
