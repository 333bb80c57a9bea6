package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds every tunable of an analysis run. Values come from
// environment variables (SKAELVOX_ prefix), an optional config file,
// and the defaults below, in ascending precedence.
type Settings struct {
	SubscriptionID string `mapstructure:"subscription_id"`
	TenantID       string `mapstructure:"tenant_id"`

	LookbackDays int `mapstructure:"lookback_days"`
	Workers      int `mapstructure:"workers"`

	VMTimeoutSeconds    int `mapstructure:"vm_timeout_seconds"`
	BatchTimeoutMinutes int `mapstructure:"batch_timeout_minutes"`

	// Scoring policy.
	LowCPUThreshold   float64 `mapstructure:"low_cpu_threshold"`
	HighCPUThreshold  float64 `mapstructure:"high_cpu_threshold"`
	ShrinkFactor      float64 `mapstructure:"shrink_factor"`
	GrowFactor        float64 `mapstructure:"grow_factor"`
	GenerationLeap    int     `mapstructure:"generation_leap"`
	AllowOlderThanTarget bool `mapstructure:"allow_older_than_target"`
	SameFamilyOnly    bool    `mapstructure:"same_family_only"`
	ExcludeBurstable  bool    `mapstructure:"exclude_burstable"`
	CheckDisks        bool    `mapstructure:"check_disks"`
	CheckNetwork      bool    `mapstructure:"check_network"`

	WeightPrice       float64 `mapstructure:"weight_price"`
	WeightPerformance float64 `mapstructure:"weight_performance"`
	WeightGeneration  float64 `mapstructure:"weight_generation"`
	WeightFeatures    float64 `mapstructure:"weight_features"`

	// AI adapter.
	AIEnabled      bool   `mapstructure:"ai_enabled"`
	AIAPIKey       string `mapstructure:"ai_api_key"`
	AIModel        string `mapstructure:"ai_model"`
	AIBaseURL      string `mapstructure:"ai_base_url"`
	AIMaxParallel  int64  `mapstructure:"ai_max_parallel"`

	// Optional report persistence.
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// Web server.
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads settings from the environment and an optional config
// file path ("" means env and defaults only).
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SKAELVOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so
	// keys without a default must be bound explicitly or their env
	// values never reach Unmarshal.
	for _, key := range []string{"subscription_id", "tenant_id", "ai_api_key", "postgres_dsn"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.SetDefault("lookback_days", 30)
	v.SetDefault("workers", 10)
	v.SetDefault("vm_timeout_seconds", 60)
	v.SetDefault("batch_timeout_minutes", 5)
	v.SetDefault("low_cpu_threshold", 20.0)
	v.SetDefault("high_cpu_threshold", 80.0)
	v.SetDefault("shrink_factor", 0.5)
	v.SetDefault("grow_factor", 1.5)
	v.SetDefault("generation_leap", 2)
	v.SetDefault("allow_older_than_target", true)
	v.SetDefault("same_family_only", false)
	v.SetDefault("exclude_burstable", true)
	v.SetDefault("check_disks", true)
	v.SetDefault("check_network", true)
	v.SetDefault("weight_price", 0.35)
	v.SetDefault("weight_performance", 0.25)
	v.SetDefault("weight_generation", 0.20)
	v.SetDefault("weight_features", 0.20)
	v.SetDefault("ai_enabled", false)
	v.SetDefault("ai_model", "claude-sonnet-4-20250514")
	v.SetDefault("ai_base_url", "https://api.anthropic.com")
	v.SetDefault("ai_max_parallel", 5)
	v.SetDefault("listen_addr", ":8080")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &s, nil
}
