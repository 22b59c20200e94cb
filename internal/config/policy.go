package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PolicyConfig holds operational knobs that may change without a redeploy.
type PolicyConfig struct {
	Sync    SyncPolicy    `mapstructure:"sync"`
	Receipt ReceiptPolicy `mapstructure:"receipt"`
}

// SyncPolicy controls the scheduled rent back-fill sweep.
type SyncPolicy struct {
	// Schedule is a cron expression with a seconds field, evaluated in UTC.
	Schedule string `mapstructure:"schedule"`
	// BackfillMonths caps how far back a single sweep will accrue missing
	// rent. Zero means no cap: every month since the joining date is billed.
	BackfillMonths int `mapstructure:"backfillMonths"`
	BatchSize      int `mapstructure:"batchSize"`
}

// ReceiptPolicy controls payment receipt rendering.
type ReceiptPolicy struct {
	Title      string `mapstructure:"title"`
	FooterNote string `mapstructure:"footerNote"`
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Sync: SyncPolicy{
			Schedule:       "0 30 2 * * *",
			BackfillMonths: 0,
			BatchSize:      100,
		},
		Receipt: ReceiptPolicy{
			Title:      "Rent Payment Receipt",
			FooterNote: "This is a computer generated receipt.",
		},
	}
}

type PolicyConfigHolder struct {
	current atomic.Value // holds PolicyConfig
}

func NewPolicyConfigHolder() (*PolicyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentledger/config")
	v.AddConfigPath("/etc/rentledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicyConfig()
	v.SetDefault("policy.sync", defaults.Sync)
	v.SetDefault("policy.receipt", defaults.Receipt)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PolicyConfig
	if err := v.UnmarshalKey("policy", &cfg); err != nil {
		return nil, err
	}
	if err := validatePolicyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PolicyConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PolicyConfig
		if err := v.UnmarshalKey("policy", &updated); err != nil {
			log.Printf("[policy-config] reload failed: %v", err)
			return
		}
		if err := validatePolicyConfig(updated); err != nil {
			log.Printf("[policy-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[policy-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPolicyConfigHolder wraps a fixed config with no file watching.
func NewStaticPolicyConfigHolder(cfg PolicyConfig) *PolicyConfigHolder {
	holder := &PolicyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PolicyConfigHolder) Get() PolicyConfig {
	return h.current.Load().(PolicyConfig)
}

func validatePolicyConfig(cfg PolicyConfig) error {
	if strings.TrimSpace(cfg.Sync.Schedule) == "" {
		return errors.New("policy.sync.schedule cannot be empty")
	}
	if cfg.Sync.BackfillMonths < 0 {
		return errors.New("policy.sync.backfillMonths cannot be negative")
	}
	if cfg.Sync.BatchSize <= 0 {
		return errors.New("policy.sync.batchSize must be positive")
	}
	return nil
}
