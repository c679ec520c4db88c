package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SplitPercentages is a four-way stakeholder split, expressed in percent.
type SplitPercentages struct {
	Coach      float64 `mapstructure:"coach"`
	Facility   float64 `mapstructure:"facility"`
	Management float64 `mapstructure:"management"`
	Retained   float64 `mapstructure:"retained"`
}

// SplitsConfig carries the session-type default splits and the discount
// matching vocabulary. Values are reloadable at runtime so finance can tune
// them without a redeploy.
type SplitsConfig struct {
	GroupDefaults   SplitPercentages `mapstructure:"groupDefaults"`
	PrivateDefaults SplitPercentages `mapstructure:"privateDefaults"`
	Stopwords       []string         `mapstructure:"stopwords"`
	SpecialKeywords []string         `mapstructure:"specialKeywords"`
}

func DefaultSplitsConfig() SplitsConfig {
	return SplitsConfig{
		GroupDefaults:   SplitPercentages{Coach: 43.5, Facility: 30, Management: 8.5, Retained: 18},
		PrivateDefaults: SplitPercentages{Coach: 80, Facility: 15, Management: 0, Retained: 5},
		Stopwords: []string{
			"the", "and", "for", "with", "per", "pack", "package",
			"membership", "monthly", "weekly", "session", "sessions",
		},
		SpecialKeywords: []string{"loyalty", "mindbody", "freedom", "staff", "boxing"},
	}
}

// SplitsConfigHolder exposes the current SplitsConfig behind an atomic swap.
type SplitsConfigHolder struct {
	current atomic.Value // holds SplitsConfig
}

// NewSplitsConfigHolder loads splits.yml (if present) and watches it for
// changes. A missing file falls back to defaults; an invalid reload is
// ignored and logged, keeping the last good config active.
func NewSplitsConfigHolder(cfg Config) (*SplitsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("splits")
	v.SetConfigType("yml")
	if cfg.SplitsConfigPath != "" {
		v.AddConfigPath(cfg.SplitsConfigPath)
	}
	v.AddConfigPath("/etc/studioledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STUDIOLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSplitsConfig()
	v.SetDefault("splits.groupDefaults", defaults.GroupDefaults)
	v.SetDefault("splits.privateDefaults", defaults.PrivateDefaults)
	v.SetDefault("splits.stopwords", defaults.Stopwords)
	v.SetDefault("splits.specialKeywords", defaults.SpecialKeywords)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var splits SplitsConfig
	if err := v.UnmarshalKey("splits", &splits); err != nil {
		return nil, err
	}
	if err := validateSplitsConfig(splits); err != nil {
		return nil, err
	}

	holder := &SplitsConfigHolder{}
	holder.current.Store(splits)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SplitsConfig
		if err := v.UnmarshalKey("splits", &updated); err != nil {
			log.Printf("[splits-config] reload failed: %v", err)
			return
		}
		if err := validateSplitsConfig(updated); err != nil {
			log.Printf("[splits-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[splits-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SplitsConfigHolder) Get() SplitsConfig {
	return h.current.Load().(SplitsConfig)
}

func validateSplitsConfig(cfg SplitsConfig) error {
	if cfg.GroupDefaults == (SplitPercentages{}) {
		return errors.New("splits.groupDefaults cannot be empty")
	}
	if cfg.PrivateDefaults == (SplitPercentages{}) {
		return errors.New("splits.privateDefaults cannot be empty")
	}
	return nil
}
