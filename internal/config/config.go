package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/recurrence"
)

const EnvPrefix = "CALENDARD"

var ErrInvalidConfig = errors.New("config: invalid value")

type OverlapPolicy string

const (
	OverlapWarn  OverlapPolicy = "warn"
	OverlapBlock OverlapPolicy = "block"
)

func (p OverlapPolicy) IsValid() bool {
	return p == OverlapWarn || p == OverlapBlock
}

type Config struct {
	DBPath             string        `mapstructure:"db_path"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFile            string        `mapstructure:"log_file"`
	Timezone           string        `mapstructure:"timezone"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	NotificationBuffer int           `mapstructure:"notification_buffer"`
	OverlapPolicy      OverlapPolicy `mapstructure:"overlap_policy"`
	DesktopAlerts      bool          `mapstructure:"desktop_notifications"`
	Recurrence         Recurrence    `mapstructure:"recurrence"`
}

type Recurrence struct {
	Cutoff         string `mapstructure:"cutoff"`
	MaxOccurrences int    `mapstructure:"max_occurrences"`
	MaxSkips       int    `mapstructure:"max_skips"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "calendard.db")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("notification_buffer", 64)
	v.SetDefault("overlap_policy", string(OverlapWarn))
	v.SetDefault("desktop_notifications", false)
	v.SetDefault("recurrence.cutoff", recurrence.DefaultCutoff.String())
	v.SetDefault("recurrence.max_occurrences", recurrence.DefaultMaxOccurrences)
	v.SetDefault("recurrence.max_skips", recurrence.DefaultMaxSkips)
}

// Load reads defaults, then the config file, then CALENDARD_* variables.
// An empty path looks for calendard.{yaml,json,toml} in the working
// directory and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("calendard")
		v.AddConfigPath(".")
	}

	var conf Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return conf, fmt.Errorf("config: read: %w", err)
		}
	}
	if err := v.Unmarshal(&conf); err != nil {
		return conf, fmt.Errorf("config: decode: %w", err)
	}
	conf.OverlapPolicy = OverlapPolicy(strings.ToLower(strings.TrimSpace(string(conf.OverlapPolicy))))
	return conf, conf.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db_path is empty", ErrInvalidConfig)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("%w: poll_interval %s is below 1s", ErrInvalidConfig, c.PollInterval)
	}
	if c.NotificationBuffer <= 0 {
		return fmt.Errorf("%w: notification_buffer must be positive", ErrInvalidConfig)
	}
	if !c.OverlapPolicy.IsValid() {
		return fmt.Errorf("%w: overlap_policy %q", ErrInvalidConfig, c.OverlapPolicy)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Recurrence.Limits(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

func (r Recurrence) Limits() (recurrence.Limits, error) {
	cutoff, err := dates.Parse(r.Cutoff)
	if err != nil {
		return recurrence.Limits{}, fmt.Errorf("%w: recurrence.cutoff %q", ErrInvalidConfig, r.Cutoff)
	}
	if r.MaxOccurrences <= 0 {
		return recurrence.Limits{}, fmt.Errorf("%w: recurrence.max_occurrences must be positive", ErrInvalidConfig)
	}
	if r.MaxSkips <= 0 {
		return recurrence.Limits{}, fmt.Errorf("%w: recurrence.max_skips must be positive", ErrInvalidConfig)
	}
	return recurrence.Limits{Cutoff: cutoff, MaxOccurrences: r.MaxOccurrences, MaxSkips: r.MaxSkips}, nil
}
