// Package config loads the livetrack YAML configuration.
package config

import(
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/units"
)

const(
	DefaultAddr  = ":8080"
	DefaultLevel = "info"
)

// {{{ types

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	TimeZone string `yaml:"timezone"` // for popup dates; UTC when empty
}

// SourceConfig says where the trackers snapshot comes from. Only the fields
// of the chosen kind are used.
type SourceConfig struct {
	Kind      string `yaml:"kind" validate:"required,oneof=http file gcs mqtt proxy"`
	URL       string `yaml:"url" validate:"required_if=Kind http"` // base; the snapshot path is resolved against it
	Path      string `yaml:"path" validate:"required_if=Kind file"`
	Bucket    string `yaml:"bucket" validate:"required_if=Kind gcs"`
	Object    string `yaml:"object"`
	Broker    string `yaml:"broker" validate:"required_if=Kind mqtt"`
	Topic     string `yaml:"topic" validate:"required_if=Kind mqtt"`
	ClientID  string `yaml:"clientID"`
	ProxyURL  string `yaml:"proxyURL"` // kind proxy: fetch url through this relay, with proxy.key
}

type DisplayConfig struct {
	DisplayNames *bool        `yaml:"displayNames"`
	Units        units.System `yaml:"units"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"` // stderr when empty
}

type ProxyConfig struct {
	Addr string `yaml:"addr"`
	Key  string `yaml:"key" validate:"required_with=Addr"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
	Proxy   ProxyConfig   `yaml:"proxy"`
}

// }}}
// {{{ Load, Parse

func Load(path string) (*Config, error) {
	data,err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration, then fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse/yaml: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Parse/validate: %w", err)
	}
	if cfg.Source.Kind == "proxy" && (cfg.Source.URL == "" || cfg.Source.ProxyURL == "" || cfg.Proxy.Key == "") {
		return nil, fmt.Errorf("config.Parse/source: kind proxy needs url, proxyURL and proxy.key")
	}
	if cfg.Server.TimeZone != "" {
		if _,err := time.LoadLocation(cfg.Server.TimeZone); err != nil {
			return nil, fmt.Errorf("config.Parse/timezone: %w", err)
		}
	}

	if cfg.Server.Addr == "" { cfg.Server.Addr = DefaultAddr }
	if cfg.Log.Level == "" { cfg.Log.Level = DefaultLevel }
	if cfg.Source.ClientID == "" { cfg.Source.ClientID = "livetrack" }
	cfg.Display.Units = cfg.Display.Units.Normalized()

	return &cfg, nil
}

// }}}
// {{{ cfg.Preferences, cfg.Location

// Preferences are the display defaults for a new viewer.
func (cfg *Config)Preferences() lt.DisplayPreferences {
	p := lt.DefaultPreferences
	if cfg.Display.DisplayNames != nil { p.DisplayNames = *cfg.Display.DisplayNames }
	p.Units = cfg.Display.Units.Normalized()
	return p
}

func (cfg *Config)Location() *time.Location {
	if cfg.Server.TimeZone == "" { return time.UTC }
	loc,err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil { return time.UTC }
	return loc
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
