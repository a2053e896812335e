// Package config loads runtime settings from an optional YAML file, a .env
// file and the environment. Environment variables use the key with dots
// replaced by underscores, e.g. session.ttl is SESSION_TTL.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"netusage/internal/core"
	logpkg "netusage/internal/log"
)

type Config struct {
	Port    string        `mapstructure:"port"`
	Log     LogConfig     `mapstructure:"log"`
	Data    DataConfig    `mapstructure:"data"`
	Session SessionConfig `mapstructure:"session"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Events  EventsConfig  `mapstructure:"events"`
	AMQP    AMQPConfig    `mapstructure:"amqp"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Google  GoogleConfig  `mapstructure:"google"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DataConfig struct {
	DefaultCSV     string `mapstructure:"default_csv"`
	DefaultUnit    string `mapstructure:"default_unit"`
	UploadMaxBytes int64  `mapstructure:"upload_max_bytes"`
}

type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	CookieName string        `mapstructure:"cookie_name"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type EventsConfig struct {
	Backend string `mapstructure:"backend"`
}

type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type GoogleConfig struct {
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	Range              string `mapstructure:"range"`
	ServiceAccountFile string `mapstructure:"service_account_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// Options points Load at explicit files. Empty values use the defaults:
// ./.env and netusage.yaml in . or ./config.
type Options struct {
	ConfigFile string
	EnvFile    string
}

const (
	EventsNone = "none"
	EventsAMQP = "amqp"
	EventsMQTT = "mqtt"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("data.default_csv", "usage/you_usage.csv")
	v.SetDefault("data.default_unit", string(core.MB))
	v.SetDefault("data.upload_max_bytes", int64(32<<20))
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.max_entries", 256)
	v.SetDefault("session.cookie_name", "netusage_session")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("events.backend", EventsNone)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "netusage")
	v.SetDefault("amqp.routing_key", "dataset.loaded")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "netusage")
	v.SetDefault("mqtt.topic_prefix", "netusage")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("google.spreadsheet_id", "")
	v.SetDefault("google.range", "")
	v.SetDefault("google.service_account_file", "")
	v.SetDefault("google.service_account_json", "")
}

// Load reads configuration and validates it.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("netusage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	c.Events.Backend = strings.ToLower(strings.TrimSpace(c.Events.Backend))
	if c.Events.Backend == "" {
		c.Events.Backend = EventsNone
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Google.SpreadsheetID = strings.TrimSpace(c.Google.SpreadsheetID)
	c.Google.Range = strings.TrimSpace(c.Google.Range)
}

// DefaultUnit returns the configured display unit, MB when unset.
func (c *Config) DefaultUnit() core.Unit {
	u, err := core.ParseUnit(c.Data.DefaultUnit)
	if err != nil {
		return core.MB
	}
	return u
}

// SheetsConfigured reports whether a Google Sheets source can be built.
func (c *Config) SheetsConfigured() bool {
	return c.Google.SpreadsheetID != "" && c.Google.Range != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if _, err := core.ParseUnit(c.Data.DefaultUnit); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default unit '%s': must be one of MB, GB, TB", c.Data.DefaultUnit))
	}
	if c.Data.UploadMaxBytes <= 0 {
		errors = append(errors, fmt.Sprintf("invalid upload max bytes %d: must be positive", c.Data.UploadMaxBytes))
	}

	if c.Session.TTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid session ttl %s: must be positive", c.Session.TTL))
	}
	if c.Session.MaxEntries < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max entries %d: must be at least 1", c.Session.MaxEntries))
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		errors = append(errors, "session cookie name cannot be empty")
	}

	switch c.Events.Backend {
	case EventsNone:
	case EventsAMQP:
		if c.AMQP.URL == "" {
			errors = append(errors, "AMQP URL is required when events backend is amqp")
		} else if u, err := url.Parse(c.AMQP.URL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when events backend is amqp")
		}
	case EventsMQTT:
		if c.MQTT.Broker == "" {
			errors = append(errors, "MQTT broker is required when events backend is mqtt")
		} else if u, err := url.Parse(c.MQTT.Broker); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid MQTT broker '%s': expected scheme://host:port", c.MQTT.Broker))
		}
		if c.MQTT.TopicPrefix == "" {
			errors = append(errors, "MQTT topic prefix cannot be empty when events backend is mqtt")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid events backend '%s': must be one of [none amqp mqtt]", c.Events.Backend))
	}

	if c.Google.SpreadsheetID != "" || c.Google.Range != "" {
		if c.Google.SpreadsheetID == "" {
			errors = append(errors, "Google spreadsheet id is required when a sheet range is set")
		}
		if c.Google.Range == "" {
			errors = append(errors, "Google sheet range is required when a spreadsheet id is set")
		}
		if f := c.Google.ServiceAccountFile; f != "" {
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file '%s' does not exist", f))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
