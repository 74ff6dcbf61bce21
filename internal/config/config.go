package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"mini_thermostat/internal/models"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "THERMOSTAT"

// Defaults applied when neither the file nor the environment sets a key.
const (
	DefaultPort         = "8080"
	DefaultDBPath       = "app.db"
	DefaultPollInterval = 5 * time.Second
	DefaultHostTimeout  = 10 * time.Second
	DefaultTokenTTL     = time.Hour
)

type Config struct {
	Port string     `mapstructure:"port"`
	DB   DBConfig   `mapstructure:"db"`
	Log  LogConfig  `mapstructure:"log"`
	Auth AuthConfig `mapstructure:"auth"`
	Host HostConfig `mapstructure:"host"`

	// Card is activated on startup when no configuration was persisted yet.
	Card *models.CardConfig `mapstructure:"card"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// HostConfig points at the home-automation host. An empty BaseURL disables
// polling and service calls; commands are then only recorded.
type HostConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads configs/config.yml, or path when set, and applies THERMOSTAT_*
// environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", DefaultTokenTTL)
	v.SetDefault("host.base_url", "")
	v.SetDefault("host.token", "")
	v.SetDefault("host.poll_interval", DefaultPollInterval)
	v.SetDefault("host.timeout", DefaultHostTimeout)
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(presetButtonsHook),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

var presetButtonsType = reflect.TypeOf(models.PresetButtons{})

// presetButtonsHook accepts preset_buttons either as a shorthand string or
// as a list of button maps.
func presetButtonsHook(from, to reflect.Type, data any) (any, error) {
	if to != presetButtonsType {
		return data, nil
	}
	switch raw := data.(type) {
	case string:
		return models.PresetButtons{Shorthand: raw}, nil
	case []any:
		var buttons []models.PresetButton
		if err := mapstructure.Decode(raw, &buttons); err != nil {
			return nil, fmt.Errorf("preset_buttons: %w", err)
		}
		return models.PresetButtons{Buttons: buttons}, nil
	default:
		return data, nil
	}
}

// LoadCardFile reads a single card configuration from a YAML or JSON file.
func LoadCardFile(path string) (models.CardConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.CardConfig{}, fmt.Errorf("read card file: %w", err)
	}
	return ParseCard(b)
}

// ParseCard decodes a card configuration. JSON input is accepted as YAML.
func ParseCard(b []byte) (models.CardConfig, error) {
	var cfg models.CardConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return models.CardConfig{}, fmt.Errorf("parse card: %w", err)
	}
	return cfg, nil
}
