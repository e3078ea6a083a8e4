// Package config loads ls-sky settings from a YAML file, LS_SKY_*
// environment variables and an optional .env file, in rising precedence
// below command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/litescript/ls-sky/internal/forecast"
	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/starfield"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "LS_SKY"

// Keys.
const (
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyLatitude        = "latitude"
	KeyLongitude       = "longitude"
	KeyLocateURL       = "locate_url"
	KeyForecastURL     = "forecast_url"
	KeyFrameInterval   = "frame_interval"
	KeyModeInterval    = "mode_interval"
	KeyWeatherInterval = "weather_interval"
	KeyReducedMotion   = "reduced_motion"
	KeyMetricsAddr     = "metrics_addr"
	KeyOverridePath    = "override_path"
	KeyMinFPS          = "min_fps"
	KeyEnvFile         = "env_file"
)

// Config is the resolved configuration.
type Config struct {
	LogLevel string
	LogFile  string

	// Latitude and Longitude are used only when HasLocation is true;
	// otherwise the position comes from an IP lookup.
	Latitude    float64
	Longitude   float64
	HasLocation bool

	LocateURL   string
	ForecastURL string

	FrameInterval   time.Duration
	ModeInterval    time.Duration
	WeatherInterval time.Duration
	MinFPS          float64
	ReducedMotion   bool

	MetricsAddr  string
	OverridePath string

	// File is the config file that was read, if any.
	File string
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLocateURL, geo.DefaultLocateURL)
	v.SetDefault(KeyForecastURL, forecast.DefaultForecastURL)
	v.SetDefault(KeyFrameInterval, 25*time.Millisecond)
	v.SetDefault(KeyModeInterval, time.Minute)
	v.SetDefault(KeyWeatherInterval, 10*time.Minute)
	v.SetDefault(KeyMinFPS, starfield.DefaultMinFPS)
	v.SetDefault(KeyReducedMotion, false)
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyOverridePath, "")
	v.SetDefault(KeyEnvFile, ".env")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "ls-sky", "config.yaml"), nil
}

// Load reads the env file, then the config file at path (or the default
// location when path is empty and the file exists), and builds a Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	if envFile := v.GetString(KeyEnvFile); envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	file := path
	if file == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				file = p
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		LocateURL:       v.GetString(KeyLocateURL),
		ForecastURL:     v.GetString(KeyForecastURL),
		FrameInterval:   v.GetDuration(KeyFrameInterval),
		ModeInterval:    v.GetDuration(KeyModeInterval),
		WeatherInterval: v.GetDuration(KeyWeatherInterval),
		MinFPS:          v.GetFloat64(KeyMinFPS),
		ReducedMotion:   v.GetBool(KeyReducedMotion),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		OverridePath:    v.GetString(KeyOverridePath),
		File:            file,
	}
	if v.IsSet(KeyLatitude) && v.IsSet(KeyLongitude) {
		cfg.Latitude = v.GetFloat64(KeyLatitude)
		cfg.Longitude = v.GetFloat64(KeyLongitude)
		cfg.HasLocation = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.HasLocation {
		if c.Latitude < -90 || c.Latitude > 90 {
			return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
		}
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive")
	}
	if c.ModeInterval <= 0 {
		return fmt.Errorf("mode_interval must be positive")
	}
	if c.WeatherInterval < time.Minute {
		return fmt.Errorf("weather_interval must be at least 1m")
	}
	if c.MinFPS <= 0 {
		return fmt.Errorf("min_fps must be positive")
	}
	return nil
}

// Locator builds the position source: fixed coordinates when configured,
// otherwise a cached IP lookup.
func (c *Config) Locator() geo.Locator {
	if c.HasLocation {
		return geo.NewStatic(c.Latitude, c.Longitude)
	}
	opts := geo.DefaultOptions()
	return geo.NewCached(geo.NewIPLocator(geo.WithURL(c.LocateURL), geo.WithOptions(opts)), opts.MaxAge)
}

// Forecast builds the weather client.
func (c *Config) Forecast() *forecast.Client {
	return forecast.NewClient(forecast.WithURL(c.ForecastURL))
}
