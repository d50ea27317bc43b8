package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tracewire-systems/wsrecorder/internal/format"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Output    OutputConfig    `mapstructure:"output"`
	Recording RecordingConfig `mapstructure:"recording"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type OutputConfig struct {
	// Path of the initial output file. Empty means a timestamped file in
	// the working directory.
	Path string `mapstructure:"path"`
}

type RecordingConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Format           string `mapstructure:"format"`
	IncludeID        bool   `mapstructure:"include_id"`
	IncludeDirection bool   `mapstructure:"include_direction"`
	IncludeURL       bool   `mapstructure:"include_url"`
	IncludeTime      bool   `mapstructure:"include_time"`
	IncludeData      bool   `mapstructure:"include_data"`
	DirectionLabelCS string `mapstructure:"direction_label_cs"`
	DirectionLabelSC string `mapstructure:"direction_label_sc"`
	TimeFormat       string `mapstructure:"time_format"`
	BinaryAsBase64   bool   `mapstructure:"binary_as_base64"`
	UseCDATA         bool   `mapstructure:"use_cdata"`
}

type ProxyConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Target is the default upstream websocket URL; clients may override
	// it per connection with the target query parameter.
	Target          string `mapstructure:"target"`
	AllowedOverride bool   `mapstructure:"allowed_override"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8099)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("output.path", "")
	v.SetDefault("recording.enabled", true)
	v.SetDefault("recording.format", "xml")
	v.SetDefault("recording.include_id", true)
	v.SetDefault("recording.include_direction", true)
	v.SetDefault("recording.include_url", true)
	v.SetDefault("recording.include_time", true)
	v.SetDefault("recording.include_data", true)
	v.SetDefault("recording.direction_label_cs", "C-S")
	v.SetDefault("recording.direction_label_sc", "S-C")
	v.SetDefault("recording.time_format", "2006-01-02_15-04-05.000")
	v.SetDefault("recording.binary_as_base64", true)
	v.SetDefault("recording.use_cdata", true)
	v.SetDefault("proxy.enabled", true)
	v.SetDefault("proxy.target", "")
	v.SetDefault("proxy.allowed_override", true)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "wsrecorder.capture.>")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/wsrecorder")
	}

	// Environment variables override
	v.SetEnvPrefix("WSRECORDER")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the recorder cannot start with.
func (c *Config) Validate() error {
	f, err := format.ParseFormat(c.Recording.Format)
	if err != nil {
		return err
	}
	if f == format.Raw {
		return fmt.Errorf("raw output format is not implemented")
	}
	if c.Recording.TimeFormat == "" {
		return fmt.Errorf("recording.time_format must not be empty")
	}
	return nil
}

// RecordingOptions converts the recording section to a serializer snapshot.
// Validate must have accepted the config first.
func (c *Config) RecordingOptions() format.Options {
	f, _ := format.ParseFormat(c.Recording.Format)
	return format.Options{
		Format:           f,
		IncludeID:        c.Recording.IncludeID,
		IncludeDirection: c.Recording.IncludeDirection,
		IncludeURL:       c.Recording.IncludeURL,
		IncludeTime:      c.Recording.IncludeTime,
		IncludeData:      c.Recording.IncludeData,
		DirectionLabelCS: c.Recording.DirectionLabelCS,
		DirectionLabelSC: c.Recording.DirectionLabelSC,
		TimeFormat:       c.Recording.TimeFormat,
		BinaryAsBase64:   c.Recording.BinaryAsBase64,
		UseCDATA:         c.Recording.UseCDATA,
	}
}
