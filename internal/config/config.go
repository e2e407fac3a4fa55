package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Channels []ChannelConfig `mapstructure:"channels"`
	Status   StatusConfig    `mapstructure:"status"`
	Client   ClientConfig    `mapstructure:"client"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Interval         time.Duration `mapstructure:"interval"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	AcceptRate       float64       `mapstructure:"accept_rate"`
	AcceptBurst      int           `mapstructure:"accept_burst"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type ChannelConfig struct {
	Name string `mapstructure:"name"`
	File string `mapstructure:"file"`
}

type StatusConfig struct {
	Addr      string `mapstructure:"addr"` // empty disables the status server
	WebSocket bool   `mapstructure:"websocket"`
}

type ClientConfig struct {
	Volume     int `mapstructure:"volume"`
	VolumeStep int `mapstructure:"volume_step"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// DefaultChannels mirrors the stock channel table.
var DefaultChannels = []map[string]any{
	{"name": "Channel 1", "file": "content/1.txt"},
	{"name": "Channel 2", "file": "content/2.txt"},
	{"name": "Channel 3", "file": "content/4.txt"},
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 65432)
	v.SetDefault("server.interval", 50*time.Millisecond)
	v.SetDefault("server.handshake_timeout", time.Duration(0))
	v.SetDefault("server.accept_rate", 0.0)
	v.SetDefault("server.accept_burst", 16)
	v.SetDefault("channels", DefaultChannels)
	v.SetDefault("status.addr", "127.0.0.1:8080")
	v.SetDefault("status.websocket", true)
	v.SetDefault("client.volume", 50)
	v.SetDefault("client.volume_step", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file", "")

	// Environment variable support
	v.SetEnvPrefix("ASCIITV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
