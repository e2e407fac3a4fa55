package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     65432,
			Interval: 50 * time.Millisecond,
		},
		Channels: []ChannelConfig{{Name: "one", File: "1.txt"}},
		Client:   ClientConfig{Volume: 50, VolumeStep: 10},
		Logging:  LoggingConfig{Level: "info"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected no error for valid config, got: %v", err)
	}
}

func TestValidate_NoChannels(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when no channels are configured")
	}
	if !strings.Contains(err.Error(), "channels") {
		t.Errorf("error should mention channels, got: %v", err)
	}
}

func TestValidate_AcceptBurstRequiredWithRate(t *testing.T) {
	cfg := validConfig()
	cfg.Server.AcceptRate = 5

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.accept_burst") {
		t.Errorf("expected accept_burst error, got: %v", err)
	}

	cfg.Server.AcceptBurst = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error with burst set, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	cfg.Server.Interval = 0
	cfg.Channels = append(cfg.Channels, ChannelConfig{Name: "blank"})
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple issues")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.Fields) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(verrs.Fields), err)
	}

	errStr := err.Error()
	for _, key := range []string{"server.port", "server.interval", "channels[1].file", "logging.level"} {
		if !strings.Contains(errStr, key) {
			t.Errorf("error should mention %s, got: %v", key, err)
		}
	}
}

func TestChannelNameFallback(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = append(cfg.Channels, ChannelConfig{File: "2.txt"})

	if got := cfg.ChannelName(0); got != "one" {
		t.Errorf("expected 'one', got '%s'", got)
	}
	if got := cfg.ChannelName(1); got != "Channel 2" {
		t.Errorf("expected fallback 'Channel 2', got '%s'", got)
	}
}
