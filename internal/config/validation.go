package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// FieldError is one invalid configuration key.
type FieldError struct {
	Key    string
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationErrors) add(key, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Key: key, Reason: fmt.Sprintf(format, args...)})
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Key, f.Reason))
	}
	return sb.String()
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Server.Host == "" {
		errs.add("server.host", "must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.add("server.port", "%d is not a valid TCP port", c.Server.Port)
	}
	if c.Server.Interval <= 0 {
		errs.add("server.interval", "must be positive, got %s", c.Server.Interval)
	}
	if c.Server.HandshakeTimeout < 0 {
		errs.add("server.handshake_timeout", "must not be negative")
	}
	if c.Server.AcceptRate < 0 {
		errs.add("server.accept_rate", "must not be negative")
	}
	if c.Server.AcceptRate > 0 && c.Server.AcceptBurst < 1 {
		errs.add("server.accept_burst", "must be >= 1 when accept_rate is set")
	}

	if len(c.Channels) == 0 {
		errs.add("channels", "at least one channel is required")
	}
	for i, ch := range c.Channels {
		if ch.File == "" {
			errs.add(fmt.Sprintf("channels[%d].file", i), "must not be empty")
		}
	}

	if c.Client.Volume < 0 || c.Client.Volume > 100 {
		errs.add("client.volume", "%d outside 0-100", c.Client.Volume)
	}
	if c.Client.VolumeStep < 1 || c.Client.VolumeStep > 100 {
		errs.add("client.volume_step", "%d outside 1-100", c.Client.VolumeStep)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		errs.add("logging.level", "unknown level %q", c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ChannelName returns the display name of channel i, falling back to its 1-based number.
func (c *Config) ChannelName(i int) string {
	if i >= 0 && i < len(c.Channels) && c.Channels[i].Name != "" {
		return c.Channels[i].Name
	}
	return fmt.Sprintf("Channel %d", i+1)
}
