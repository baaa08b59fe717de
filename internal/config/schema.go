package config

import "time"

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Editor   EditorConfig   `yaml:"editor"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds the lab registry database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EditorConfig tunes the reconciliation machinery
type EditorConfig struct {
	// SettleDelay is held between writing the document and releasing the
	// write-intent lease.
	SettleDelay *Duration `yaml:"settle_delay,omitempty"`
	// Debounce batches bursts of file watcher events.
	Debounce *Duration `yaml:"debounce,omitempty"`
	// SidecarTTL caches loaded annotation sidecars.
	SidecarTTL *Duration `yaml:"sidecar_ttl,omitempty"`
}

// SettleDelayOrDefault returns the configured settle delay or the default.
func (e EditorConfig) SettleDelayOrDefault() time.Duration {
	if e.SettleDelay != nil {
		return e.SettleDelay.Duration()
	}
	return 50 * time.Millisecond
}

// DebounceOrDefault returns the configured debounce or the default.
func (e EditorConfig) DebounceOrDefault() time.Duration {
	if e.Debounce != nil {
		return e.Debounce.Duration()
	}
	return 100 * time.Millisecond
}

// SidecarTTLOrDefault returns the configured sidecar cache TTL or the default.
func (e EditorConfig) SidecarTTLOrDefault() time.Duration {
	if e.SidecarTTL != nil {
		return e.SidecarTTL.Duration()
	}
	return time.Second
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
