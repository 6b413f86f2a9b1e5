// Package config loads the bridge configuration from a YAML file with
// FTPBRIDGE_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ftpbridge/security"
)

// Config is the top-level configuration structure.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	PublicHost string `mapstructure:"public_host" yaml:"public_host"`
	// IdleTimeout is the control-connection idle limit in seconds.
	IdleTimeout int `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	// DataTimeout bounds the wait for a passive data peer, in seconds.
	DataTimeout int      `mapstructure:"data_timeout" yaml:"data_timeout"`
	Namespaces  []string `mapstructure:"namespaces" yaml:"namespaces"`

	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Users   []UserConfig  `mapstructure:"users" yaml:"users"`
}

// BackendConfig points at the record API.
type BackendConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
	// MaxUpload caps a single STOR/APPE payload in bytes.
	MaxUpload int64 `mapstructure:"max_upload" yaml:"max_upload"`
}

// LoggerConfig controls the zap setup.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Stdout     bool   `mapstructure:"stdout" yaml:"stdout"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// UserConfig is a statically configured user verified locally with bcrypt
// instead of the token shape check.
type UserConfig struct {
	Username     string `mapstructure:"username" yaml:"username"`
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash"`
}

// Load reads the configuration file (optional) and applies environment
// overrides. An empty path yields a default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FTPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// GetListenAddr returns the control listen address, defaulting to :2121.
func (c *Config) GetListenAddr() string {
	if c == nil || c.ListenAddr == "" {
		return ":2121"
	}
	return c.ListenAddr
}

// GetPublicHost returns the IPv4 address advertised in 227 replies.
func (c *Config) GetPublicHost() string {
	if c == nil || c.PublicHost == "" {
		return "127.0.0.1"
	}
	return c.PublicHost
}

// GetIdleTimeout returns the control idle timeout, with a default.
func (c *Config) GetIdleTimeout() time.Duration {
	if c == nil || c.IdleTimeout <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.IdleTimeout) * time.Second
}

// GetDataTimeout returns the passive-accept wait limit, with a default.
func (c *Config) GetDataTimeout() time.Duration {
	if c == nil || c.DataTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.DataTimeout) * time.Second
}

// GetNamespaces returns the allow-listed top-level virtual directories.
func (c *Config) GetNamespaces() []string {
	if c == nil || len(c.Namespaces) == 0 {
		return security.DefaultNamespaces
	}
	return c.Namespaces
}

// GetBackendTimeout returns the per-request backend timeout.
func (c *Config) GetBackendTimeout() time.Duration {
	if c == nil || c.Backend.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Backend.Timeout) * time.Second
}

// GetMaxUpload returns the upload size cap, defaulting to 32 MiB.
func (c *Config) GetMaxUpload() int64 {
	if c == nil || c.Backend.MaxUpload <= 0 {
		return 32 << 20
	}
	return c.Backend.MaxUpload
}

// StaticUsers returns the username -> bcrypt hash table.
func (c *Config) StaticUsers() map[string]string {
	if c == nil || len(c.Users) == 0 {
		return nil
	}
	users := make(map[string]string, len(c.Users))
	for _, u := range c.Users {
		if u.Username != "" && u.PasswordHash != "" {
			users[u.Username] = u.PasswordHash
		}
	}
	return users
}
