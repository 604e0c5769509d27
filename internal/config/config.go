package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures the standalone HTTP/WebSocket server.
type ServerConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
	LogPretty      bool     `mapstructure:"log_pretty"`

	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Socket  SocketConfig  `mapstructure:"socket"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig enables cross-instance event fan-out when Addr is set.
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type SocketConfig struct {
	SendBuffer   int           `mapstructure:"send_buffer"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	DedupeSize   int           `mapstructure:"dedupe_size"`
	DedupeTTL    time.Duration `mapstructure:"dedupe_ttl"`
}

// EnvPrefix is prepended to every environment override, e.g. BIGTWO_REDIS_ADDR.
const EnvPrefix = "BIGTWO"

var (
	cfg      *ServerConfig
	loadOnce sync.Once
	loadErr  error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":10000")
	v.SetDefault("allowed_origins", []string{"localhost:*", "127.0.0.1:*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "bigtwo")
	v.SetDefault("socket.send_buffer", 32)
	v.SetDefault("socket.ping_interval", 30*time.Second)
	v.SetDefault("socket.dedupe_size", 256)
	v.SetDefault("socket.dedupe_ttl", 5*time.Minute)
}

// Parse reads a config file (optional, may be "") and BIGTWO_* environment overrides.
func Parse(path string) (*ServerConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var c ServerConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the server cannot run with.
func (c *ServerConfig) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session.secret is required (BIGTWO_SESSION_SECRET)")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Socket.SendBuffer <= 0 {
		return errors.New("socket.send_buffer must be positive")
	}
	if c.Socket.DedupeSize <= 0 {
		return errors.New("socket.dedupe_size must be positive")
	}
	return nil
}

// LoadServerConfig loads the process-wide server configuration once.
func LoadServerConfig(path string) error {
	loadOnce.Do(func() {
		cfg, loadErr = Parse(path)
	})
	return loadErr
}

// GetServerConfig returns the configuration loaded by LoadServerConfig.
func GetServerConfig() *ServerConfig {
	return cfg
}
