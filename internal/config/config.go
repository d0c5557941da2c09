package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty" yaml:"log_pretty"`

	// RedisAddr selects the Redis-backed presence store. When empty the server
	// falls back to the in-process store (single-instance deployments, tests).
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`

	// AuthSecret enables HMAC token validation on authenticate events. When
	// empty the declared userId is trusted as-is.
	AuthSecret string `mapstructure:"auth_secret" yaml:"auth_secret"`

	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	CursorTTL    time.Duration `mapstructure:"cursor_ttl" yaml:"cursor_ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`

	// EventBuffer bounds each connection's outbound event queue.
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`

	// HistoryPath points at the SQLite chat-history database. Empty disables
	// chat archiving.
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogPretty:         true,
		SessionTTL:        time.Hour,
		CursorTTL:         60 * time.Second,
		ReapInterval:      30 * time.Second,
		EventBuffer:       64,
	}
}
