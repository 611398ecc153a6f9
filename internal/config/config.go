package config

import "time"

// Config holds relay server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// HandshakeTimeout bounds the hello-and-verify phase of a new connection.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	MaxMessageBytes  int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxBodyBytes     int           `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	SessionBuffer    int           `mapstructure:"session_buffer" yaml:"session_buffer"`
	RegistryShards   int           `mapstructure:"registry_shards" yaml:"registry_shards"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	// LegacyBroadcast allows roomless messages to reach every connection,
	// matching the pre-rooms behavior. IncludeSender echoes room messages
	// back to their sender for UI consistency.
	LegacyBroadcast bool `mapstructure:"legacy_broadcast" yaml:"legacy_broadcast"`
	IncludeSender   bool `mapstructure:"include_sender" yaml:"include_sender"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		MaxMessageBytes:   1 << 20,
		MaxBodyBytes:      4096,
		SessionBuffer:     32,
		RegistryShards:    16,
		DatabasePath:      "relay.db",
		LogLevel:          "info",
		LegacyBroadcast:   true,
		IncludeSender:     true,
	}
}
