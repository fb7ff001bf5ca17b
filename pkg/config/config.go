package config

import "time"

// Config represents the complete configuration for contentkit.
type Config struct {
	Decoder    DecoderConfig    `koanf:"decoder"    validate:"required"`
	Attachment AttachmentConfig `koanf:"attachment" validate:"required"`
	Stream     StreamConfig     `koanf:"stream"     validate:"required"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Log        LogConfig        `koanf:"log"`
}

// DecoderConfig tunes the charset heuristic decoder.
type DecoderConfig struct {
	FallbackCharsets  []string `koanf:"fallback_charsets"   validate:"min=1,dive,charset_label" env:"CONTENTKIT_DECODER_FALLBACK_CHARSETS"`
	MojibakeScanRunes int      `koanf:"mojibake_scan_runes" validate:"min=1"                    env:"CONTENTKIT_DECODER_MOJIBAKE_SCAN_RUNES"`
}

// AttachmentConfig bounds file classification.
type AttachmentConfig struct {
	MaxFileBytes int64 `koanf:"max_file_bytes" validate:"min=1" env:"CONTENTKIT_ATTACHMENT_MAX_FILE_BYTES"`
	// Workers bounds concurrent classification in a batch.
	Workers int `koanf:"workers" validate:"min=1" env:"CONTENTKIT_ATTACHMENT_WORKERS"`
}

// StreamConfig contains event-stream transport configuration.
type StreamConfig struct {
	ReadBufferBytes int           `koanf:"read_buffer_bytes" validate:"min=64" env:"CONTENTKIT_STREAM_READ_BUFFER_BYTES"`
	UserAgent       string        `koanf:"user_agent"                          env:"CONTENTKIT_STREAM_USER_AGENT"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"   validate:"min=0"  env:"CONTENTKIT_STREAM_CONNECT_TIMEOUT"`
	Relay           RelayConfig   `koanf:"relay"`
}

// RelayConfig configures Redis fan-out of normalized events.
type RelayConfig struct {
	RedisURL       string `koanf:"redis_url"       validate:"omitempty,url" env:"CONTENTKIT_STREAM_RELAY_REDIS_URL"`
	ChannelPrefix  string `koanf:"channel_prefix"  validate:"required"      env:"CONTENTKIT_STREAM_RELAY_CHANNEL_PREFIX"`
	ConnectRetries uint64 `koanf:"connect_retries"                          env:"CONTENTKIT_STREAM_RELAY_CONNECT_RETRIES"`
}

// MonitoringConfig toggles the metrics pipeline.
type MonitoringConfig struct {
	Enabled bool `koanf:"enabled" env:"CONTENTKIT_MONITORING_ENABLED"`
}

// LogConfig mirrors the logger flags.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled" env:"CONTENTKIT_LOG_LEVEL"`
	JSON  bool   `koanf:"json"                                                  env:"CONTENTKIT_LOG_JSON"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Decoder: DecoderConfig{
			FallbackCharsets:  []string{"shift_jis", "euc-jp", "iso-2022-jp", "windows-1252", "iso-8859-1"},
			MojibakeScanRunes: 1000,
		},
		Attachment: AttachmentConfig{
			MaxFileBytes: 20 * 1024 * 1024,
			Workers:      4,
		},
		Stream: StreamConfig{
			ReadBufferBytes: 32 * 1024,
			UserAgent:       "contentkit/1.0",
			ConnectTimeout:  30 * time.Second,
			Relay: RelayConfig{
				ChannelPrefix:  "contentkit:stream:",
				ConnectRetries: 3,
			},
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
