package config

import "time"

// BlobConfig points the blob relay at its object store.
type BlobConfig struct {
	NATSURL       string `mapstructure:"nats_url" yaml:"nats_url"`
	Bucket        string `mapstructure:"bucket" yaml:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// PaymentSecret verifies the HMAC signature of payment receipts
	// that unlock group membership.
	PaymentSecret string `mapstructure:"payment_secret" yaml:"payment_secret"`

	// HistoryLimit caps the initial message page.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	Blob BlobConfig `mapstructure:"blob" yaml:"blob"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "gatechat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "gatechat",
		JWTAudience:       "gatechat",
		JWTTTL:            24 * time.Hour,
		PaymentSecret:     "change-me-too",
		HistoryLimit:      50,
		Blob: BlobConfig{
			NATSURL:       "nats://127.0.0.1:4222",
			Bucket:        "gatechat-uploads",
			PublicBaseURL: "http://127.0.0.1:8222/files",
		},
	}
}
