package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Password          string        `mapstructure:"password" yaml:"password"`
	PasswordHash      string        `mapstructure:"password_hash" yaml:"password_hash"`
	AdminPassword     string        `mapstructure:"admin_password" yaml:"admin_password"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash" yaml:"admin_password_hash"`
	StorageDir        string        `mapstructure:"storage_dir" yaml:"storage_dir"`
	AuditDBPath       string        `mapstructure:"audit_db_path" yaml:"audit_db_path"`
	TokenSecret       string        `mapstructure:"token_secret" yaml:"token_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
// The passwords match the upstream protocol examples and are expected
// to be overridden in any real deployment.
func Default() Config {
	return Config{
		Addr:              ":9990",
		Password:          "1234",
		AdminPassword:     "admin123",
		StorageDir:        "files",
		AuditDBPath:       "linechat.db",
		TokenSecret:       "",
		TokenTTL:          time.Hour,
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}
