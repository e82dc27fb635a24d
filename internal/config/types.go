package config

import "time"

// Config is the complete warelay configuration.
type Config struct {
	Service     ServiceConfig           `yaml:"service"`
	Storage     StorageConfig           `yaml:"storage"`
	Ingress     IngressConfig           `yaml:"ingress"`
	Credentials CredentialsConfig       `yaml:"credentials"`
	Escalation  EscalationConfig        `yaml:"escalation,omitempty"`
	Cache       CacheConfig             `yaml:"cache,omitempty"`
	Outbound    OutboundConfig          `yaml:"outbound,omitempty"`
	Platforms   map[string]PlatformConf `yaml:"platforms,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StorageConfig defines where the sqlite journal and session store live.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// IngressConfig defines the HTTP listener.
type IngressConfig struct {
	Listen          string        `yaml:"listen"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DedupeWindow    time.Duration `yaml:"dedupe_window"`
}

// CredentialsConfig holds the vendor secrets. Values support ${ENV_VAR}
// expansion, and the WARELAY_* environment variables override whatever the
// file says, so none of these have to live on disk.
type CredentialsConfig struct {
	AppSecret     string `yaml:"app_secret"`
	VerifyToken   string `yaml:"verify_token"`
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
}

// EscalationConfig tunes the error escalation window.
type EscalationConfig struct {
	Window            time.Duration `yaml:"window"`
	Threshold         int           `yaml:"threshold"`
	CriticalThreshold int           `yaml:"critical_threshold"`
	CriticalCodes     []int         `yaml:"critical_codes,omitempty"`
}

// CacheConfig selects the cache backend handed to handlers.
type CacheConfig struct {
	Backend   string `yaml:"backend"` // memory, redis, file
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty"`
	FileRoot  string `yaml:"file_root,omitempty"`
}

// OutboundConfig controls the Graph API client. Disabled deployments are
// receive-only.
type OutboundConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// PlatformConf holds per-platform overrides keyed by adapter name.
type PlatformConf struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns a Config with working defaults for a local deployment.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "warelay",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Storage: StorageConfig{
			Path: "./data/warelay.db",
		},
		Ingress: IngressConfig{
			Listen:          "127.0.0.1:8080",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
			DedupeWindow:    time.Hour,
		},
		Escalation: EscalationConfig{
			Window:            10 * time.Minute,
			Threshold:         5,
			CriticalThreshold: 2,
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Platforms: map[string]PlatformConf{
			"whatsapp": {Enabled: true},
		},
	}
}
