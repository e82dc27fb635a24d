package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// secrets are the environment overrides. They win over file values so
// credentials never have to be written to disk.
type secrets struct {
	AppSecret   string `envconfig:"APP_SECRET"`
	VerifyToken string `envconfig:"VERIFY_TOKEN"`
	AccessToken string `envconfig:"ACCESS_TOKEN"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`
}

// Load reads, expands, and validates configuration from a file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	// ${VAR} placeholders expand from the environment before parsing.
	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applySecrets(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applySecrets overlays WARELAY_* environment variables onto the config.
func applySecrets(cfg *Config) error {
	var s secrets
	if err := envconfig.Process("warelay", &s); err != nil {
		return fmt.Errorf("read environment overrides: %w", err)
	}
	if s.AppSecret != "" {
		cfg.Credentials.AppSecret = s.AppSecret
	}
	if s.VerifyToken != "" {
		cfg.Credentials.VerifyToken = s.VerifyToken
	}
	if s.AccessToken != "" {
		cfg.Credentials.AccessToken = s.AccessToken
	}
	if s.RedisAddr != "" {
		cfg.Cache.RedisAddr = s.RedisAddr
	}
	return nil
}
