package config

import (
	"errors"
	"fmt"
)

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("service.log_level must be one of debug, info, warn, error (got %q)", cfg.Service.LogLevel))
	}

	switch cfg.Service.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat))
	}

	if cfg.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}

	if cfg.Ingress.Listen == "" {
		errs = append(errs, errors.New("ingress.listen is required"))
	}
	if cfg.Ingress.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("ingress.max_body_bytes must be positive"))
	}

	if cfg.Credentials.AppSecret == "" {
		errs = append(errs, errors.New("credentials.app_secret is required (file value or WARELAY_APP_SECRET)"))
	}
	if cfg.Credentials.VerifyToken == "" {
		errs = append(errs, errors.New("credentials.verify_token is required (file value or WARELAY_VERIFY_TOKEN)"))
	}

	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	case "file":
		if cfg.Cache.FileRoot == "" {
			errs = append(errs, errors.New("cache.file_root is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be memory, redis, or file (got %q)", cfg.Cache.Backend))
	}

	if cfg.Outbound.Enabled {
		if cfg.Credentials.AccessToken == "" {
			errs = append(errs, errors.New("credentials.access_token is required when outbound is enabled"))
		}
		if cfg.Credentials.PhoneNumberID == "" {
			errs = append(errs, errors.New("credentials.phone_number_id is required when outbound is enabled"))
		}
	}

	if cfg.Escalation.Window < 0 {
		errs = append(errs, errors.New("escalation.window must not be negative"))
	}
	if cfg.Escalation.Threshold < 0 {
		errs = append(errs, errors.New("escalation.threshold must not be negative"))
	}

	return errors.Join(errs...)
}
