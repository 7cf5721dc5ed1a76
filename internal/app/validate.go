package app

import (
	"fmt"
	"net/url"

	"rumagent/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running components. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	u, err := url.Parse(cfg.Intake.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("intake.url is not a valid URL: %q", cfg.Intake.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("intake.url must be http or https, got %q", u.Scheme)
	}

	if min, max := cfg.Upload.MinDelay.Duration(), cfg.Upload.MaxDelay.Duration(); min > 0 && max > 0 && max < min {
		return fmt.Errorf("upload.max_delay (%s) must not be below upload.min_delay (%s)", max, min)
	}
	if f := cfg.Upload.DelayFactor; f != 0 && f <= 1 {
		return fmt.Errorf("upload.delay_factor must be greater than 1, got %v", f)
	}

	if cfg.Retention.Enabled && cfg.Retention.MaxAge.Duration() < 0 {
		return fmt.Errorf("retention.max_age must not be negative")
	}
	return nil
}
