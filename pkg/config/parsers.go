package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Config string
	DB     string
	Intake string
	Set    map[string]bool
}

// ParseCommandFlags defines and parses command-line flags and returns them
// as a Flags struct.
func ParseCommandFlags() Flags {
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	dbPtr := flag.String("db", "", "Batch store path (overrides config)")
	intakePtr := flag.String("intake", "", "Intake URL (overrides config)")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Config: *cfgPtr, DB: *dbPtr, Intake: *intakePtr, Set: setFlags}
}

// ApplyFlags overlays explicitly set flags onto cfg. Flags win over both the
// config file and the environment.
func ApplyFlags(cfg *Config, flags Flags) {
	if flags.Set["db"] && flags.DB != "" {
		cfg.Storage.DBPath = flags.DB
	}
	if flags.Set["intake"] && flags.Intake != "" {
		cfg.Intake.URL = flags.Intake
	}
}

// LoadEnvOverrides applies RUMAGENT_* environment overrides onto the
// provided cfg and reports whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false

	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			envUsed = true
			*dst = v
		}
	}
	setDur := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			if td, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				envUsed = true
				*dst = Duration(td)
			}
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				envUsed = true
				*dst = n
			}
		}
	}

	setStr("RUMAGENT_APPLICATION_ID", &cfg.Application.ID)
	setStr("RUMAGENT_INTAKE_URL", &cfg.Intake.URL)
	setStr("RUMAGENT_INTAKE_CLIENT_ID", &cfg.Intake.ClientID)
	setDur("RUMAGENT_INTAKE_TIMEOUT", &cfg.Intake.Timeout)
	setStr("RUMAGENT_DB_PATH", &cfg.Storage.DBPath)

	setDur("RUMAGENT_UPLOAD_MIN_DELAY", &cfg.Upload.MinDelay)
	setDur("RUMAGENT_UPLOAD_MAX_DELAY", &cfg.Upload.MaxDelay)
	if v := os.Getenv("RUMAGENT_UPLOAD_DELAY_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Upload.DelayFactor = f
		}
	}

	setInt("RUMAGENT_BATCH_QUEUE_CAPACITY", &cfg.Batch.QueueCapacity)
	setInt("RUMAGENT_BATCH_MAX_EVENTS", &cfg.Batch.MaxEvents)
	setDur("RUMAGENT_BATCH_FLUSH_INTERVAL", &cfg.Batch.FlushInterval)

	if v := os.Getenv("RUMAGENT_RETENTION_ENABLED"); v != "" {
		envUsed = true
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			cfg.Retention.Enabled = true
		default:
			cfg.Retention.Enabled = false
		}
	}
	setStr("RUMAGENT_RETENTION_CRON", &cfg.Retention.Cron)
	setDur("RUMAGENT_RETENTION_MAX_AGE", &cfg.Retention.MaxAge)

	setStr("RUMAGENT_LOG_LEVEL", &cfg.Logging.Level)
	setDur("RUMAGENT_SENSOR_INTERVAL", &cfg.Sensor.Interval)
	setStr("RUMAGENT_DEBUG_ADDR", &cfg.Debug.Addr)
	setStr("RUMAGENT_MONITOR_DIR", &cfg.Debug.MonitorDir)

	return envUsed
}
