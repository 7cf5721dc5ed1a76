package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Intake      IntakeConfig      `yaml:"intake"`
	Storage     StorageConfig     `yaml:"storage"`
	Upload      UploadConfig      `yaml:"upload"`
	Batch       BatchConfig       `yaml:"batch"`
	Retention   RetentionConfig   `yaml:"retention"`
	Logging     LoggingConfig     `yaml:"logging"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Debug       DebugConfig       `yaml:"debug"`
}

// ApplicationConfig identifies the instrumented application.
type ApplicationConfig struct {
	ID string `yaml:"id"`
}

// IntakeConfig holds the telemetry endpoint settings.
type IntakeConfig struct {
	URL      string   `yaml:"url"`
	ClientID string   `yaml:"client_id"`
	Timeout  Duration `yaml:"timeout"`
}

// StorageConfig holds the durable queue location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// UploadConfig tunes the adaptive upload schedule.
type UploadConfig struct {
	MinDelay    Duration `yaml:"min_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
	DelayFactor float64  `yaml:"delay_factor"`
}

// BatchConfig controls event queueing and batch assembly.
type BatchConfig struct {
	QueueCapacity        int       `yaml:"queue_capacity"`
	MaxEvents            int       `yaml:"max_events"`
	FlushInterval        Duration  `yaml:"flush_interval"`
	MaxPooledBufferBytes SizeBytes `yaml:"max_pooled_buffer_bytes"`
}

// RetentionConfig holds configuration for the automatic purge runner.
type RetentionConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	MaxAge  Duration `yaml:"max_age"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SensorConfig controls host state polling.
type SensorConfig struct {
	Interval Duration `yaml:"interval"`
}

// DebugConfig holds the local diagnostics HTTP listener. Empty address
// disables it.
type DebugConfig struct {
	Addr       string `yaml:"addr"`
	MonitorDir string `yaml:"monitor_dir"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
