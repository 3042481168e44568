package config

import (
	"time"
)

// MonitorConfig defines configuration for the document monitoring loop
type MonitorConfig struct {
	MonitorURLs          []string `json:"monitor_urls,omitempty" yaml:"monitor_urls,omitempty" validate:"omitempty,urls"`
	CheckIntervalSeconds int      `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	HTTPTimeoutSeconds   int      `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxConcurrentChecks  int      `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	MaxContentSize       int      `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"` // Max content size in bytes
	MaxCycles            int      `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"omitempty,min=0"`
	InsecureSkipVerify   bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		MonitorURLs:          []string{},
		CheckIntervalSeconds: DefaultMonitorCheckIntervalSeconds,
		HTTPTimeoutSeconds:   DefaultMonitorHTTPTimeoutSeconds,
		MaxConcurrentChecks:  DefaultMonitorMaxConcurrentChecks,
		MaxContentSize:       DefaultMonitorMaxContentSize,
		MaxCycles:            DefaultMonitorMaxCycles,
		InsecureSkipVerify:   false,
	}
}

// CheckInterval returns the poll interval as a time.Duration
func (mc *MonitorConfig) CheckInterval() time.Duration {
	if mc.CheckIntervalSeconds <= 0 {
		return time.Duration(DefaultMonitorCheckIntervalSeconds) * time.Second
	}
	return time.Duration(mc.CheckIntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-fetch timeout as a time.Duration
func (mc *MonitorConfig) HTTPTimeout() time.Duration {
	if mc.HTTPTimeoutSeconds <= 0 {
		return time.Duration(DefaultMonitorHTTPTimeoutSeconds) * time.Second
	}
	return time.Duration(mc.HTTPTimeoutSeconds) * time.Second
}
