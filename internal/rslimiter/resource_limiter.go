package rslimiter

import (
	"fmt"
	"runtime"

	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceLimiter checks process and system memory pressure. The poller
// consults it before each cycle and skips the cycle when the host is under
// pressure rather than piling more fetches on.
type ResourceLimiter struct {
	config config.ResourceLimiterConfig
	logger zerolog.Logger
}

// NewResourceLimiter creates a new resource limiter
func NewResourceLimiter(cfg config.ResourceLimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	if cfg.MaxMemoryMB == 0 {
		cfg.MaxMemoryMB = 1024
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = 0.8
	}
	if cfg.SystemMemThreshold == 0 {
		cfg.SystemMemThreshold = 0.9
	}
	if cfg.MaxGoroutines == 0 {
		cfg.MaxGoroutines = 10000
	}

	return &ResourceLimiter{
		config: cfg,
		logger: logger.With().Str("component", "ResourceLimiter").Logger(),
	}
}

// CheckMemoryLimit checks if current process memory usage exceeds its limit.
func (rl *ResourceLimiter) CheckMemoryLimit() error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	currentMB := int64(m.Alloc / 1024 / 1024)
	limitMB := int64(float64(rl.config.MaxMemoryMB) * rl.config.MemoryThreshold)

	if currentMB > limitMB {
		return fmt.Errorf("memory limit exceeded: current %dMB > limit %dMB", currentMB, limitMB)
	}

	return nil
}

// CheckSystemMemoryLimit reports whether system memory usage exceeds the
// configured threshold.
func (rl *ResourceLimiter) CheckSystemMemoryLimit() (bool, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Errorf("failed to get system memory stats: %w", err)
	}

	usedPercent := vmStat.UsedPercent / 100.0

	if usedPercent > rl.config.SystemMemThreshold {
		rl.logger.Warn().
			Float64("used_percent", usedPercent*100).
			Float64("threshold_percent", rl.config.SystemMemThreshold*100).
			Uint64("used_mb", vmStat.Used/1024/1024).
			Uint64("total_mb", vmStat.Total/1024/1024).
			Msg("System memory usage exceeded threshold")
		return true, nil
	}

	return false, nil
}

// CheckGoroutineLimit checks if current goroutine count exceeds its limit.
func (rl *ResourceLimiter) CheckGoroutineLimit() error {
	current := runtime.NumGoroutine()

	if current > rl.config.MaxGoroutines {
		return fmt.Errorf("goroutine limit exceeded: current %d > limit %d", current, rl.config.MaxGoroutines)
	}

	return nil
}

// AllowCycle runs all checks and reports whether a new polling cycle should
// proceed. Disabled limiters always allow.
func (rl *ResourceLimiter) AllowCycle() bool {
	if !rl.config.Enabled {
		return true
	}

	if err := rl.CheckMemoryLimit(); err != nil {
		rl.logger.Warn().Err(err).Msg("Skipping cycle due to process memory pressure")
		return false
	}
	if err := rl.CheckGoroutineLimit(); err != nil {
		rl.logger.Warn().Err(err).Msg("Skipping cycle due to goroutine pressure")
		return false
	}
	if over, err := rl.CheckSystemMemoryLimit(); err != nil {
		rl.logger.Debug().Err(err).Msg("Could not read system memory stats, allowing cycle")
	} else if over {
		return false
	}

	return true
}
