package config

const (
	// Monitor Defaults
	DefaultMonitorCheckIntervalSeconds = 600
	DefaultMonitorHTTPTimeoutSeconds   = 10
	DefaultMonitorMaxConcurrentChecks  = 5
	DefaultMonitorMaxContentSize       = 10 * 1024 * 1024 // 10MB
	DefaultMonitorMaxCycles            = 0                // 0 means run indefinitely

	// Artifact Defaults
	DefaultArtifactOutputDir = "schedule"
	DefaultArtifactExtension = ".pdf"

	// Storage Defaults
	DefaultStorageParquetBasePath  = "database"
	DefaultStorageCompressionCodec = "zstd"
	DefaultStorageCycleDBPath      = "database/cycles/cycle_history.db"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Rasterizer Defaults
	DefaultRasterizerDPI       = 300
	DefaultRasterizerPadding   = 10
	DefaultRasterizerOutputDir = "schedule/pages"
)
