package config

import "clientpulse/pkg/contracts"

// Application constants
const (
	// Application Info
	AppName    = "clientpulse"
	AppVersion = contracts.Version

	// Pipeline defaults
	DefaultSeed                = 42
	DefaultClusters            = 3
	DefaultRestarts            = 10
	DefaultMaxIterations       = 300
	DefaultHighValueThreshold  = 60000.0
	DefaultHighValueDisplayCap = 10
	DefaultCLVPercentile       = 0.75
	DefaultHistogramBins       = 30
	DefaultMaxConcurrent       = 4

	// CLV dedupe modes
	CLVDedupeCustomer = "customer"
	CLVDedupePair     = "pair"

	// Uploads
	DefaultMaxUploadBytes = 32 << 20
	MultipartMemory       = 8 << 20

	// File Paths
	DefaultLogFile   = "logs/clientpulse.log"
	DefaultReportDir = "reports"
)
