package models

import "time"

// LogRecord is one successfully parsed proxy log line. All fields except
// Request are nullable; placeholder tokens in the raw line ("-", single
// space) are normalized to nil before a record is built.
type LogRecord struct {
	IPAddress      *string
	Username       *string
	ClickTime      *time.Time
	Request        string
	HTTPCode       *int
	LibrarySession *string
	Referrer       *string
	UserAgent      *string
	County         *string
	State          *string
	City           *string
	EZProxySession *string

	// Provenance tags, set by the engine before loading.
	FilePath            string
	ProcessingStartTime time.Time
}

// InvalidRecord preserves a raw line that failed to parse. Structured
// fields are absent by definition.
type InvalidRecord struct {
	RawLine             string
	LogType             string
	FilePath            string
	ProcessingStartTime time.Time
}

// ProcessingRun is one ledger row: a single attempt at processing one file.
// Exactly one run with Valid=true may exist per file; stale invalid runs are
// purged when a file is promoted.
type ProcessingRun struct {
	ID                  string
	FilePath            string
	LogType             string
	ProcessingStartTime time.Time
	ProcessingEndTime   time.Time
	Valid               bool
	NumOfLogs           int64
	NumInvalid          int64
	Error               *string
}

// SourceConfig is one entry of the source list: a directory to scan and the
// log type (which doubles as the destination table and parser key) plus the
// path substring the synchronizer matches against.
type SourceConfig struct {
	LogDirectory string `yaml:"log_directory"`
	LogType      string `yaml:"log_type"`
	Pattern      string `yaml:"pattern"`
}
