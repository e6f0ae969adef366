package model

// Shared defaults used across producers and the pipeline.
const (
	// FormatWrapped is the format recorded for wrapped-variant events, which
	// carry no symbology information on the wire.
	FormatWrapped = "UNKNOWN"

	// FormatMissing is the placeholder for absent direct-variant fields.
	// The case difference from FormatWrapped is part of the wire contract.
	FormatMissing = "unknown"

	// StoreTimeLayout is the timestamp layout of persisted log lines.
	StoreTimeLayout = "2006-01-02 15:04:05"
)
