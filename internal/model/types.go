package model

import "time"

// BarcodeEvent is the canonical barcode record all recognized wire shapes
// normalize to. It is immutable once constructed: the pipeline call that
// created it owns it until it is handed to the store, which reads it once.
type BarcodeEvent struct {
	Data      string
	Format    string
	Timestamp time.Time
}

// FrameEnvelope carries one raw frame with source metadata.
// It is the transport contract between producers and the ingestion pipeline.
type FrameEnvelope struct {
	Source string // "serial", "http"
	ID     string // ingest ID assigned at acceptance, for log correlation
	Frame  []byte
}
