// Package ingest turns raw frames into canonical barcode events and routes
// them to storage.
package ingest

import (
	"log"

	"github.com/scanworks/scanbridge/internal/model"
)

// EventSink is the narrow store contract required by the pipeline.
type EventSink interface {
	Append(model.BarcodeEvent) error
}

// Pipeline is the single serialization point both producers converge on.
// It parses, normalizes, and persists one frame at a time; every local
// failure is logged and swallowed so one bad frame never halts a producer.
type Pipeline struct {
	sink EventSink
}

// NewPipeline creates a pipeline writing accepted events to sink.
func NewPipeline(sink EventSink) *Pipeline {
	return &Pipeline{sink: sink}
}

// ProcessFrame ingests one frame. It never returns an error: malformed JSON,
// unrecognized shapes, and persistence failures are all reported through the
// operator log and dropped, per the no-retry contract.
func (p *Pipeline) ProcessFrame(env model.FrameEnvelope) {
	event, err := Normalize(env.Frame)
	if err != nil {
		log.Printf("ingest: dropped frame %s from %s: %v", env.ID, env.Source, err)
		return
	}

	log.Printf("ingest: barcode %q (format %s) from %s frame %s", event.Data, event.Format, env.Source, env.ID)

	if p.sink == nil {
		return
	}
	if err := p.sink.Append(*event); err != nil {
		log.Printf("ingest: failed to persist frame %s: %v", env.ID, err)
	}
}
