package framesource

import "github.com/scanworks/scanbridge/internal/model"

// FrameSource is a unified interface for all frame producers (serial, HTTP).
type FrameSource interface {
	Frames() <-chan model.FrameEnvelope // read-only channel of accepted frames
	Stop()                              // graceful shutdown
	Name() string                       // "serial", "http"
}
