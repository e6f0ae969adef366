package framesource

import (
	"github.com/scanworks/scanbridge/internal/model"
	"github.com/scanworks/scanbridge/internal/serialport"
)

// SerialSource wraps a serialport.Manager as a FrameSource.
type SerialSource struct {
	manager *serialport.Manager
}

// NewSerialSource creates a SerialSource from an already-connected manager.
func NewSerialSource(manager *serialport.Manager) *SerialSource {
	return &SerialSource{manager: manager}
}

func (s *SerialSource) Frames() <-chan model.FrameEnvelope { return s.manager.Frames() }
func (s *SerialSource) Stop()                              { s.manager.Stop() }
func (s *SerialSource) Name() string                       { return s.manager.Name() }
