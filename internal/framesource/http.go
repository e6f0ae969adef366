package framesource

import (
	"github.com/scanworks/scanbridge/internal/httpserver"
	"github.com/scanworks/scanbridge/internal/model"
)

// HTTPSource wraps an httpserver.Server as a FrameSource.
type HTTPSource struct {
	server *httpserver.Server
}

// NewHTTPSource creates an HTTPSource from an already-started HTTP server.
func NewHTTPSource(server *httpserver.Server) *HTTPSource {
	return &HTTPSource{server: server}
}

func (h *HTTPSource) Frames() <-chan model.FrameEnvelope { return h.server.Frames() }
func (h *HTTPSource) Stop()                              { _ = h.server.Stop() }
func (h *HTTPSource) Name() string                       { return h.server.Name() }
