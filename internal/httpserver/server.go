// Package httpserver accepts barcode submissions over HTTP. Each POST body is
// one complete frame; HTTP's own framing stands in for brace matching.
package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scanworks/scanbridge/internal/model"
)

// DefaultFrameBuffer is the default channel buffer size for accepted frames.
const DefaultFrameBuffer = 1024

// Config holds tunable parameters for the HTTP server.
type Config struct {
	FrameBuffer int
}

// Server receives one frame per POST and pushes it onto the frame channel.
// A health endpoint reports a static OK independent of ingestion state.
type Server struct {
	addr     string
	frames   chan model.FrameEnvelope
	server   *http.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a new HTTP ingest server. Default addr is "0.0.0.0:5000".
func NewServer(addr string, conf ...Config) *Server {
	if addr == "" {
		addr = "0.0.0.0:5000"
	}
	frameBuffer := DefaultFrameBuffer
	if len(conf) > 0 && conf[0].FrameBuffer > 0 {
		frameBuffer = conf[0].FrameBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		frames: make(chan model.FrameEnvelope, frameBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go s.server.Serve(listener)
	return nil
}

// Stop shuts the server down and closes the frame channel. Idempotent.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	close(s.frames)
	return err
}

// Frames returns the channel of accepted frames.
func (s *Server) Frames() <-chan model.FrameEnvelope { return s.frames }

// Name identifies this producer in envelopes and logs.
func (s *Server) Name() string { return "http" }

// Addr returns the active listen address. Before Start, it returns the
// configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/barcode", s.handleBarcode)
	r.GET("/health", s.handleHealth)
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})
	return r
}

func (s *Server) handleBarcode(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusInternalServerError, "reading request body: %v", err)
		return
	}

	// The body must be one well-formed JSON frame; the parse also supplies
	// the barcode identifier echoed in the acknowledgment.
	var msg model.WireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.String(http.StatusInternalServerError, "invalid JSON body: %v", err)
		return
	}
	barcodeID := "unknown"
	if msg.Data != nil {
		barcodeID = *msg.Data
	}

	env := model.FrameEnvelope{
		Source: s.Name(),
		ID:     uuid.NewString(),
		Frame:  body,
	}
	select {
	case s.frames <- env:
	case <-s.ctx.Done():
		c.String(http.StatusInternalServerError, "server shutting down")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":       "ack",
		"barcode_id": barcodeID,
		"message":    "Received",
		"timestamp":  float64(time.Now().UnixNano()) / float64(time.Second),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
