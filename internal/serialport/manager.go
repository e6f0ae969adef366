package serialport

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scanworks/scanbridge/internal/frame"
	"github.com/scanworks/scanbridge/internal/model"
)

// State is the serial connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	// DefaultPollInterval bounds CPU usage between device polls without
	// adding noticeable latency.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultReopenDelay is how long a reconnect waits after closing an open
	// handle, so the device is fully released before reopening.
	DefaultReopenDelay = 1 * time.Second

	// DefaultFrameBuffer is the default channel buffer size for extracted frames.
	DefaultFrameBuffer = 1024

	readChunkSize = 4096
)

// Config holds tunable parameters for the manager.
type Config struct {
	PollInterval time.Duration
	ReopenDelay  time.Duration
	FrameBuffer  int
	MaxFrameSize int
}

// StateFunc observes connection state transitions. It is called from manager
// goroutines and must not block.
type StateFunc func(state State, portName string)

// Manager owns at most one serial connection at a time. Its read loop polls
// the device, feeds bytes to the frame extractor, and forwards each extracted
// frame in order. An I/O error ends the connection; there is no auto-reconnect.
type Manager struct {
	open    Opener
	onState StateFunc
	conf    Config

	frames    chan model.FrameEnvelope
	closeOnce sync.Once

	mu       sync.Mutex
	state    State
	port     Port
	portName string
	done     chan struct{} // per-connection; nil when disconnected
	wg       sync.WaitGroup
}

// NewManager creates a disconnected manager. open defaults to the real device
// opener; onState may be nil.
func NewManager(open Opener, onState StateFunc, conf ...Config) *Manager {
	c := Config{
		PollInterval: DefaultPollInterval,
		ReopenDelay:  DefaultReopenDelay,
		FrameBuffer:  DefaultFrameBuffer,
	}
	if len(conf) > 0 {
		if conf[0].PollInterval > 0 {
			c.PollInterval = conf[0].PollInterval
		}
		if conf[0].ReopenDelay > 0 {
			c.ReopenDelay = conf[0].ReopenDelay
		}
		if conf[0].FrameBuffer > 0 {
			c.FrameBuffer = conf[0].FrameBuffer
		}
		if conf[0].MaxFrameSize > 0 {
			c.MaxFrameSize = conf[0].MaxFrameSize
		}
	}
	if open == nil {
		open = Open
	}
	return &Manager{
		open:    open,
		onState: onState,
		conf:    c,
		frames:  make(chan model.FrameEnvelope, c.FrameBuffer),
	}
}

// Connect opens the device at portName and starts the read loop. Connecting
// while a connection is open first closes it and waits briefly before
// reopening, to avoid contention on the device handle.
func (m *Manager) Connect(portName string) error {
	m.mu.Lock()
	if m.port != nil {
		m.teardownLocked()
		m.mu.Unlock()
		m.wg.Wait()
		time.Sleep(m.conf.ReopenDelay)
		m.mu.Lock()
	}

	m.setStateLocked(StateConnecting, portName)
	m.mu.Unlock()

	port, err := m.open(portName)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.setStateLocked(StateDisconnected, portName)
		return fmt.Errorf("serialport: connect %s: %w", portName, err)
	}

	m.port = port
	m.portName = portName
	m.done = make(chan struct{})
	m.setStateLocked(StateConnected, portName)

	m.wg.Add(1)
	go m.readLoop(port, portName, m.done)
	return nil
}

// Disconnect closes the active connection, if any. Safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.teardownLocked()
	m.mu.Unlock()
	m.wg.Wait()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Frames returns the channel of extracted frames. It stays open across
// reconnects and closes only on Stop.
func (m *Manager) Frames() <-chan model.FrameEnvelope { return m.frames }

// Name identifies this producer in envelopes and logs.
func (m *Manager) Name() string { return "serial" }

// Stop disconnects and closes the frame channel. Idempotent.
func (m *Manager) Stop() {
	m.Disconnect()
	m.closeOnce.Do(func() { close(m.frames) })
}

// readLoop polls the device until the connection ends. Each poll reads the
// available bytes, feeds them to the extractor, and forwards complete frames.
func (m *Manager) readLoop(port Port, portName string, done chan struct{}) {
	defer m.wg.Done()

	extractor := frame.NewExtractor(frame.Config{MaxFrameSize: m.conf.MaxFrameSize})
	buf := make([]byte, readChunkSize)

	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-done:
				// Expected: Disconnect closed the handle under us.
			default:
				log.Printf("serialport: read error on %s: %v", portName, err)
				m.ioError()
			}
			return
		}

		if n > 0 {
			for _, f := range extractor.Feed(buf[:n]) {
				env := model.FrameEnvelope{
					Source: m.Name(),
					ID:     uuid.NewString(),
					Frame:  f,
				}
				select {
				case m.frames <- env:
				case <-done:
					return
				}
			}
			continue
		}

		select {
		case <-done:
			return
		case <-time.After(m.conf.PollInterval):
		}
	}
}

// ioError tears down the connection from inside the read loop.
func (m *Manager) ioError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// teardownLocked closes the handle and signals the read loop. Callers hold mu.
func (m *Manager) teardownLocked() {
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	if m.port != nil {
		if err := m.port.Close(); err != nil {
			log.Printf("serialport: close %s: %v", m.portName, err)
		}
		m.port = nil
	}
	m.setStateLocked(StateDisconnected, m.portName)
}

func (m *Manager) setStateLocked(s State, portName string) {
	if m.state == s {
		return
	}
	m.state = s
	if m.onState != nil {
		m.onState(s, portName)
	}
}
