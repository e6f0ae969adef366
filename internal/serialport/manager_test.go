package serialport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scanworks/scanbridge/internal/model"
)

// fakePort replays scripted read chunks, then idles (n == 0, like a timed-out
// device read) or fails with err once the script is exhausted.
type fakePort struct {
	mu        sync.Mutex
	chunks    [][]byte
	err       error
	closed    bool
	closeOnce sync.Once
	closedCh  chan struct{}
}

func newFakePort(chunks ...[]byte) *fakePort {
	return &fakePort{chunks: chunks, closedCh: make(chan struct{})}
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("read on closed port")
	}
	if len(p.chunks) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, nil
	}
	c := p.chunks[0]
	p.chunks = p.chunks[1:]
	return copy(b, c), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.closeOnce.Do(func() { close(p.closedCh) })
	return nil
}

func fastConfig() Config {
	return Config{PollInterval: time.Millisecond, ReopenDelay: 5 * time.Millisecond}
}

func waitState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", m.State(), want)
}

func recvFrame(t *testing.T, m *Manager) model.FrameEnvelope {
	t.Helper()
	select {
	case env := <-m.Frames():
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return model.FrameEnvelope{}
	}
}

func TestConnectReadsFragmentedFrames(t *testing.T) {
	t.Parallel()
	port := newFakePort(
		[]byte(`{"type":"barcode","da`),
		[]byte(`ta":"S1"}{"type":"bar`),
		[]byte(`code","data":"S2"}`),
	)
	m := NewManager(func(string) (Port, error) { return port, nil }, nil, fastConfig())
	defer m.Stop()

	if err := m.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitState(t, m, StateConnected)

	first := recvFrame(t, m)
	if string(first.Frame) != `{"type":"barcode","data":"S1"}` {
		t.Errorf("frame 1 = %q", first.Frame)
	}
	if first.Source != "serial" {
		t.Errorf("source = %q, want serial", first.Source)
	}
	if first.ID == "" {
		t.Error("frame envelope missing ingest ID")
	}
	second := recvFrame(t, m)
	if string(second.Frame) != `{"type":"barcode","data":"S2"}` {
		t.Errorf("frame 2 = %q", second.Frame)
	}
}

func TestReadErrorDisconnectsWithoutReconnect(t *testing.T) {
	t.Parallel()
	port := newFakePort([]byte(`{"a":1}`))
	port.err = errors.New("device unplugged")

	var mu sync.Mutex
	var transitions []State
	onState := func(s State, _ string) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	}

	m := NewManager(func(string) (Port, error) { return port, nil }, onState, fastConfig())
	defer m.Stop()

	if err := m.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	recvFrame(t, m)
	waitState(t, m, StateDisconnected)

	mu.Lock()
	got := append([]State(nil), transitions...)
	mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateDisconnected}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
}

func TestConnectFailureReportsDisconnected(t *testing.T) {
	t.Parallel()
	m := NewManager(func(string) (Port, error) {
		return nil, errors.New("no such device")
	}, nil, fastConfig())
	defer m.Stop()

	if err := m.Connect("/dev/ttyUSB9"); err == nil {
		t.Fatal("Connect should fail")
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
}

func TestReconnectClosesOldHandleFirst(t *testing.T) {
	t.Parallel()
	first := newFakePort()
	second := newFakePort([]byte(`{"b":2}`))
	ports := []*fakePort{first, second}
	var opens int

	m := NewManager(func(string) (Port, error) {
		p := ports[opens]
		opens++
		return p, nil
	}, nil, fastConfig())
	defer m.Stop()

	if err := m.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := m.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	select {
	case <-first.closedCh:
	default:
		t.Error("first handle not closed before reopen")
	}
	if opens != 2 {
		t.Errorf("opens = %d, want 2", opens)
	}
	env := recvFrame(t, m)
	if string(env.Frame) != `{"b":2}` {
		t.Errorf("frame = %q", env.Frame)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()
	m := NewManager(func(string) (Port, error) { return newFakePort(), nil }, nil, fastConfig())
	if err := m.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	m.Stop()
	m.Stop()
	m.Disconnect()

	if _, ok := <-m.Frames(); ok {
		t.Error("frame channel should be closed after Stop")
	}
}
