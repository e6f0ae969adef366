package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/scanworks/scanbridge/internal/framesource"
	"github.com/scanworks/scanbridge/internal/httpserver"
	"github.com/scanworks/scanbridge/internal/ingest"
	"github.com/scanworks/scanbridge/internal/logstore"
	"github.com/scanworks/scanbridge/internal/serialport"
)

// scriptedPort replays one burst of bytes, then idles.
type scriptedPort struct {
	data []byte
	done bool
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if p.done {
		return 0, nil
	}
	p.done = true
	return copy(b, p.data), nil
}

func (p *scriptedPort) Close() error { return nil }

// End-to-end: a real HTTP POST and a scripted serial burst travel through the
// mux and pipeline into the same day's log file.
func TestIngestEndToEnd(t *testing.T) {
	store, err := logstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("logstore.New: %v", err)
	}
	pipeline := ingest.NewPipeline(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpSrv := httpserver.NewServer("127.0.0.1:0")
	if err := httpSrv.Start(); err != nil {
		t.Fatalf("http Start: %v", err)
	}

	port := &scriptedPort{data: []byte(`{"type":"barcode","data":"SER-1","format":"QR"}`)}
	manager := serialport.NewManager(func(string) (serialport.Port, error) { return port, nil }, nil,
		serialport.Config{PollInterval: time.Millisecond})
	if err := manager.Connect("fake"); err != nil {
		t.Fatalf("serial Connect: %v", err)
	}

	mux := NewSourceMultiplexer(ctx, []NamedFrameSource{
		framesource.NewSerialSource(manager),
		framesource.NewHTTPSource(httpSrv),
	}, 64)
	mux.Start()

	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		for env := range mux.Frames() {
			pipeline.ProcessFrame(env)
		}
	}()

	resp, err := http.Post("http://"+httpSrv.Addr()+"/barcode", "application/json",
		bytes.NewBufferString(`{"type":"DATA","payload":{"content":"NET-1"}}`))
	if err != nil {
		t.Fatalf("POST /barcode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	path := store.FileForDate(time.Now())
	deadline := time.Now().Add(2 * time.Second)
	var content string
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			content = string(data)
			if strings.Contains(content, "SER-1") && strings.Contains(content, "NET-1") {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
	}

	mux.Stop()
	<-ingestDone

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2:\n%s", len(lines), content)
	}
	for _, line := range lines {
		if parts := strings.Split(line, " | "); len(parts) != 3 {
			t.Errorf("malformed line %q", line)
		}
	}
	if !strings.Contains(content, "SER-1 | QR") {
		t.Errorf("serial event missing or malformed:\n%s", content)
	}
	if !strings.Contains(content, "NET-1 | UNKNOWN") {
		t.Errorf("http event missing or malformed:\n%s", content)
	}
}
