// Package serialport owns the scanner-side byte source: the device handle and
// the connection manager that turns its stream into frames.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Scanner devices speak 115200 8N1.
const (
	BaudRate    = 115200
	readTimeout = 1 * time.Second
)

// Port is the minimal device contract the manager needs. Reads are expected
// to time out with n == 0 when no bytes are available rather than block.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens the device at a port identifier. Tests substitute a fake.
type Opener func(name string) (Port, error)

// Open opens a real serial device at 115200 8N1, arms the read timeout, and
// clears any stale bytes in the device buffers.
func Open(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serialport: set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serialport: reset input buffer: %w", err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serialport: reset output buffer: %w", err)
	}
	return port, nil
}
