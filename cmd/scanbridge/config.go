package main

import (
	"time"

	"github.com/scanworks/scanbridge/internal/frame"
	"github.com/scanworks/scanbridge/internal/serialport"
)

const (
	defaultBindHost     = "0.0.0.0"
	defaultHTTPPort     = 5000
	defaultSerialPort   = "/dev/ttyUSB0"
	defaultPollInterval = serialport.DefaultPollInterval
	defaultMuxBuffer    = DefaultMuxBuffer
	defaultMaxFrame     = frame.DefaultMaxFrameSize
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	SerialEnabled bool          `mapstructure:"serial-enabled"`
	SerialPort    string        `mapstructure:"serial-port"`
	PollInterval  time.Duration `mapstructure:"poll-interval"`
	HTTPEnabled   bool          `mapstructure:"http-enabled"`
	HTTPPort      int           `mapstructure:"http-port"`
	HTTPAddr      string        `mapstructure:"http-addr"`
	DataDir       string        `mapstructure:"data-dir"`
	MuxBufferSize int           `mapstructure:"mux-buffer-size"`
	MaxFrameSize  int           `mapstructure:"max-frame-size"`
	ConfigPath    string        `mapstructure:"-"` // not from config file
}
