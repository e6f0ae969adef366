package main

import (
	"context"
	"fmt"
	"log"

	"github.com/scanworks/scanbridge/internal/framesource"
	"github.com/scanworks/scanbridge/internal/httpserver"
	"github.com/scanworks/scanbridge/internal/serialport"
)

// NamedFrameSource aliases the shared source abstraction to keep app-layer APIs explicit.
type NamedFrameSource = framesource.FrameSource

// InputSourcePlugin is a small plugin primitive for wiring frame producers.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (NamedFrameSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	SerialEnabled bool
	SerialPort    string
	SerialConf    serialport.Config
	OnSerialState serialport.StateFunc

	HTTPEnabled bool
	HTTPAddr    string
	HTTPConf    httpserver.Config
}

func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	plugins := make([]InputSourcePlugin, 0, 2)
	plugins = append(plugins, serialInputPlugin{
		portName: cfg.SerialPort,
		enabled:  cfg.SerialEnabled,
		conf:     cfg.SerialConf,
		onState:  cfg.OnSerialState,
	})
	plugins = append(plugins, httpInputPlugin{
		addr:    cfg.HTTPAddr,
		enabled: cfg.HTTPEnabled,
		conf:    cfg.HTTPConf,
	})
	return plugins
}

type serialInputPlugin struct {
	portName string
	enabled  bool
	conf     serialport.Config
	onState  serialport.StateFunc
}

func (p serialInputPlugin) Name() string { return "serial" }

func (p serialInputPlugin) Enabled() bool { return p.enabled }

// Build creates the connection manager and attempts the initial connect.
// A failed connect is not fatal: the process keeps serving HTTP, and the
// manager stays around for a later explicit reconnect.
func (p serialInputPlugin) Build(_ context.Context) (NamedFrameSource, error) {
	manager := serialport.NewManager(nil, p.onState, p.conf)
	if err := manager.Connect(p.portName); err != nil {
		log.Printf("serial: initial connect failed: %v", err)
	}
	return framesource.NewSerialSource(manager), nil
}

type httpInputPlugin struct {
	addr    string
	enabled bool
	conf    httpserver.Config
}

func (p httpInputPlugin) Name() string { return "http" }

func (p httpInputPlugin) Enabled() bool { return p.enabled }

func (p httpInputPlugin) Build(_ context.Context) (NamedFrameSource, error) {
	server := httpserver.NewServer(p.addr, p.conf)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start http server: %w", err)
	}
	return framesource.NewHTTPSource(server), nil
}
