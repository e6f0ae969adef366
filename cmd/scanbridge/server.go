package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/scanworks/scanbridge/internal/ingest"
	"github.com/scanworks/scanbridge/internal/logstore"
	"github.com/scanworks/scanbridge/internal/serialport"
)

// runServer starts headless barcode ingestion from the configured producers.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	store, err := logstore.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize barcode store: %w", err)
	}

	pipeline := ingest.NewPipeline(store)

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	// Build input plugins and source multiplexer
	plugins := buildInputPlugins(InputPluginConfig{
		SerialEnabled: cfg.SerialEnabled,
		SerialPort:    cfg.SerialPort,
		SerialConf: serialport.Config{
			PollInterval: cfg.PollInterval,
			MaxFrameSize: cfg.MaxFrameSize,
		},
		OnSerialState: func(state serialport.State, portName string) {
			log.Printf("serial: %s (%s)", state, portName)
		},
		HTTPEnabled: cfg.HTTPEnabled,
		HTTPAddr:    cfg.HTTPAddr,
	})

	sources := make([]NamedFrameSource, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing input plugin %q: %v", plugin.Name(), err)
			continue
		}
		sources = append(sources, src)
	}

	mux := NewSourceMultiplexer(ctx, sources, cfg.MuxBufferSize)
	mux.Start()

	printStartupBanner(cfg, mux.HasSources())

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Ingestion loop: the single consumer of the merged frame stream.
	if mux.HasSources() {
		g.Go(func() error {
			for env := range mux.Frames() {
				pipeline.ProcessFrame(env)
			}
			return nil
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	// Wait for either signal or all sources to close.
	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()
	mux.Stop()

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "scanbridge")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "scanbridge.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, hasSources bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╔═╗╔═╗╔╗╔╔╗ ╦═╗╦╔╦╗╔═╗╔═╗
    ╚═╗║  ╠═╣║║║╠╩╗╠╦╝║ ║║║ ╦║╣
    ╚═╝╚═╝╩ ╩╝╚╝╚═╝╩╚═╩═╩╝╚═╝╚═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Producers
	lines = append(lines, bold.Render("    Producers"))
	lines = append(lines, "")

	if cfg.SerialEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Serial Scanner %s", check, cyan.Render(cfg.SerialPort)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Serial Scanner %s", dot, dim.Render("disabled")))
	}

	if cfg.HTTPEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP Ingest    %s", check, cyan.Render(cfg.HTTPAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP Ingest    %s", dot, dim.Render("disabled")))
	}

	if !hasSources {
		lines = append(lines, fmt.Sprintf("    %s  %s", dot, yellow.Render("no producers active")))
	}

	lines = append(lines, "")

	// Storage
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Barcode Log    %s", check, dim.Render(shortenPath(cfg.DataDir))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
