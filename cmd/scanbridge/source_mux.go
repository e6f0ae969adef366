package main

import (
	"context"
	"sync"

	"github.com/scanworks/scanbridge/internal/model"
)

// DefaultMuxBuffer is the default channel buffer size for the source multiplexer.
const DefaultMuxBuffer = 10_000

// SourceMultiplexer merges multiple frame producers into a single read-only
// stream. It is the single-consumer queue both producers feed; the ingest
// loop draining it is the system's one serialization point.
type SourceMultiplexer struct {
	ctx    context.Context
	cancel context.CancelFunc

	sources []NamedFrameSource
	frames  chan model.FrameEnvelope

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSourceMultiplexer(parent context.Context, sources []NamedFrameSource, buffer int) *SourceMultiplexer {
	if buffer <= 0 {
		buffer = DefaultMuxBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	return &SourceMultiplexer{
		ctx:     ctx,
		cancel:  cancel,
		sources: sources,
		frames:  make(chan model.FrameEnvelope, buffer),
	}
}

func (m *SourceMultiplexer) Start() {
	m.startOnce.Do(func() {
		if len(m.sources) == 0 {
			m.closeOutput()
			return
		}

		for _, src := range m.sources {
			src := src
			m.wg.Add(1)
			go m.forward(src)
		}

		go func() {
			m.wg.Wait()
			m.closeOutput()
		}()
	})
}

func (m *SourceMultiplexer) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		for _, src := range m.sources {
			src.Stop()
		}
		m.wg.Wait()
		m.closeOutput()
	})
}

func (m *SourceMultiplexer) HasSources() bool {
	return len(m.sources) > 0
}

func (m *SourceMultiplexer) Frames() <-chan model.FrameEnvelope {
	return m.frames
}

func (m *SourceMultiplexer) forward(src NamedFrameSource) {
	defer m.wg.Done()

	sourceFrames := src.Frames()
	for {
		select {
		case <-m.ctx.Done():
			return
		case env, ok := <-sourceFrames:
			if !ok {
				return
			}
			if len(env.Frame) == 0 {
				continue
			}
			select {
			case m.frames <- env:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

func (m *SourceMultiplexer) closeOutput() {
	m.closeOnce.Do(func() {
		close(m.frames)
	})
}
