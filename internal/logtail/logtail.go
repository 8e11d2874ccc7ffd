// Package logtail tails incremental node job logs into an append only buffer.
package logtail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/poll"
)

const stateDone = "DONE"

// TailerConfig is the configuration of the log tailer.
type TailerConfig struct {
	Client  client.Client
	Request client.LogRequest
	// AppendToEnd appends new fragments at the end, otherwise they are prepended (newest first).
	AppendToEnd bool
	Interval    time.Duration
	// OnFragment is called for every new non empty fragment.
	OnFragment func(fragment string)
	Logger     log.Logger
}

func (c *TailerConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Request.NodeID == "" {
		return fmt.Errorf("node id is required")
	}

	if c.Request.JobID == "" {
		return fmt.Errorf("job id is required")
	}

	if c.Request.Kind == "" {
		c.Request.Kind = model.JobKindNode
	}

	if c.OnFragment == nil {
		c.OnFragment = func(string) {}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "logtail.Tailer", "node": c.Request.NodeID})

	return nil
}

// Tailer polls the log of a node and accumulates it on a Buffer.
type Tailer struct {
	cli         client.Client
	req         client.LogRequest
	appendToEnd bool
	onFragment  func(string)
	buffer      *Buffer
	poller      *poll.Poller[model.LogChunk]
	logger      log.Logger

	mu     sync.Mutex
	offset int64
}

// NewTailer returns a new stopped tailer.
func NewTailer(cfg TailerConfig) (*Tailer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	t := &Tailer{
		cli:         cfg.Client,
		req:         cfg.Request,
		appendToEnd: cfg.AppendToEnd,
		onFragment:  cfg.OnFragment,
		buffer:      &Buffer{},
		logger:      cfg.Logger,
		offset:      cfg.Request.Offset,
	}

	p, err := poll.NewPoller(poll.Config[model.LogChunk]{
		Fetch:      t.fetch,
		StateOf:    chunkState,
		StopStates: []string{stateDone},
		Interval:   cfg.Interval,
		OnResult:   t.accumulate,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}
	t.poller = p

	return t, nil
}

// Start starts tailing the log.
func (t *Tailer) Start(ctx context.Context) *poll.Subscription {
	return t.poller.Start(ctx)
}

// Stop stops tailing, the buffer is kept.
func (t *Tailer) Stop() { t.poller.Stop() }

// Wait blocks until the log is done, the tailer is stopped or the context is done.
func (t *Tailer) Wait(ctx context.Context) error { return t.poller.Wait(ctx) }

// Buffer returns the accumulated log.
func (t *Tailer) Buffer() *Buffer { return t.buffer }

// Status returns the underlying poller status.
func (t *Tailer) Status() poll.Status { return t.poller.Status() }

// Reset clears the buffer and restarts the log from the beginning on the next fetch.
func (t *Tailer) Reset() {
	t.mu.Lock()
	t.offset = 0
	t.mu.Unlock()
	t.buffer.Reset()
}

func (t *Tailer) fetch(ctx context.Context) (model.LogChunk, error) {
	t.mu.Lock()
	req := t.req
	req.Offset = t.offset
	t.mu.Unlock()

	chunk, err := t.cli.GetLog(ctx, req)
	if err != nil {
		return model.LogChunk{}, fmt.Errorf("could not get log: %w", err)
	}

	return *chunk, nil
}

// accumulate is called by the poller only for results of the active subscription.
func (t *Tailer) accumulate(chunk model.LogChunk) {
	t.mu.Lock()
	if chunk.Offset > t.offset {
		t.offset = chunk.Offset
	}
	t.mu.Unlock()

	if chunk.Content == "" {
		return
	}

	t.buffer.Append(chunk.Content, t.appendToEnd)
	t.onFragment(chunk.Content)
}

func chunkState(c model.LogChunk) string {
	if c.Done {
		return stateDone
	}
	return ""
}
