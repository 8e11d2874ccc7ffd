// Package poll implements a cancellable, self re-arming poller.
//
// A Poller fetches a value, stores it as the latest snapshot and schedules the
// next fetch an interval after the previous one completed, so fetches never
// overlap. Every Start creates a new Subscription with its own identity; results
// that arrive for a subscription that is no longer the active one are dropped.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/nodeinit/internal/log"
)

const (
	// DefaultInterval is the interval used when none is configured.
	DefaultInterval = time.Second
	// DefaultDegradedAfter is the number of consecutive fetch failures that mark a poller as degraded.
	DefaultDegradedAfter = 3
)

// Config is the configuration of a Poller.
type Config[T any] struct {
	// Fetch gets the next value. Errors are not terminal, the fetch is retried on the next interval.
	Fetch func(ctx context.Context) (T, error)
	// StateOf returns the state of a fetched value that is checked against StopStates.
	StateOf func(T) string
	// StopStates are the states that stop the polling.
	StopStates []string
	Interval   time.Duration
	// DegradedAfter is the number of consecutive failures after which the poller reports degraded connectivity.
	DegradedAfter int
	// OnResult is called for every accepted result with the poller lock held, it must not call the poller.
	OnResult func(T)
	Logger   log.Logger
}

func (c *Config[T]) defaults() error {
	if c.Fetch == nil {
		return fmt.Errorf("fetch is required")
	}

	if c.StateOf == nil {
		return fmt.Errorf("state func is required")
	}

	if c.Interval < 0 {
		return fmt.Errorf("interval can't be negative")
	}

	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}

	if c.DegradedAfter <= 0 {
		c.DegradedAfter = DefaultDegradedAfter
	}

	if c.OnResult == nil {
		c.OnResult = func(T) {}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "poll.Poller"})

	return nil
}

// Subscription is a single active poll loop.
type Subscription struct {
	id          string
	cancel      context.CancelFunc
	done        chan struct{}
	fetched     chan struct{}
	fetchedOnce sync.Once
}

// ID returns the subscription identity.
func (s *Subscription) ID() string { return s.id }

// Done is closed when the poll loop of the subscription has finished.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) markFetched() {
	s.fetchedOnce.Do(func() { close(s.fetched) })
}

func (s *Subscription) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Status is the observable state of a poller.
type Status struct {
	SubscriptionID string
	Running        bool
	// Terminal is true when the last accepted result was in a stop state.
	Terminal            bool
	ConsecutiveFailures int
	// Degraded is true when the consecutive failures reached the configured threshold.
	Degraded bool
	LastErr  error
}

// Poller polls a fetch function until a stop state is reached.
type Poller[T any] struct {
	fetch         func(ctx context.Context) (T, error)
	stateOf       func(T) string
	stopStates    map[string]struct{}
	interval      time.Duration
	degradedAfter int
	onResult      func(T)
	logger        log.Logger

	mu        sync.Mutex
	active    *Subscription
	latest    T
	hasLatest bool
	terminal  bool
	failures  int
	lastErr   error
}

// NewPoller returns a new stopped poller.
func NewPoller[T any](cfg Config[T]) (*Poller[T], error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	stop := make(map[string]struct{}, len(cfg.StopStates))
	for _, s := range cfg.StopStates {
		stop[s] = struct{}{}
	}

	return &Poller[T]{
		fetch:         cfg.Fetch,
		stateOf:       cfg.StateOf,
		stopStates:    stop,
		interval:      cfg.Interval,
		degradedAfter: cfg.DegradedAfter,
		onResult:      cfg.OnResult,
		logger:        cfg.Logger,
	}, nil
}

// Start starts polling with a new subscription, superseding the active one if any.
// The latest value of the previous subscription is dropped.
func (p *Poller[T]) Start(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:      ulid.Make().String(),
		cancel:  cancel,
		done:    make(chan struct{}),
		fetched: make(chan struct{}),
	}

	p.mu.Lock()
	if p.active != nil {
		p.active.cancel()
		p.logger.Debugf("Subscription %s superseded by %s", p.active.id, sub.id)
	}
	p.active = sub
	var zero T
	p.latest = zero
	p.hasLatest = false
	p.terminal = false
	p.failures = 0
	p.lastErr = nil
	p.mu.Unlock()

	go p.run(ctx, sub)

	return sub
}

// Stop stops polling. A fetch in flight is discarded when it returns.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return
	}

	p.active.cancel()
	p.active = nil
}

// Latest returns the last accepted value of the current subscription. It is kept after
// the subscription finishes or the poller stops.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.latest, p.hasLatest
}

// Status returns the poller status.
func (p *Poller[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Terminal:            p.terminal,
		ConsecutiveFailures: p.failures,
		Degraded:            p.failures >= p.degradedAfter,
		LastErr:             p.lastErr,
	}
	if p.active != nil {
		st.SubscriptionID = p.active.id
		st.Running = !p.active.finished()
	}

	return st
}

// Wait blocks until the active subscription finishes or the context is done.
func (p *Poller[T]) Wait(ctx context.Context) error {
	p.mu.Lock()
	sub := p.active
	p.mu.Unlock()

	if sub == nil {
		return nil
	}

	select {
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFirst blocks until the first fetch of the active subscription completed,
// the subscription finished or the context is done.
func (p *Poller[T]) WaitFirst(ctx context.Context) error {
	p.mu.Lock()
	sub := p.active
	p.mu.Unlock()

	if sub == nil {
		return nil
	}

	select {
	case <-sub.fetched:
		return nil
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller[T]) run(ctx context.Context, sub *Subscription) {
	defer close(sub.done)
	defer sub.cancel()

	for {
		result, err := p.fetch(ctx)
		if !p.apply(ctx, sub, result, err) {
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// apply stores a fetch result if its subscription is still the active one and
// returns if the loop should continue.
func (p *Poller[T]) apply(ctx context.Context, sub *Subscription, result T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != sub || ctx.Err() != nil {
		p.logger.Debugf("Dropping result of inactive subscription %s", sub.id)
		return false
	}
	defer sub.markFetched()

	if err != nil {
		p.failures++
		p.lastErr = err
		p.logger.Debugf("Fetch failed (%d consecutive): %s", p.failures, err)
		if p.failures == p.degradedAfter {
			p.logger.Warningf("Degraded connectivity after %d consecutive fetch failures: %s", p.failures, err)
		}
		return true
	}

	p.latest = result
	p.hasLatest = true
	p.failures = 0
	p.lastErr = nil
	p.onResult(result)

	state := p.stateOf(result)
	if _, ok := p.stopStates[state]; ok {
		p.terminal = true
		p.logger.Debugf("Stop state %q reached on subscription %s", state, sub.id)
		return false
	}

	return true
}
