package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned by Do after Stop.
var ErrLoopStopped = errors.New("view loop stopped")

// Loop is the single goroutine that owns a Controller. Work submitted with
// Do never runs concurrently with a tick.
type Loop struct {
	ctrl     *Controller
	interval time.Duration
	logger   *zap.Logger

	work    chan func(*Controller)
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	subsMu sync.Mutex
	subs   map[int]chan Frame
	nextID int
}

// NewLoop creates a loop ticking at most once per interval.
func NewLoop(ctrl *Controller, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		ctrl:     ctrl,
		interval: interval,
		logger:   logger,
		work:     make(chan func(*Controller)),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		subs:     make(map[int]chan Frame),
	}
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.stopped)
	defer l.ctrl.Stop()

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		// ticks are only scheduled while the simulation is active
		var tickC <-chan time.Time
		if l.ctrl.Running() {
			if ticker == nil {
				ticker = time.NewTicker(l.interval)
			}
			tickC = ticker.C
		} else if ticker != nil {
			ticker.Stop()
			ticker = nil
		}

		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case job := <-l.work:
			job(l.ctrl)
			l.publish()
		case <-tickC:
			l.ctrl.Tick()
			l.publish()
		}
	}
}

// Do runs fn on the loop goroutine and returns its error.
func (l *Loop) Do(ctx context.Context, fn func(c *Controller) error) error {
	errc := make(chan error, 1)
	job := func(c *Controller) { errc <- fn(c) }

	select {
	case l.work <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	case <-l.stopped:
		return ErrLoopStopped
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that always holds the latest frame and a
// function that ends the subscription.
func (l *Loop) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	l.subsMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.subsMu.Unlock()

	return ch, func() {
		l.subsMu.Lock()
		delete(l.subs, id)
		l.subsMu.Unlock()
	}
}

func (l *Loop) publish() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	if len(l.subs) == 0 {
		return
	}
	f := l.ctrl.Frame()
	for _, ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		ch <- f
	}
}

// Stop ends the loop; the simulation is halted as the goroutine exits.
// Stop does not wait, use Wait for that.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Wait blocks until the loop goroutine has exited.
func (l *Loop) Wait() {
	<-l.stopped
}
