package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is one frame at ~60 FPS.
const DefaultInterval = 16 * time.Millisecond

// postQueueSize bounds pending owner callbacks between frames.
const postQueueSize = 64

// ErrStopped is returned by Post after the manager has stopped.
var ErrStopped = errors.New("tick manager stopped")

// TickManager calls Tick on every registered Ticker once per frame,
// in ascending id order.
// All ticks and posted callbacks run on the goroutine that called Start,
// so tickers need no locking against each other or against Post callbacks.
type TickManager struct {
	tickers     sync.Map // map[uint32]Ticker
	mu          sync.Mutex
	order       []uint32 // registered ids, sorted
	frameOrder  []uint32 // per-frame copy of order, owned by the tick goroutine
	interval    time.Duration
	posts       chan func()
	stopCh      chan struct{}
	stopOnce    sync.Once
	tickerCount atomic.Int32 // cached count of tickers (O(1) access)
	frames      atomic.Uint64
}

// NewTickManager creates a manager ticking every interval.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickManager{
		interval: interval,
		posts:    make(chan func(), postQueueSize),
		stopCh:   make(chan struct{}),
	}
}

// Register registers a ticker under id, replacing any previous one.
func (m *TickManager) Register(id uint32, t Ticker) {
	m.mu.Lock()
	if _, loaded := m.tickers.Swap(id, t); !loaded {
		m.tickerCount.Add(1)
		i, _ := slices.BinarySearch(m.order, id)
		m.order = slices.Insert(m.order, i, id)
	}
	m.mu.Unlock()

	slog.Debug("ticker registered", "id", id)
}

// Unregister removes a ticker and closes it if it supports Close.
// Must not be called from inside a Tick.
func (m *TickManager) Unregister(id uint32) {
	m.mu.Lock()
	value, ok := m.tickers.LoadAndDelete(id)
	if !ok {
		m.mu.Unlock()
		return
	}
	if i, found := slices.BinarySearch(m.order, id); found {
		m.order = slices.Delete(m.order, i, i+1)
	}
	m.mu.Unlock()

	m.tickerCount.Add(-1)

	if c, ok := value.(closer); ok {
		c.Close()
	}

	slog.Debug("ticker unregistered", "id", id)
}

// Post schedules fn to run on the tick goroutine before the next frame.
// Use it to mutate tickers from other goroutines.
func (m *TickManager) Post(ctx context.Context, fn func()) error {
	select {
	case <-m.stopCh:
		return ErrStopped
	default:
	}

	select {
	case m.posts <- fn:
		return nil
	case <-m.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the frame loop (blocks until context is canceled or Stop is called).
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping", "frames", m.Frames())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped", "frames", m.Frames())
			return nil

		case <-ticker.C:
			m.frame()
		}
	}
}

// Stop stops the frame loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// frame runs pending posts, then ticks every ticker.
func (m *TickManager) frame() {
	m.drainPosts()
	m.tickAll()
	m.frames.Add(1)
}

func (m *TickManager) drainPosts() {
	for {
		select {
		case fn := <-m.posts:
			fn()
		default:
			return
		}
	}
}

// tickAll ticks all registered tickers in id order
func (m *TickManager) tickAll() {
	m.mu.Lock()
	m.frameOrder = append(m.frameOrder[:0], m.order...)
	m.mu.Unlock()

	for _, id := range m.frameOrder {
		value, ok := m.tickers.Load(id)
		if !ok {
			continue
		}
		value.(Ticker).Tick()
	}
}

// Count returns number of registered tickers (O(1) cached count)
func (m *TickManager) Count() int {
	return int(m.tickerCount.Load())
}

// Frames returns the number of frames run so far.
func (m *TickManager) Frames() uint64 {
	return m.frames.Load()
}

// GetTicker returns the ticker registered under id.
func (m *TickManager) GetTicker(id uint32) (Ticker, error) {
	value, ok := m.tickers.Load(id)
	if !ok {
		return nil, fmt.Errorf("ticker not found for id %d", id)
	}
	return value.(Ticker), nil
}
