package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Retain lists event types that are never dropped under DropIfFull. They
	// wait for room like a blocking dispatcher, bounded by the caller's ctx.
	Retain []string
}

// Dispatcher asynchronously forwards session events to a sink. A nil
// *Dispatcher is valid and drops everything.
type Dispatcher struct {
	cfg       Config
	retain    map[string]struct{}
	now       func() time.Time
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	dropMu sync.Mutex
	byType map[string]uint64
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	retain := make(map[string]struct{}, len(cfg.Retain))
	for _, t := range cfg.Retain {
		retain[t] = struct{}{}
	}

	d := &Dispatcher{
		cfg:    cfg,
		retain: retain,
		now:    time.Now,
		sink:   sink,
		ch:     make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
		byType: map[string]uint64{},
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit stamps event and queues it. With DropIfFull a full buffer drops the
// event and counts it unless its type is retained; otherwise Emit waits for
// room or for ctx.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event.Stamp(d.now())

	if d.cfg.DropIfFull && !d.retained(event.EventType) {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop(event.EventType)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *Dispatcher) retained(eventType string) bool {
	_, ok := d.retain[eventType]
	return ok
}

func (d *Dispatcher) drop(eventType string) {
	d.dropped.Add(1)
	d.dropMu.Lock()
	d.byType[eventType]++
	d.dropMu.Unlock()
}

// Close stops accepting events and flushes what is queued.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of events lost to a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType returns a copy of the drop counts keyed by event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	if d == nil {
		return nil
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	out := make(map[string]uint64, len(d.byType))
	for k, v := range d.byType {
		out[k] = v
	}
	return out
}
