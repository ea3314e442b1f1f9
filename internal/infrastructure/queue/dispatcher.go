package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Outcome values passed to an Observer.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Observer is told how each notification ended.
type Observer func(kind ports.NotificationKind, outcome string)

// Dispatcher delivers notifications on a fixed set of workers. Notifications
// are sharded by recipient so one recipient's messages arrive in order.
type Dispatcher struct {
	workers  []chan ports.Notification
	notifier ports.Notifier
	observe  Observer
	log      zerolog.Logger

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. observe may be nil.
func NewDispatcher(numWorkers int, notifier ports.Notifier, observe Observer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if observe == nil {
		observe = func(ports.NotificationKind, string) {}
	}
	d := &Dispatcher{
		workers:  make([]chan ports.Notification, numWorkers),
		notifier: notifier,
		observe:  observe,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// once Close has drained their queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands n to the worker responsible for its recipient. It never
// blocks: when that worker's buffer is full, or the dispatcher is closed, the
// notification is dropped and logged.
func (d *Dispatcher) Enqueue(n ports.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}
	select {
	case d.workers[d.shardIndex(n.Recipient)] <- n:
	default:
		d.drop(n, "worker queue full")
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(n ports.Notification, reason string) {
	d.observe(n.Kind, OutcomeDropped)
	d.log.Warn().
		Str("kind", string(n.Kind)).
		Str("recipient", n.Recipient).
		Str("reason", reason).
		Msg("notification dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := d.notifier.Send(ctx, n); err != nil {
				d.observe(n.Kind, OutcomeFailed)
				d.log.Error().Err(err).
					Str("kind", string(n.Kind)).
					Str("recipient", n.Recipient).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			d.observe(n.Kind, OutcomeSent)
		}
	}
}
