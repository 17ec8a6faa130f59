package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/internal/syncutil"
)

// errTransportClosed rejects subscriptions after Cleanup.
var errTransportClosed = errors.New("bus: transport is closed")

// PullSource is the pull side of a remote medium: point-to-point send and
// per-agent drain, with no push capability of its own. Queue-backed
// transports typically expose exactly this surface.
type PullSource interface {
	Send(msg Message) error
	Receive(agentID string) ([]Message, error)
}

const defaultPollInterval = 100 * time.Millisecond

// PollingTransport adapts a PullSource into a full Transport by polling
// each subscribed agent's queue on an interval. Polling goroutines run on
// a bounded worker pool, so a deployment with many subscribed agents does
// not spawn an unbounded number of concurrently-polling goroutines.
//
// Messages drained in one poll are dispatched synchronously from that
// agent's poller, so per-sender ordering survives as long as the
// underlying medium preserves it. The interval is a transport parameter;
// subscribers only rely on eventually seeing every message addressed to
// their agent.
type PollingTransport struct {
	source   PullSource
	interval time.Duration
	pool     *syncutil.WorkerPool

	mu       sync.Mutex
	handlers map[string][]Handler
	stops    map[string]chan struct{}
	closed   bool
}

// NewPollingTransport wraps source. An interval <= 0 defaults to 100ms; a
// maxPollers <= 0 defaults to 8.
func NewPollingTransport(source PullSource, interval time.Duration, maxPollers int) *PollingTransport {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxPollers <= 0 {
		maxPollers = 8
	}
	return &PollingTransport{
		source:   source,
		interval: interval,
		pool:     syncutil.NewWorkerPool(maxPollers),
		handlers: make(map[string][]Handler),
		stops:    make(map[string]chan struct{}),
	}
}

// Send forwards msg to the underlying medium.
func (t *PollingTransport) Send(msg Message) error {
	return t.source.Send(msg)
}

// Receive drains the underlying medium directly. Messages drained here are
// not seen by push handlers.
func (t *PollingTransport) Receive(agentID string) ([]Message, error) {
	return t.source.Receive(agentID)
}

// Subscribe installs handler for agentID and starts the agent's poller on
// first subscription.
func (t *PollingTransport) Subscribe(agentID string, handler Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errTransportClosed
	}
	t.handlers[agentID] = append(t.handlers[agentID], handler)
	if _, running := t.stops[agentID]; running {
		return nil
	}

	stop := make(chan struct{})
	t.stops[agentID] = stop
	return t.pool.Submit(func() { t.poll(agentID, stop) })
}

// poll drains agentID's queue on every tick until stopped, handing each
// message to the handlers registered at delivery time, in registration
// order.
func (t *PollingTransport) poll(agentID string, stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			msgs, err := t.source.Receive(agentID)
			if err != nil {
				continue
			}
			for _, msg := range msgs {
				t.mu.Lock()
				handlers := append([]Handler(nil), t.handlers[agentID]...)
				t.mu.Unlock()
				for _, h := range handlers {
					h(msg)
				}
			}
		}
	}
}

// Unsubscribe removes all handlers for agentID and stops its poller.
// Idempotent.
func (t *PollingTransport) Unsubscribe(agentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, agentID)
	if stop, ok := t.stops[agentID]; ok {
		close(stop)
		delete(t.stops, agentID)
	}
	return nil
}

// Cleanup stops every poller and shuts the worker pool down. The transport
// rejects new subscriptions afterwards.
func (t *PollingTransport) Cleanup() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for id, stop := range t.stops {
		close(stop)
		delete(t.stops, id)
	}
	t.handlers = make(map[string][]Handler)
	t.mu.Unlock()

	t.pool.Close()
	return nil
}

var (
	_ Transport = (*PollingTransport)(nil)
	_ Cleaner   = (*PollingTransport)(nil)
)
