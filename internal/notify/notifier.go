package notify

import (
	"sync"

	"planchat/internal/models"
	"planchat/pkg/logger"

	"github.com/google/uuid"
)

type Handler func(models.Event)

// Bridge carries change events between processes. Publish sends a local
// event out; Start registers the callback invoked for incoming ones.
type Bridge interface {
	Publish(models.Event) error
	Start(func(models.Event)) error
	Close()
}

// Notifier fans change events out to subscribers in this process and,
// when a bridge is attached, to every other process sharing the same
// document. Handlers run synchronously on the publishing goroutine.
type Notifier struct {
	mu       sync.Mutex
	handlers map[int]Handler
	next     int
	origin   string
	bridge   Bridge
}

func New() *Notifier {
	return &Notifier{
		handlers: make(map[int]Handler),
		origin:   uuid.NewString(),
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (n *Notifier) Subscribe(h Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.handlers[id] = h

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.handlers, id)
	}
}

// Publish announces a local mutation to all subscribers and to the bridge.
// Bridge failures are logged and swallowed: the change is already saved,
// remote observers just catch up on their next reload.
func (n *Notifier) Publish(name models.EventName) {
	ev := models.Event{Name: name, Origin: n.origin}
	n.dispatch(ev)

	n.mu.Lock()
	bridge := n.bridge
	n.mu.Unlock()

	if bridge != nil {
		if err := bridge.Publish(ev); err != nil {
			logger.Error("Failed to publish change event: %v", err)
		}
	}
}

// Deliver handles an event arriving over the bridge. Events this process
// published come back around and are dropped; everything else is re-raised
// locally under the synced name.
func (n *Notifier) Deliver(ev models.Event) {
	if ev.Origin == n.origin {
		return
	}
	ev.Name = models.EventRoomsSynced
	n.dispatch(ev)
}

// AttachBridge wires a cross-process bridge into the notifier.
func (n *Notifier) AttachBridge(b Bridge) error {
	if err := b.Start(n.Deliver); err != nil {
		return err
	}

	n.mu.Lock()
	n.bridge = b
	n.mu.Unlock()
	return nil
}

func (n *Notifier) Origin() string {
	return n.origin
}

func (n *Notifier) dispatch(ev models.Event) {
	n.mu.Lock()
	handlers := make([]Handler, 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
