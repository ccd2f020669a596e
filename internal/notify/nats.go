package notify

import (
	"encoding/json"
	"fmt"

	"planchat/internal/models"

	"github.com/nats-io/nats.go"
)

// NATSBridge broadcasts change events over a NATS subject so every
// process watching the same document refreshes, the way a second browser
// tab would on a storage event.
type NATSBridge struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

func NewNATSBridge(url, subject string) (*NATSBridge, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSBridge{conn: nc, subject: subject}, nil
}

func (b *NATSBridge) Publish(ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return b.conn.Publish(b.subject, data)
}

func (b *NATSBridge) Start(handleFunc func(models.Event)) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var ev models.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return // Skip invalid events
		}
		handleFunc(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}

	b.sub = sub
	return nil
}

func (b *NATSBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
}
