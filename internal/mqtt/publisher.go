package mqtt

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CommandPublisher publishes operator commands over a short-lived
// connection. Commands are rare operator actions; dialing per publish
// keeps the command path independent of the ingest connection's
// reconnect state.
type CommandPublisher struct {
	Addr string
}

func (p CommandPublisher) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	clientID := fmt.Sprintf("vasafe-cmd-%s", uuid.NewString()[:8])
	c, err := Dial(ctx, p.Addr, clientID)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	return c.Publish(ctx, topic, payload, retain)
}
