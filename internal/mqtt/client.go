// Package mqtt wraps eclipse/paho.golang with the small surface the
// backend needs: connect, subscribe with a wildcard filter, publish
// with an optional retained flag, and disconnect detection.
package mqtt

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/eclipse/paho.golang/paho"
)

const keepAliveSeconds = 60

// Client is one live broker connection. A Client is single-use: once
// Done fires, the caller discards it and dials a fresh one. The
// reconnect policy lives in the ingest loop, not here.
type Client struct {
	paho *paho.Client
	errC chan error
}

// Dial opens a TCP connection to the broker and completes the MQTT
// CONNECT handshake.
func Dial(ctx context.Context, addr, clientID string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial broker %s: %w", addr, err)
	}

	c := &Client{errC: make(chan error, 1)}
	c.paho = paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: clientID,
		OnClientError: func(err error) {
			c.fail(err)
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			c.fail(fmt.Errorf("server disconnect, reason code %d", d.ReasonCode))
		},
	})

	connack, err := c.paho.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		CleanStart: true,
		KeepAlive:  keepAliveSeconds,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	if connack.ReasonCode != 0 {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect refused, reason code %d", connack.ReasonCode)
	}

	return c, nil
}

// Subscribe registers handler for all messages matching filter and
// sends the SUBSCRIBE packet at QoS 1.
func (c *Client) Subscribe(ctx context.Context, filter string, handler func(topic string, payload []byte)) error {
	c.paho.AddOnPublishReceived(func(pr paho.PublishReceived) (bool, error) {
		if !matchFilter(filter, pr.Packet.Topic) {
			return false, nil
		}
		handler(pr.Packet.Topic, pr.Packet.Payload)
		return true, nil
	})

	_, err := c.paho.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: filter,
			QoS:   1,
		}},
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}

// Publish sends payload to topic at QoS 1. Retained messages reach
// devices that connect after the publish.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	_, err := c.paho.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     1,
		Retain:  retain,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Done delivers the first fatal connection error. The channel receives
// at most once.
func (c *Client) Done() <-chan error {
	return c.errC
}

// Disconnect sends the DISCONNECT packet and closes the connection.
func (c *Client) Disconnect() error {
	return c.paho.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

func (c *Client) fail(err error) {
	select {
	case c.errC <- err:
	default:
	}
}

// matchFilter checks a topic name against a subscription filter with
// + and # wildcards.
func matchFilter(filter, topic string) bool {
	filters := strings.Split(filter, "/")
	names := strings.Split(topic, "/")

	for i, f := range filters {
		if f == "#" {
			return i == len(filters)-1
		}
		if f == "+" {
			if i >= len(names) {
				return false
			}
			continue
		}
		if i >= len(names) || f != names[i] {
			return false
		}
	}
	return len(filters) == len(names)
}
