package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	EventMatch = "match"
	EventInbox = "inbox"
)

// Event is the JSON payload published for the chat-transport gateways.
type Event struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	PeerID int64  `json:"peer_id,omitempty"`
	Unseen *int64 `json:"unseen,omitempty"`
}

// EventNotifier publishes match and inbox events on one pub/sub channel.
type EventNotifier struct {
	client  *Client
	channel string
}

func NewEventNotifier(client *Client, channel string) *EventNotifier {
	return &EventNotifier{client: client, channel: channel}
}

func (n *EventNotifier) NotifyMatch(ctx context.Context, userID, peerID int64) error {
	return n.publish(ctx, Event{Type: EventMatch, UserID: userID, PeerID: peerID})
}

func (n *EventNotifier) NotifyInbox(ctx context.Context, userID int64, unseen int64) error {
	return n.publish(ctx, Event{Type: EventInbox, UserID: userID, Unseen: &unseen})
}

func (n *EventNotifier) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Events subscribes to the channel and decodes every message until ctx is
// done. Undecodable messages are passed to onError and skipped.
func (n *EventNotifier) Events(ctx context.Context, onError func(error)) (<-chan Event, error) {
	sub := n.client.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					if onError != nil {
						onError(fmt.Errorf("decode event: %w", err))
					}
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
