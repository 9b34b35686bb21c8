package events

import "context"

// Event types
const (
	EventModerationRequested = "moderation_requested"
	EventModerationDecided   = "moderation_decided"
)

// Channels
const (
	ChannelModeration = "events:moderation"
	ChannelUser       = "events:user"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Address returns the owner address the event is addressed to, if any.
func (e Event) Address() string {
	addr, _ := e.Payload["owner_address"].(string)
	return addr
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
