package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

// Event topic constants
const (
	TopicConfigsUpdated = "correlation.configs.updated"

	// TopicAll matches every correlation event.
	TopicAll = "correlation.>"
)

// ConfigsUpdated is published once per committed correlation config update.
type ConfigsUpdated struct {
	ID        string                    `json:"id"`
	Actor     string                    `json:"actor,omitempty"`
	Tenant    string                    `json:"tenant,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
	Configs   []model.CorrelationConfig `json:"configs"`
}

// EventID returns the event's deduplication key.
func (e ConfigsUpdated) EventID() string { return e.ID }

// identified is implemented by events that carry their own ID.
type identified interface {
	EventID() string
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives raw event payloads from the bus. Call the returned
// cancel function to unsubscribe and close the channel.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
