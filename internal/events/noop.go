package events

import "context"

// NoopPublisher drops every event. It is used when no NATS URL is set.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
