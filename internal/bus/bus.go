// SPDX-License-Identifier: MIT

// Package bus is a small in-process publish/subscribe hub connecting the
// session controller to playback observers.
package bus

import "context"

// Topics published by awareapp.
const (
	// TopicM8Changed carries an M8Changed after a new model has been applied.
	TopicM8Changed = "m8.changed"
	// TopicFormatChanged carries a playback.DownstreamFormatChangedEvent.
	TopicFormatChanged = "playback.format_changed"
)

// Message is any payload carried on the bus.
type Message any

// Bus publishes messages to topic subscribers.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber receives messages for one topic until closed.
type Subscriber interface {
	C() <-chan Message
	Close() error
}

// M8Changed announces a newly applied M8 model.
type M8Changed struct {
	SourceKey  string
	Location   string
	BaseURL    string
	Services   int
	Generation uint64
}
