// Package events carries block notifications between a tangle feed and
// its viewers over NATS.
package events

import "context"

// Event topics
const (
	TopicBlocks       = "tangle.blocks.>"
	TopicBlockCreated = "tangle.blocks.created"
)

// BlockCreated announces a block the feed has accepted.
type BlockCreated struct {
	Hash         string   `json:"hash"`
	ParentHashes []string `json:"parent_hashes"`
	Timestamp    int64    `json:"timestamp"`
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Signaler wakes a reader whenever messages arrive on a topic.
type Signaler interface {
	Signal(ctx context.Context, topic string) (<-chan struct{}, error)
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
