// SPDX-License-Identifier: MIT

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/metrics"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// MemoryBus is an in-memory pub/sub. It is not durable; delivery blocks on a
// full subscriber until the publish context is done.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	buffer int
}

const dropLogEvery = 100

var dropCount atomic.Uint64

// NewMemoryBus creates a bus with DefaultBuffer sized subscriber channels.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memSub), buffer: DefaultBuffer}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Publish delivers msg to every current subscriber of topic.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	metrics.IncBusPublished(topic)

	b.mu.RLock()
	subs := append([]*memSub(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.deliver(ctx, msg); err != nil {
			reason := publishDropReason(err)
			metrics.IncBusDropReason(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 1 {
				log.L().Warn().
					Str(log.FieldEvent, "bus.publish_dropped").
					Str("topic", topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, err)
		}
	}
	return nil
}

// Subscribe registers a subscriber for topic. The subscription ends when
// Close is called or ctx is done.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	if ctx == nil {
		return nil, fmt.Errorf("subscribe context is nil")
	}
	s := &memSub{
		b:     b,
		topic: topic,
		ch:    make(chan Message, b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	}
	return s, nil
}

// Subscribers returns the number of subscribers on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type memSub struct {
	b     *MemoryBus
	topic string

	// sendMu orders deliveries against close(ch).
	sendMu    sync.RWMutex
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (s *memSub) deliver(ctx context.Context, msg Message) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

func (s *memSub) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.b.mu.Lock()
		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		s.b.mu.Unlock()

		s.sendMu.Lock()
		close(s.ch)
		s.sendMu.Unlock()
	})
	return nil
}

var _ Bus = (*MemoryBus)(nil)
