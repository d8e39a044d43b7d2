// Package redisbus is an optional eventbus.Bus backend that fans events out
// across processes sharing a Redis instance, for deployments that run the
// turn pipeline behind more than one worker. The default, single-process
// deployment uses eventbus.InProc instead.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/duskward/ttrpgcore/eventbus"
)

// Bus publishes eventbus.Event values as JSON on a single Redis pub/sub
// channel and dispatches received messages to locally registered listeners,
// filtered by event type. Every process sharing the channel — including the
// publisher — receives every event through the same local-dispatch path, so
// ordering and panic-isolation semantics match eventbus.InProc.
type Bus struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub

	mu        sync.Mutex
	listeners map[string][]*subscription
	nextID    uint64

	OnListenerPanic func(eventType string, recovered any)
	OnDecodeError   func(err error)

	cancel context.CancelFunc
	done   chan struct{}
}

type subscription struct {
	bus       *Bus
	eventType string
	id        uint64
	listener  eventbus.Listener
}

func (s *subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.listeners[s.eventType]
	for i, sub := range subs {
		if sub.id == s.id {
			s.bus.listeners[s.eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// New connects to channel on client and starts the background receive loop.
// The returned Bus must be closed with Close to release the subscription.
func New(ctx context.Context, client *redis.Client, channel string) (*Bus, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("redisbus: subscribe %q: %w", channel, err)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b := &Bus{
		client:    client,
		channel:   channel,
		pubsub:    pubsub,
		listeners: make(map[string][]*subscription),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go b.receiveLoop(loopCtx)
	return b, nil
}

// Close stops the receive loop and releases the underlying subscription.
func (b *Bus) Close() error {
	b.cancel()
	<-b.done
	return b.pubsub.Close()
}

func (b *Bus) receiveLoop(ctx context.Context) {
	defer close(b.done)
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e eventbus.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				if b.OnDecodeError != nil {
					b.OnDecodeError(err)
				}
				continue
			}
			b.dispatchLocal(e)
		}
	}
}

func (b *Bus) dispatchLocal(e eventbus.Event) {
	b.mu.Lock()
	snapshot := append([]*subscription(nil), b.listeners[e.Type]...)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.dispatchOne(sub.listener, e)
	}
}

func (b *Bus) dispatchOne(l eventbus.Listener, e eventbus.Event) {
	defer func() {
		if r := recover(); r != nil && b.OnListenerPanic != nil {
			b.OnListenerPanic(e.Type, r)
		}
	}()
	l(e)
}

// Publish marshals e and publishes it on the shared Redis channel. It does
// not dispatch locally itself — delivery happens uniformly through the
// receive loop once Redis echoes the message back to every subscriber.
func (b *Bus) Publish(e eventbus.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		if b.OnDecodeError != nil {
			b.OnDecodeError(err)
		}
		return
	}
	b.client.Publish(context.Background(), b.channel, data)
}

// Subscribe registers l for eventType.
func (b *Bus) Subscribe(eventType string, l eventbus.Listener) eventbus.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscription{bus: b, eventType: eventType, id: b.nextID, listener: l}
	b.listeners[eventType] = append(b.listeners[eventType], sub)
	return sub
}

var _ eventbus.Bus = (*Bus)(nil)
