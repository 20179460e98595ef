package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Broker carries encoded frames to the members of a room, wherever they
// are connected.
type Broker interface {
	Publish(ctx context.Context, room string, frame []byte) error
}

// LocalBroker delivers straight to the in-process hub.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, room string, frame []byte) error {
	b.hub.Deliver(room, frame)
	return nil
}

const DefaultChannel = "smarttrack:realtime"

type envelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisBroker fans frames out through a redis pub/sub channel so every API
// process delivers to its own connections. Run must be started on each
// process.
type RedisBroker struct {
	client  *redis.Client
	hub     *Hub
	channel string
	cb      *gobreaker.CircuitBreaker

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRedisBroker(client *redis.Client, hub *Hub, channel string, cb *gobreaker.CircuitBreaker) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{
		client:     client,
		hub:        hub,
		channel:    channel,
		cb:         cb,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Publish falls back to local delivery when redis is unavailable, so
// connections on this process still receive the frame.
func (b *RedisBroker) Publish(ctx context.Context, room string, frame []byte) error {
	msg, err := json.Marshal(envelope{Room: room, Frame: frame})
	if err != nil {
		return err
	}
	_, err = b.cb.Execute(func() (interface{}, error) {
		return nil, b.client.Publish(ctx, b.channel, msg).Err()
	})
	if err != nil {
		b.hub.Deliver(room, frame)
		return err
	}
	return nil
}

// Serve keeps the subscription alive until ctx is done, resubscribing with
// exponential backoff whenever Run drops out. Publish keeps delivering
// locally in the meantime.
func (b *RedisBroker) Serve(ctx context.Context) {
	delay := b.minBackoff
	for {
		started := time.Now()
		err := b.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[realtime] backplane down, retrying in %s: %v", delay, err)
		}
		if time.Since(started) > b.maxBackoff {
			delay = b.minBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > b.maxBackoff {
			delay = b.maxBackoff
		}
	}
}

// Run subscribes to the channel and delivers until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("[realtime] subscribed to redis channel %s", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				log.Printf("[realtime] bad backplane message: %v", err)
				continue
			}
			b.hub.Deliver(env.Room, env.Frame)
		}
	}
}
