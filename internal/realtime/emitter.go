package realtime

import (
	"context"
	"log"
	"time"
)

// Emitter is what business code uses to push events. It never fails the
// caller.
type Emitter interface {
	Emit(ctx context.Context, event string, payload interface{}, rooms ...string)
}

type Gateway struct {
	broker Broker
	now    func() time.Time
}

func NewGateway(broker Broker) *Gateway {
	return &Gateway{broker: broker, now: time.Now}
}

func (g *Gateway) Emit(ctx context.Context, event string, payload interface{}, rooms ...string) {
	frame, err := encodeFrame(event, payload, g.now())
	if err != nil {
		log.Printf("[realtime] encode event=%s: %v", event, err)
		return
	}
	for _, room := range rooms {
		if err := g.broker.Publish(ctx, room, frame); err != nil {
			publishFailures.Inc()
			log.Printf("[realtime] publish failed event=%s room=%s: %v", event, room, err)
			continue
		}
		eventsEmitted.WithLabelValues(event).Inc()
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, string, interface{}, ...string) {}
