package outbox

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	batchProcessTimeout          = 60 * time.Second
	healthCheckStaleThreshold    = 5 * time.Minute
	maxErrorLength               = 500
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttrack_outbox_published_total",
		Help: "Outbox events handed to the broker, by type.",
	}, []string{"event_type"})
	eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttrack_outbox_failed_total",
		Help: "Outbox publish attempts that failed, by type.",
	}, []string{"event_type"})
	eventsParked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttrack_outbox_parked_total",
		Help: "Outbox events that used up their attempts and are no longer retried, by type.",
	}, []string{"event_type"})
)

// Publisher hands one event to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type RelayOptions struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxAttempts parks an event once it has failed this many times.
	MaxAttempts int
	// ListenURL enables postgres LISTEN wake-ups when set.
	ListenURL string
}

// Relay drains unprocessed outbox rows, fewest attempts first and then in
// creation order. A failed publish leaves the row pending with its attempt
// count bumped; rows at MaxAttempts stay in the table but are skipped.
type Relay struct {
	db            *gorm.DB
	publisher     Publisher
	opts          RelayOptions
	dbCB          *gobreaker.CircuitBreaker
	lastProcessed atomic.Int64
	healthy       atomic.Bool
}

func NewRelay(db *gorm.DB, publisher Publisher, cb *gobreaker.CircuitBreaker, opts RelayOptions) *Relay {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	r := &Relay{db: db, publisher: publisher, opts: opts, dbCB: cb}
	r.lastProcessed.Store(time.Now().UnixNano())
	r.healthy.Store(true)
	return r
}

// IsHealthy is the liveness signal.
func (r *Relay) IsHealthy() bool {
	return r.healthy.Load()
}

// IsReady also fails while the database breaker is open or the relay has
// not completed a pass recently.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(time.Unix(0, r.lastProcessed.Load())) > healthCheckStaleThreshold {
		return false
	}
	return r.healthy.Load()
}

// Run processes the backlog, then wakes on NOTIFY (when configured) or on
// the poll interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	var notify <-chan *pq.Notification
	if r.opts.ListenURL != "" {
		listener := pq.NewListener(r.opts.ListenURL, listenerMinReconnectInterval, listenerMaxReconnectInterval,
			func(ev pq.ListenerEventType, err error) {
				if err != nil {
					log.Printf("outbox relay: listener error: %v", err)
				}
			})
		defer listener.Close()
		if err := listener.Listen(ChannelName); err != nil {
			return err
		}
		notify = listener.Notify
		log.Printf("outbox relay: listening on '%s'", ChannelName)
	}

	r.tick(ctx)

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("outbox relay: shutting down...")
			return ctx.Err()
		case n := <-notify:
			if n == nil {
				// listener reconnected; notifications may have been missed
				log.Println("outbox relay: listener reconnected")
			}
			r.tick(ctx)
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			log.Printf("outbox relay: batch failed: %v", err)
			r.healthy.Store(false)
			return
		}
		r.healthy.Store(true)
		if n < r.opts.BatchSize {
			return
		}
	}
}

// ProcessBatch publishes up to BatchSize pending events and returns how many
// were published.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	published := 0
	_, err := r.dbCB.Execute(func() (interface{}, error) {
		return nil, r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx.Where("processed_at IS NULL AND attempts < ?", r.opts.MaxAttempts).
				Order("attempts").Order("created_at").Limit(r.opts.BatchSize)
			if tx.Dialector.Name() == "postgres" {
				q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
			}
			var events []Event
			if err := q.Find(&events).Error; err != nil {
				return err
			}

			for _, ev := range events {
				if err := r.publisher.Publish(ctx, ev); err != nil {
					eventsFailed.WithLabelValues(ev.EventType).Inc()
					log.Printf("outbox relay: failed to publish event %s: %v", ev.ID, err)
					msg := err.Error()
					if len(msg) > maxErrorLength {
						msg = msg[:maxErrorLength]
					}
					if err := tx.Model(&Event{}).Where("id = ?", ev.ID).Updates(map[string]interface{}{
						"attempts":   gorm.Expr("attempts + 1"),
						"last_error": msg,
					}).Error; err != nil {
						return err
					}
					if ev.Attempts+1 >= r.opts.MaxAttempts {
						eventsParked.WithLabelValues(ev.EventType).Inc()
						log.Printf("outbox relay: event %s parked after %d attempts", ev.ID, ev.Attempts+1)
					}
					continue
				}

				now := time.Now().UTC()
				if err := tx.Model(&Event{}).Where("id = ?", ev.ID).Updates(map[string]interface{}{
					"processed_at": now,
					"attempts":     gorm.Expr("attempts + 1"),
				}).Error; err != nil {
					return err
				}
				eventsPublished.WithLabelValues(ev.EventType).Inc()
				published++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	r.lastProcessed.Store(time.Now().UnixNano())
	return published, nil
}

// Cleanup deletes processed events older than retention.
func Cleanup(ctx context.Context, db *gorm.DB, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res := db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&Event{})
	return res.RowsAffected, res.Error
}
