package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/backoff"
	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/database"
	"github.com/danbi-labs/joonggo-radar/app/listing"
	"github.com/danbi-labs/joonggo-radar/app/notifier"
)

const (
	EventNewItem     = "new_item"
	EventPriceChange = "price_change"

	// Delivery to one channel gets up to maxSendAttempts tries within a
	// dispatch call; each call is one logged attempt. A listing stops
	// being retried across cycles once it has maxLifetimeAttempts logged
	// attempts on a channel.
	maxSendAttempts     = 3
	maxLifetimeAttempts = 5
)

// Channel pairs a notifier with its delivery policy.
type Channel struct {
	Notifier notifier.Notifier
	Key      string
	Schedule config.Schedule
}

type pendingEvent struct {
	listing   listing.Listing
	change    *listing.PriceChange
	eventType string
	channel   int
}

// Dispatcher fans events out to all configured channels. Per (listing,
// channel, event type) it guarantees at most one successful delivery,
// bounded in-call retries, and re-queues failures and do-not-disturb
// deferrals for the next cycle.
type Dispatcher struct {
	log       database.NotificationRepository
	channels  []Channel
	retryBase time.Duration
	now       func() time.Time

	mu      sync.Mutex
	pending []pendingEvent
}

func New(log database.NotificationRepository, channels []Channel) *Dispatcher {
	return &Dispatcher{
		log:       log,
		channels:  channels,
		retryBase: backoff.DefaultBase,
		now:       time.Now,
	}
}

// DispatchNewItem delivers a new-item event to every channel.
func (d *Dispatcher) DispatchNewItem(ctx context.Context, l listing.Listing) {
	d.dispatch(ctx, l, nil, EventNewItem)
}

// DispatchPriceChange delivers a price-change event to every channel.
func (d *Dispatcher) DispatchPriceChange(ctx context.Context, l listing.Listing, change listing.PriceChange) {
	c := change
	d.dispatch(ctx, l, &c, EventPriceChange)
}

func (d *Dispatcher) dispatch(ctx context.Context, l listing.Listing, change *listing.PriceChange, eventType string) {
	for i := range d.channels {
		d.deliver(ctx, pendingEvent{listing: l, change: change, eventType: eventType, channel: i})
	}
}

// FlushPending retries events that were deferred or failed in earlier
// cycles. The engine calls this at each cycle boundary.
func (d *Dispatcher) FlushPending(ctx context.Context) {
	d.mu.Lock()
	queued := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	slog.Debug("Flushing pending notifications", "count", len(queued))
	for _, event := range queued {
		if ctx.Err() != nil {
			d.requeue(event)
			continue
		}
		d.deliver(ctx, event)
	}
}

// PendingCount reports how many events wait for the next flush.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) deliver(ctx context.Context, event pendingEvent) {
	ch := d.channels[event.channel]
	l := event.listing

	if !ch.Schedule.ActiveAt(d.now()) {
		slog.Debug("Channel in do-not-disturb window, deferring",
			"channel", ch.Key, "listing_id", l.ID, "event", event.eventType)
		d.requeue(event)
		return
	}

	// Log read failures are treated as transient: the event stays queued
	// rather than being lost.
	sent, err := d.log.HasNotified(l.ID, ch.Key, event.eventType)
	if err != nil {
		slog.Error("Failed to check notification log", "channel", ch.Key, "error", err)
		d.requeue(event)
		return
	}
	if sent {
		return
	}

	attempts, err := d.log.AttemptCount(l.ID, ch.Key, event.eventType)
	if err != nil {
		slog.Error("Failed to count notification attempts", "channel", ch.Key, "error", err)
		d.requeue(event)
		return
	}
	if attempts >= maxLifetimeAttempts {
		slog.Warn("Notification attempt limit reached, giving up",
			"channel", ch.Key, "listing_id", l.ID, "event", event.eventType)
		return
	}

	var preview string
	sendErr := backoff.Retry(ctx, maxSendAttempts, d.retryBase, func(attempt int) error {
		switch event.eventType {
		case EventPriceChange:
			preview = notifier.Preview(notifier.FormatPriceChange(l, *event.change))
			return ch.Notifier.SendPriceChange(ctx, l, *event.change)
		default:
			preview = notifier.Preview(notifier.FormatNewItem(l))
			return ch.Notifier.SendNewItem(ctx, l)
		}
	})

	if recordErr := d.log.RecordNotification(l.ID, ch.Key, event.eventType, sendErr == nil, preview); recordErr != nil {
		slog.Error("Failed to record notification", "channel", ch.Key, "error", recordErr)
	}

	if sendErr != nil {
		slog.Warn("Notification delivery failed",
			"channel", ch.Key, "listing_id", l.ID, "event", event.eventType, "error", sendErr)
		if attempts+1 < maxLifetimeAttempts {
			d.requeue(event)
		}
		return
	}

	slog.Info("Notification sent",
		"channel", ch.Key, "listing_id", l.ID, "event", event.eventType)
}

func (d *Dispatcher) requeue(event pendingEvent) {
	d.mu.Lock()
	d.pending = append(d.pending, event)
	d.mu.Unlock()
}

// Announce sends a plain status message to every currently active channel.
// Announcements are not idempotence-guarded.
func (d *Dispatcher) Announce(ctx context.Context, text string) {
	for _, ch := range d.channels {
		if !ch.Schedule.ActiveAt(d.now()) {
			continue
		}
		if err := ch.Notifier.SendMessage(ctx, text); err != nil {
			slog.Warn("Announcement failed", "channel", ch.Key, "error", err)
		}
	}
}
