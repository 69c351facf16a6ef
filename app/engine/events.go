package engine

import (
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

type EventType string

const (
	EventStatus      EventType = "status"
	EventNewItem     EventType = "new_item"
	EventPriceChange EventType = "price_change"
	EventWarning     EventType = "warning"
	EventError       EventType = "error"
)

// Event is an observer notification about engine activity. Events are
// informational; dropping them never affects monitoring.
type Event struct {
	Type     EventType
	Platform string
	Keyword  string
	Message  string
	Listing  *listing.Listing
	Time     time.Time
}

// emit delivers an event without ever blocking a cycle. When no observer
// drains the channel the event is dropped.
func (e *Engine) emit(event Event) {
	event.Time = time.Now()
	select {
	case e.events <- event:
	default:
	}
}

// Events exposes the observer channel. The buffer absorbs bursts; slow
// consumers lose events rather than stall the engine.
func (e *Engine) Events() <-chan Event {
	return e.events
}
