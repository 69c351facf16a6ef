package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// Notifier delivers events for one configured channel. Implementations
// must be safe for concurrent use; the dispatcher may call them from
// multiple keyword workers.
type Notifier interface {
	// Name identifies the channel instance, e.g. "telegram/family".
	Name() string
	SendNewItem(ctx context.Context, l listing.Listing) error
	SendPriceChange(ctx context.Context, l listing.Listing, change listing.PriceChange) error
	SendMessage(ctx context.Context, text string) error
}

// SendError wraps a delivery failure with the channel it came from so the
// dispatcher can isolate channels from each other.
type SendError struct {
	Channel string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notifier %s: %v", e.Channel, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
