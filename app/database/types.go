package database

import (
	"fmt"
	"time"
)

// StorageError marks persistence failures so the engine can distinguish
// them from source and notification failures. A StorageError aborts
// processing of the one listing involved, never the cycle.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// NotificationLogEntry records one notification attempt for a listing on a
// channel. Successful entries form the idempotence guard.
type NotificationLogEntry struct {
	ID             int64
	ListingID      int64
	Channel        string
	EventType      string
	Success        bool
	MessagePreview string
	SentAt         time.Time
}

// Favorite is a user-pinned listing with an optional target price.
type Favorite struct {
	ID          int64
	ListingID   int64
	Notes       string
	TargetPrice int64
	AddedAt     time.Time
}

// ListingQuery filters the paginated read surface.
type ListingQuery struct {
	Platform string
	Keyword  string
	Status   string
	Search   string // substring match against title
	Page     int    // 1-based
	PageSize int
}

// DailyStat aggregates search activity for one calendar day.
type DailyStat struct {
	Date       string
	ItemsFound int
	NewItems   int
}

// KeywordPriceStat summarizes observed prices for one keyword.
type KeywordPriceStat struct {
	Keyword  string
	Count    int
	MinPrice int64
	AvgPrice int64
	MaxPrice int64
}
