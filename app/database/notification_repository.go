package database

import (
	"time"
)

var _ NotificationRepository = (*notificationRepository)(nil)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) HasNotified(listingID int64, channel, eventType string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM notification_log
		WHERE listing_id = ? AND channel = ? AND event_type = ? AND success = 1`,
		listingID, channel, eventType).Scan(&count)
	if err != nil {
		return false, storageErr("has notified", err)
	}
	return count > 0, nil
}

func (r *notificationRepository) RecordNotification(listingID int64, channel, eventType string, success bool, preview string) error {
	successFlag := 0
	if success {
		successFlag = 1
	}
	if len(preview) > 200 {
		preview = preview[:200]
	}
	_, err := r.db.Exec(`
		INSERT INTO notification_log (listing_id, channel, event_type, success, message_preview, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		listingID, channel, eventType, successFlag, preview, time.Now().UTC().Unix())
	return storageErr("record notification", err)
}

func (r *notificationRepository) AttemptCount(listingID int64, channel, eventType string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM notification_log
		WHERE listing_id = ? AND channel = ? AND event_type = ?`,
		listingID, channel, eventType).Scan(&count)
	if err != nil {
		return 0, storageErr("attempt count", err)
	}
	return count, nil
}

func (r *notificationRepository) GetRecentLogs(limit, offset int) ([]NotificationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(`
		SELECT id, listing_id, channel, event_type, success, message_preview, sent_at
		FROM notification_log
		ORDER BY sent_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, storageErr("query notification log", err)
	}
	defer rows.Close()

	var entries []NotificationLogEntry
	for rows.Next() {
		var (
			e           NotificationLogEntry
			successFlag int
			sentAt      int64
		)
		if err := rows.Scan(&e.ID, &e.ListingID, &e.Channel, &e.EventType,
			&successFlag, &e.MessagePreview, &sentAt); err != nil {
			return nil, storageErr("scan notification log", err)
		}
		e.Success = successFlag == 1
		e.SentAt = time.Unix(sentAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate notification log", err)
	}
	return entries, nil
}
