package database

import (
	"database/sql"
	"time"
)

var _ StatsRepository = (*statsRepository)(nil)

type statsRepository struct {
	db *DB
}

func NewStatsRepository(db *DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) RecordSearch(keyword, platform string, itemsFound, newItems int) error {
	_, err := r.db.Exec(`
		INSERT INTO search_stats (keyword, platform, items_found, new_items, checked_at)
		VALUES (?, ?, ?, ?, ?)`,
		keyword, platform, itemsFound, newItems, time.Now().UTC().Unix())
	return storageErr("record search", err)
}

func (r *statsRepository) GetLastSearchTime(keyword string) (*time.Time, error) {
	var checkedAt sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(checked_at) FROM search_stats WHERE keyword = ?`, keyword,
	).Scan(&checkedAt)
	if err != nil {
		return nil, storageErr("last search time", err)
	}
	if !checkedAt.Valid {
		return nil, nil
	}
	t := time.Unix(checkedAt.Int64, 0).UTC()
	return &t, nil
}

func (r *statsRepository) GetDailyStats(days int) ([]DailyStat, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Unix()

	rows, err := r.db.Query(`
		SELECT date(checked_at, 'unixepoch') AS day,
		       SUM(items_found), SUM(new_items)
		FROM search_stats
		WHERE checked_at >= ?
		GROUP BY day
		ORDER BY day DESC`, cutoff)
	if err != nil {
		return nil, storageErr("query daily stats", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Date, &s.ItemsFound, &s.NewItems); err != nil {
			return nil, storageErr("scan daily stats", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate daily stats", err)
	}
	return stats, nil
}

func (r *statsRepository) GetKeywordPriceStats() ([]KeywordPriceStat, error) {
	rows, err := r.db.Query(`
		SELECT keyword, COUNT(*),
		       MIN(price_numeric), CAST(AVG(price_numeric) AS INTEGER), MAX(price_numeric)
		FROM listings
		WHERE price_numeric > 0 AND keyword != ''
		GROUP BY keyword
		ORDER BY keyword`)
	if err != nil {
		return nil, storageErr("query keyword price stats", err)
	}
	defer rows.Close()

	var stats []KeywordPriceStat
	for rows.Next() {
		var s KeywordPriceStat
		if err := rows.Scan(&s.Keyword, &s.Count, &s.MinPrice, &s.AvgPrice, &s.MaxPrice); err != nil {
			return nil, storageErr("scan keyword price stats", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate keyword price stats", err)
	}
	return stats, nil
}

func (r *statsRepository) GetTotalListings() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM listings`).Scan(&count); err != nil {
		return 0, storageErr("total listings", err)
	}
	return count, nil
}

func (r *statsRepository) GetListingsByPlatform() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT platform, COUNT(*) FROM listings GROUP BY platform`)
	if err != nil {
		return nil, storageErr("listings by platform", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			platform string
			count    int
		)
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, storageErr("scan listings by platform", err)
		}
		counts[platform] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate listings by platform", err)
	}
	return counts, nil
}
