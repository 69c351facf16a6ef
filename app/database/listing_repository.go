package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

const (
	fuzzyWindow         = 24 * time.Hour
	fuzzyThreshold      = 0.9
	fuzzyCandidateLimit = 50
)

var _ ListingRepository = (*listingRepository)(nil)

type listingRepository struct {
	db         *DB
	similarity listing.SimilarityFunc
}

// NewListingRepository creates the SQLite-backed listing store. The
// similarity function drives fuzzy-duplicate detection; pass nil to use
// listing.TitleSimilarity.
func NewListingRepository(db *DB, similarity listing.SimilarityFunc) ListingRepository {
	if similarity == nil {
		similarity = listing.TitleSimilarity
	}
	return &listingRepository{db: db, similarity: similarity}
}

func (r *listingRepository) UpsertListing(l *listing.Listing) (bool, *listing.PriceChange, int64, error) {
	if strings.TrimSpace(l.Platform) == "" || strings.TrimSpace(l.ArticleID) == "" {
		return false, nil, 0, storageErr("upsert listing", fmt.Errorf("platform and article id are required"))
	}

	priceNumeric := l.ParsePrice()
	now := time.Now().UTC().Unix()

	// The whole check-then-act runs in one transaction so concurrent
	// upserts for the same key serialize.
	tx, err := r.db.Begin()
	if err != nil {
		return false, nil, 0, storageErr("begin upsert", err)
	}
	defer tx.Rollback()

	var (
		existingID      int64
		existingPrice   string
		existingNumeric int64
	)
	err = tx.QueryRow(
		`SELECT id, price, price_numeric FROM listings WHERE platform = ? AND article_id = ?`,
		l.Platform, l.ArticleID,
	).Scan(&existingID, &existingPrice, &existingNumeric)

	if err == sql.ErrNoRows {
		tags, err := json.Marshal(append([]string{}, l.AutoTags...))
		if err != nil {
			return false, nil, 0, storageErr("encode auto tags", err)
		}
		res, err := tx.Exec(`
			INSERT INTO listings
				(platform, article_id, keyword, title, price, price_numeric,
				 url, thumbnail, seller, location, sale_status, description,
				 auto_tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Platform, l.ArticleID, l.Keyword, l.Title, l.Price, priceNumeric,
			l.URL, l.Thumbnail, l.Seller, l.Location, statusOrDefault(l.SaleStatus),
			l.Description, string(tags), now, now)
		if err != nil {
			return false, nil, 0, storageErr("insert listing", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, nil, 0, storageErr("insert listing", err)
		}
		if err := tx.Commit(); err != nil {
			return false, nil, 0, storageErr("commit upsert", err)
		}
		l.ID = id
		return true, nil, id, nil
	}
	if err != nil {
		return false, nil, 0, storageErr("lookup listing", err)
	}

	var change *listing.PriceChange
	if existingPrice != l.Price && existingNumeric != priceNumeric &&
		existingNumeric > 0 && priceNumeric > 0 {
		change = &listing.PriceChange{
			OldPrice:   existingPrice,
			NewPrice:   l.Price,
			OldNumeric: existingNumeric,
			NewNumeric: priceNumeric,
		}
		_, err = tx.Exec(`
			INSERT INTO price_history
				(listing_id, old_price, old_price_numeric, new_price, new_price_numeric, changed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			existingID, existingPrice, existingNumeric, l.Price, priceNumeric, now)
		if err != nil {
			return false, nil, 0, storageErr("append price history", err)
		}
	}

	// Refreshed fields are updated unconditionally; keyword and created_at
	// keep their first-seen values.
	_, err = tx.Exec(`
		UPDATE listings
		SET title = ?, price = ?, price_numeric = ?, thumbnail = ?,
		    seller = ?, location = ?, sale_status = ?, updated_at = ?
		WHERE id = ?`,
		l.Title, l.Price, priceNumeric, l.Thumbnail,
		l.Seller, l.Location, statusOrDefault(l.SaleStatus), now, existingID)
	if err != nil {
		return false, nil, 0, storageErr("update listing", err)
	}

	if err := tx.Commit(); err != nil {
		return false, nil, 0, storageErr("commit upsert", err)
	}
	l.ID = existingID
	return false, change, existingID, nil
}

func statusOrDefault(s listing.SaleStatus) string {
	if s == "" {
		return string(listing.StatusForSale)
	}
	return string(s)
}

func (r *listingRepository) IsFuzzyDuplicate(l listing.Listing) (bool, error) {
	cutoff := time.Now().UTC().Add(-fuzzyWindow).Unix()

	rows, err := r.db.Query(`
		SELECT title FROM listings
		WHERE platform = ? AND article_id != ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?`,
		l.Platform, l.ArticleID, cutoff, fuzzyCandidateLimit)
	if err != nil {
		return false, storageErr("fuzzy duplicate lookup", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return false, storageErr("fuzzy duplicate scan", err)
		}
		if r.similarity(l.Title, title) >= fuzzyThreshold {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, storageErr("fuzzy duplicate iterate", err)
	}
	return false, nil
}

const listingColumns = `id, platform, article_id, keyword, title, price, price_numeric,
	url, thumbnail, seller, location, sale_status, description, auto_tags,
	created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*listing.Listing, error) {
	var (
		l         listing.Listing
		status    string
		tags      string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&l.ID, &l.Platform, &l.ArticleID, &l.Keyword, &l.Title,
		&l.Price, &l.PriceNumeric, &l.URL, &l.Thumbnail, &l.Seller,
		&l.Location, &status, &l.Description, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	l.SaleStatus = listing.SaleStatus(status)
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	l.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &l.AutoTags); err != nil {
			l.AutoTags = nil
		}
	}
	return &l, nil
}

func (r *listingRepository) GetListingByID(id int64) (*listing.Listing, error) {
	row := r.db.QueryRow(`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get listing", err)
	}
	return l, nil
}

func (r *listingRepository) GetListingsPaginated(q ListingQuery) ([]listing.Listing, int, error) {
	where := []string{"1=1"}
	var args []any

	if q.Platform != "" {
		where = append(where, "platform = ?")
		args = append(args, q.Platform)
	}
	if q.Keyword != "" {
		where = append(where, "keyword = ?")
		args = append(args, q.Keyword)
	}
	if q.Status != "" && q.Status != "all" {
		where = append(where, "sale_status = ?")
		args = append(args, q.Status)
	}
	if q.Search != "" {
		where = append(where, "title LIKE ?")
		args = append(args, "%"+q.Search+"%")
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, storageErr("count listings", err)
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := r.db.Query(
		`SELECT `+listingColumns+` FROM listings WHERE `+cond+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, storageErr("query listings", err)
	}
	defer rows.Close()

	var listings []listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, storageErr("scan listing", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate listings", err)
	}
	return listings, total, nil
}

func (r *listingRepository) GetPriceHistory(listingID int64) ([]listing.PriceHistoryEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, listing_id, old_price, old_price_numeric, new_price, new_price_numeric, changed_at
		FROM price_history
		WHERE listing_id = ?
		ORDER BY changed_at ASC`, listingID)
	if err != nil {
		return nil, storageErr("query price history", err)
	}
	defer rows.Close()

	var entries []listing.PriceHistoryEntry
	for rows.Next() {
		var (
			e         listing.PriceHistoryEntry
			changedAt int64
		)
		if err := rows.Scan(&e.ID, &e.ListingID, &e.OldPrice, &e.OldNumeric,
			&e.NewPrice, &e.NewNumeric, &changedAt); err != nil {
			return nil, storageErr("scan price history", err)
		}
		e.ChangedAt = time.Unix(changedAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate price history", err)
	}
	return entries, nil
}

func (r *listingRepository) SetAutoTags(listingID int64, tags []string) error {
	encoded, err := json.Marshal(append([]string{}, tags...))
	if err != nil {
		return storageErr("encode auto tags", err)
	}
	_, err = r.db.Exec(`UPDATE listings SET auto_tags = ? WHERE id = ?`, string(encoded), listingID)
	return storageErr("set auto tags", err)
}

func (r *listingRepository) SetDescription(listingID int64, description string) error {
	_, err := r.db.Exec(`UPDATE listings SET description = ? WHERE id = ?`, description, listingID)
	return storageErr("set description", err)
}

func (r *listingRepository) UpdateSaleStatus(listingID int64, status listing.SaleStatus) error {
	_, err := r.db.Exec(`UPDATE listings SET sale_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Unix(), listingID)
	return storageErr("update sale status", err)
}

func (r *listingRepository) AddFavorite(listingID int64, notes string, targetPrice int64) error {
	_, err := r.db.Exec(`
		INSERT INTO favorites (listing_id, notes, target_price, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(listing_id) DO UPDATE SET notes = excluded.notes, target_price = excluded.target_price`,
		listingID, notes, targetPrice, time.Now().UTC().Unix())
	return storageErr("add favorite", err)
}

func (r *listingRepository) RemoveFavorite(listingID int64) error {
	_, err := r.db.Exec(`DELETE FROM favorites WHERE listing_id = ?`, listingID)
	return storageErr("remove favorite", err)
}

func (r *listingRepository) GetFavorite(listingID int64) (*Favorite, error) {
	var (
		f       Favorite
		addedAt int64
	)
	err := r.db.QueryRow(
		`SELECT id, listing_id, notes, target_price, added_at FROM favorites WHERE listing_id = ?`,
		listingID,
	).Scan(&f.ID, &f.ListingID, &f.Notes, &f.TargetPrice, &addedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get favorite", err)
	}
	f.AddedAt = time.Unix(addedAt, 0).UTC()
	return &f, nil
}

func (r *listingRepository) CleanupOlderThan(maxAge time.Duration, keepFavorites bool) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Unix()

	query := `DELETE FROM listings WHERE updated_at < ?`
	if keepFavorites {
		query += ` AND id NOT IN (SELECT listing_id FROM favorites)`
	}

	res, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, storageErr("cleanup listings", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("cleanup listings", err)
	}
	return deleted, nil
}
