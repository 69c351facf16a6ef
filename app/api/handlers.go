package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/database"
	"github.com/danbi-labs/joonggo-radar/app/listing"
)

func NewHandler(listings database.ListingRepository, notifications database.NotificationRepository,
	stats database.StatsRepository, configCache *config.Cache, eng EngineInterface) *Handler {
	return &Handler{
		listings:      listings,
		notifications: notifications,
		stats:         stats,
		configCache:   configCache,
		engine:        eng,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	total, err := h.stats.GetTotalListings()
	if err != nil {
		slog.Error("Database error", "operation", "total_listings", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"state":     h.engine.State(),
		"keywords":  h.configCache.GetKeywordCount(),
		"listings":  total,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	total, err := h.stats.GetTotalListings()
	if err != nil {
		slog.Error("Database error", "operation", "total_listings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	byPlatform, err := h.stats.GetListingsByPlatform()
	if err != nil {
		slog.Error("Database error", "operation", "listings_by_platform", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	days := 7
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}
	daily, err := h.stats.GetDailyStats(days)
	if err != nil {
		slog.Error("Database error", "operation", "daily_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	prices, err := h.stats.GetKeywordPriceStats()
	if err != nil {
		slog.Error("Database error", "operation", "keyword_price_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_listings": total,
		"by_platform":    byPlatform,
		"daily":          daily,
		"keyword_prices": prices,
	})
}

func (h *Handler) GetListings(c *gin.Context) {
	query := database.ListingQuery{
		Platform: c.Query("platform"),
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Page:     1,
		PageSize: 50,
	}
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			query.Page = parsed
		}
	}
	if v := c.Query("page_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			query.PageSize = parsed
		}
	}

	listings, total, err := h.listings.GetListingsPaginated(query)
	if err != nil {
		slog.Error("Database error", "operation", "get_listings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]listingJSON, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingJSON(l))
	}
	c.JSON(http.StatusOK, listingsResponse{
		Listings: out,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	l, err := h.listings.GetListingByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_listing", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	history, err := h.listings.GetPriceHistory(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_price_history", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]priceHistoryJSON, 0, len(history))
	for _, e := range history {
		out = append(out, priceHistoryJSON{
			OldPrice:   e.OldPrice,
			NewPrice:   e.NewPrice,
			OldNumeric: e.OldNumeric,
			NewNumeric: e.NewNumeric,
			ChangedAt:  e.ChangedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"listing": toListingJSON(*l),
		"history": out,
	})
}

func (h *Handler) GetNotifications(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	logs, err := h.notifications.GetRecentLogs(limit, 0)
	if err != nil {
		slog.Error("Database error", "operation", "get_notification_logs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": logs})
}

// TriggerRun starts a cycle outside the regular schedule.
func (h *Handler) TriggerRun(c *gin.Context) {
	if h.engine.Busy() {
		c.JSON(http.StatusConflict, gin.H{"error": "cycle already in progress"})
		return
	}

	// The engine's run context ties the manual cycle to its lifecycle, so
	// an engine shutdown cancels it.
	ctx := h.engine.RunContext()
	go func() {
		if err := h.engine.RunOnce(ctx); err != nil {
			slog.Error("Manual cycle failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "cycle started"})
}

// TriggerCleanup purges listings last updated more than the given number
// of days ago. Favorites are kept unless keep_favorites=false.
func (h *Handler) TriggerCleanup(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}
	keepFavorites := c.DefaultQuery("keep_favorites", "true") != "false"

	deleted, err := h.listings.CleanupOlderThan(time.Duration(days)*24*time.Hour, keepFavorites)
	if err != nil {
		slog.Error("Database error", "operation", "cleanup", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	slog.Info("Retention cleanup completed", "days", days, "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "days": days})
}

func toListingJSON(l listing.Listing) listingJSON {
	return listingJSON{
		ID:           l.ID,
		Platform:     l.Platform,
		ArticleID:    l.ArticleID,
		Keyword:      l.Keyword,
		Title:        l.Title,
		Price:        l.Price,
		PriceNumeric: l.PriceNumeric,
		URL:          l.URL,
		Thumbnail:    l.Thumbnail,
		Seller:       l.Seller,
		Location:     l.Location,
		SaleStatus:   string(l.SaleStatus),
		AutoTags:     l.AutoTags,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.Format(time.RFC3339),
	}
}
