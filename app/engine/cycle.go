package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danbi-labs/joonggo-radar/app/backoff"
	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// maxSearchAttempts bounds the total search calls per platform per cycle.
const maxSearchAttempts = 3

// RunOnce executes a single monitoring cycle. Only one cycle runs at a
// time; a manual trigger during a scheduled cycle returns
// ErrCycleInProgress.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.cycleMu.TryLock() {
		return ErrCycleInProgress
	}
	defer e.cycleMu.Unlock()

	started := e.now()

	// Deferred and failed notifications from earlier cycles go first so
	// they keep their ordering relative to this cycle's findings.
	e.dispatcher.FlushPending(ctx)

	// The keyword set is snapshotted once; config changes apply from the
	// next cycle.
	keywords := e.configCache.GetEnabledKeywords()
	if len(keywords) == 0 {
		slog.Debug("No enabled keywords configured")
		return ctx.Err()
	}

	suppress := e.firstCycle
	if suppress {
		slog.Info("First cycle establishes the baseline, notifications suppressed")
	}

	due := make([]*config.SearchKeyword, 0, len(keywords))
	for _, kw := range keywords {
		if e.keywordDue(kw) {
			due = append(due, kw)
		}
	}
	slog.Info("Cycle started", "keywords", len(due), "skipped", len(keywords)-len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, kw := range due {
		g.Go(func() error {
			e.processKeyword(gctx, kw, suppress)
			// Spacing between keyword searches keeps request bursts down
			// even when workers run concurrently.
			e.sleep(gctx, e.keywordPause)
			return nil
		})
	}
	g.Wait()

	e.firstCycle = false

	slog.Info("Cycle finished", "duration", e.now().Sub(started).Round(time.Millisecond))
	return ctx.Err()
}

// keywordDue honors a keyword's custom interval, measured from its last
// recorded search.
func (e *Engine) keywordDue(kw *config.SearchKeyword) bool {
	if kw.Interval <= 0 {
		return true
	}
	last, err := e.stats.GetLastSearchTime(kw.Keyword)
	if err != nil {
		slog.Warn("Failed to read last search time, treating keyword as due",
			"keyword", kw.Keyword, "error", err)
		return true
	}
	if last == nil {
		return true
	}
	return e.now().Sub(*last) >= time.Duration(kw.Interval)*time.Minute
}

func (e *Engine) processKeyword(ctx context.Context, kw *config.SearchKeyword, suppress bool) {
	filters := listing.Filters{
		MinPrice:        kw.MinPrice,
		MaxPrice:        kw.MaxPrice,
		Location:        kw.Location,
		ExcludeKeywords: kw.ExcludeKeywords,
		BlockedSellers:  e.configCache.GetBlockedSellers(),
	}
	tagger := listing.NewTagger(e.configCache.GetTagRules())

	platforms := kw.Platforms
	if len(platforms) == 0 {
		platforms = e.registry.Names()
	}

	for i, platform := range platforms {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			if err := e.sleep(ctx, e.platformPause); err != nil {
				return
			}
		}

		source, ok := e.registry.Get(platform)
		if !ok {
			slog.Warn("Unknown platform in keyword config", "keyword", kw.Keyword, "platform", platform)
			continue
		}

		var results []listing.Listing
		err := backoff.Retry(ctx, maxSearchAttempts, e.retryBase, func(attempt int) error {
			var searchErr error
			results, searchErr = source.Search(ctx, kw.Keyword, kw.Location)
			if searchErr != nil && attempt > 0 {
				slog.Debug("Search retry failed",
					"platform", platform, "keyword", kw.Keyword, "attempt", attempt, "error", searchErr)
			}
			return searchErr
		})
		if err != nil {
			// One platform failing never blocks the others.
			slog.Error("Platform search failed", "platform", platform, "keyword", kw.Keyword, "error", err)
			e.emit(Event{
				Type: EventError, Platform: platform, Keyword: kw.Keyword,
				Message: err.Error(),
			})
			continue
		}

		kept := e.filterer.Run(results, filters)
		newCount := 0
		for i := range kept {
			if ctx.Err() != nil {
				return
			}
			if e.handleListing(ctx, kw, kept[i], tagger, suppress) {
				newCount++
			}
		}

		if err := e.stats.RecordSearch(kw.Keyword, platform, len(results), newCount); err != nil {
			slog.Warn("Failed to record search stats", "keyword", kw.Keyword, "error", err)
		}
		e.trackEmpty(platform, len(results))

		slog.Info("Platform searched",
			"platform", platform, "keyword", kw.Keyword,
			"found", len(results), "kept", len(kept), "new", newCount)
	}
}

// handleListing classifies one filtered candidate and reports whether it
// was new.
func (e *Engine) handleListing(ctx context.Context, kw *config.SearchKeyword, l listing.Listing, tagger *listing.Tagger, suppress bool) bool {
	l.AutoTags = tagger.Analyze(l.Title)

	// The fuzzy check must see the store before this listing lands in it.
	fuzzyDup, err := e.listings.IsFuzzyDuplicate(l)
	if err != nil {
		slog.Warn("Fuzzy duplicate check failed", "platform", l.Platform, "article_id", l.ArticleID, "error", err)
		fuzzyDup = false
	}

	isNew, change, id, err := e.listings.UpsertListing(&l)
	if err != nil {
		slog.Error("Failed to store listing", "platform", l.Platform, "article_id", l.ArticleID, "error", err)
		e.emit(Event{Type: EventError, Platform: l.Platform, Keyword: kw.Keyword, Message: err.Error()})
		return false
	}

	notify := kw.Notify && e.configCache.NotificationsEnabled() && !suppress

	if isNew {
		e.enrichListing(ctx, kw, &l, id)
		e.markFavorite(kw, &l, id)

		e.emit(Event{Type: EventNewItem, Platform: l.Platform, Keyword: kw.Keyword, Listing: &l})
		if fuzzyDup {
			slog.Info("Fuzzy duplicate, suppressing new-item notification",
				"platform", l.Platform, "title", l.Title)
		} else if l.SaleStatus == listing.StatusSold {
			// Sold items are recorded for history but not announced.
			slog.Debug("Listing already sold, skipping new-item notification",
				"platform", l.Platform, "title", l.Title)
		} else if notify {
			e.dispatcher.DispatchNewItem(ctx, l)
		}
	}

	if change != nil {
		e.annotateTargetPrice(id, change)
		e.emit(Event{
			Type: EventPriceChange, Platform: l.Platform, Keyword: kw.Keyword, Listing: &l,
			Message: fmt.Sprintf("%s → %s", change.OldPrice, change.NewPrice),
		})
		// Price changes ride through fuzzy suppression: the identity key
		// already proves this is the same posting.
		if kw.Notify && e.configCache.NotificationsEnabled() && !suppress {
			e.dispatcher.DispatchPriceChange(ctx, l, *change)
		}
	}

	return isNew
}

// annotateTargetPrice flags a price change that brings a favorited listing
// down to its target price, so the notification calls it out.
func (e *Engine) annotateTargetPrice(id int64, change *listing.PriceChange) {
	fav, err := e.listings.GetFavorite(id)
	if err != nil {
		slog.Warn("Failed to look up favorite", "listing_id", id, "error", err)
		return
	}
	if fav == nil || fav.TargetPrice <= 0 {
		return
	}
	if change.NewNumeric > 0 && change.NewNumeric <= fav.TargetPrice {
		change.TargetPrice = fav.TargetPrice
	}
}

func (e *Engine) enrichListing(ctx context.Context, kw *config.SearchKeyword, l *listing.Listing, id int64) {
	if !kw.FetchDetails || e.extractor == nil || l.Description != "" || l.URL == "" {
		return
	}
	description, err := e.extractor.Describe(ctx, l.URL)
	if err != nil {
		slog.Debug("Detail enrichment failed", "url", l.URL, "error", err)
		return
	}
	if err := e.listings.SetDescription(id, description); err != nil {
		slog.Warn("Failed to store description", "listing_id", id, "error", err)
		return
	}
	l.Description = description
}

// markFavorite pins new listings that already meet the keyword's target
// price.
func (e *Engine) markFavorite(kw *config.SearchKeyword, l *listing.Listing, id int64) {
	if kw.TargetPrice <= 0 || l.PriceNumeric <= 0 || l.PriceNumeric > kw.TargetPrice {
		return
	}
	if err := e.listings.AddFavorite(id, "목표가 도달", kw.TargetPrice); err != nil {
		slog.Warn("Failed to mark favorite", "listing_id", id, "error", err)
		return
	}
	slog.Info("Target price met", "title", l.Title, "price", l.Price, "target", kw.TargetPrice)
	e.emit(Event{
		Type: EventStatus, Platform: l.Platform, Keyword: kw.Keyword, Listing: l,
		Message: fmt.Sprintf("목표가 도달: %s (%s)", l.Title, l.Price),
	})
}

// trackEmpty raises a warning after several consecutive cycles with zero
// results on one platform, a common sign of a layout change or a block.
func (e *Engine) trackEmpty(platform string, found int) {
	e.emptyMu.Lock()
	defer e.emptyMu.Unlock()

	if found > 0 {
		e.emptyCycles[platform] = 0
		return
	}
	e.emptyCycles[platform]++
	if e.emptyCycles[platform] == consecutiveEmptyWarning {
		slog.Warn("Platform returned no results repeatedly",
			"platform", platform, "cycles", consecutiveEmptyWarning)
		e.emit(Event{
			Type: EventWarning, Platform: platform,
			Message: fmt.Sprintf("%s에서 %d회 연속 결과 없음", platform, consecutiveEmptyWarning),
		})
	}
}
