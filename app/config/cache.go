package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// Cache loads and holds all watch configuration: keyword files from
// <dir>/keywords/*.yml plus channels.yml, tags.yml and sellers.yml at the
// directory root. A malformed keyword file is skipped with a warning so one
// bad file never takes down the rest of the watch set.
type Cache struct {
	dir string

	mu                   sync.RWMutex
	keywords             map[string]*SearchKeyword
	channels             []ChannelConfig
	notificationsEnabled bool
	tagRules             []listing.TagRule
	blockedSellers       []SellerFilter
	rssFeeds             []RSSFeed
}

func NewCache(dir string) *Cache {
	return &Cache{
		dir:      dir,
		keywords: make(map[string]*SearchKeyword),
	}
}

// Run loads everything from disk, replacing the cached state. Safe to call
// again for a reload.
func (c *Cache) Run() error {
	keywords, err := c.loadKeywords()
	if err != nil {
		return err
	}

	channels, notificationsEnabled, err := c.loadChannels()
	if err != nil {
		return err
	}

	tagRules, err := c.loadTagRules()
	if err != nil {
		return err
	}

	blocked, err := c.loadSellers()
	if err != nil {
		return err
	}

	feeds, err := c.loadFeeds()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.keywords = keywords
	c.channels = channels
	c.notificationsEnabled = notificationsEnabled
	c.tagRules = tagRules
	c.blockedSellers = blocked
	c.rssFeeds = feeds

	return nil
}

func (c *Cache) loadKeywords() (map[string]*SearchKeyword, error) {
	keywords := make(map[string]*SearchKeyword)

	keywordsDir := filepath.Join(c.dir, "keywords")
	if _, err := os.Stat(keywordsDir); os.IsNotExist(err) {
		return keywords, nil
	}

	files, err := filepath.Glob(filepath.Join(keywordsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find keyword files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(keywordsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find keyword files: %w", err)
	}
	files = append(files, yamlFiles...)

	for _, file := range files {
		kw, err := parseKeywordFile(file)
		if err != nil {
			slog.Warn("Skipping invalid keyword config", "file", file, "error", err)
			continue
		}
		keywords[kw.Name] = kw
		slog.Debug("Keyword configuration loaded", "keyword", kw.Keyword, "enabled", kw.Enabled, "platforms", kw.Platforms)
	}

	return keywords, nil
}

func parseKeywordFile(path string) (*SearchKeyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Absent keys keep these defaults.
	kw := SearchKeyword{
		Enabled: true,
		Notify:  true,
	}
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	kw.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".yaml")

	if err := validateKeyword(&kw); err != nil {
		return nil, err
	}

	return &kw, nil
}

func validateKeyword(kw *SearchKeyword) error {
	if strings.TrimSpace(kw.Keyword) == "" {
		return fmt.Errorf("keyword is required")
	}
	if len(kw.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	if kw.MinPrice < 0 || kw.MaxPrice < 0 {
		return fmt.Errorf("price bounds must be non-negative")
	}
	if kw.MaxPrice > 0 && kw.MinPrice > kw.MaxPrice {
		return fmt.Errorf("min_price %d exceeds max_price %d", kw.MinPrice, kw.MaxPrice)
	}
	if kw.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}
	return nil
}

func (c *Cache) loadChannels() ([]ChannelConfig, bool, error) {
	path := filepath.Join(c.dir, "channels.yml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read channels config: %w", err)
	}

	file := channelsFile{NotificationsEnabled: true}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, false, fmt.Errorf("failed to parse channels config: %w", err)
	}

	channels := make([]ChannelConfig, 0, len(file.Channels))
	for i, ch := range file.Channels {
		if err := validateChannel(ch); err != nil {
			slog.Warn("Skipping invalid channel config", "index", i, "type", ch.Type, "error", err)
			continue
		}
		channels = append(channels, ch)
	}

	return channels, file.NotificationsEnabled, nil
}

func validateChannel(ch ChannelConfig) error {
	switch ch.Type {
	case "telegram":
		if ch.Token == "" || ch.ChatID == "" {
			return fmt.Errorf("telegram channel requires token and chat_id")
		}
	case "discord", "slack":
		if ch.WebhookURL == "" {
			return fmt.Errorf("%s channel requires webhook_url", ch.Type)
		}
	default:
		return fmt.Errorf("unknown channel type '%s'", ch.Type)
	}
	return nil
}

func (c *Cache) loadTagRules() ([]listing.TagRule, error) {
	path := filepath.Join(c.dir, "tags.yml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tags config: %w", err)
	}

	var file tagsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tags config: %w", err)
	}
	return file.Rules, nil
}

func (c *Cache) loadSellers() ([]SellerFilter, error) {
	path := filepath.Join(c.dir, "sellers.yml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sellers config: %w", err)
	}

	var file sellersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sellers config: %w", err)
	}
	return file.Blocked, nil
}

func (c *Cache) loadFeeds() ([]RSSFeed, error) {
	path := filepath.Join(c.dir, "feeds.yml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds config: %w", err)
	}

	feeds := make([]RSSFeed, 0, len(file.Feeds))
	for i, feed := range file.Feeds {
		// The URL needs a %s placeholder for the keyword.
		if feed.Name == "" || !strings.Contains(feed.URL, "%s") {
			slog.Warn("Skipping invalid feed config", "index", i, "name", feed.Name)
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

// GetKeywords returns a copy of all loaded keywords.
func (c *Cache) GetKeywords() []*SearchKeyword {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keywords := make([]*SearchKeyword, 0, len(c.keywords))
	for _, kw := range c.keywords {
		keywords = append(keywords, kw)
	}
	return keywords
}

// GetEnabledKeywords returns only keywords with enabled: true.
func (c *Cache) GetEnabledKeywords() []*SearchKeyword {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keywords := make([]*SearchKeyword, 0, len(c.keywords))
	for _, kw := range c.keywords {
		if kw.Enabled {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func (c *Cache) GetKeyword(name string) (*SearchKeyword, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	kw, ok := c.keywords[name]
	if !ok {
		return nil, fmt.Errorf("keyword config with name '%s' not found", name)
	}
	return kw, nil
}

func (c *Cache) GetKeywordCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keywords)
}

func (c *Cache) GetChannels() []ChannelConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]ChannelConfig, len(c.channels))
	copy(channels, c.channels)
	return channels
}

func (c *Cache) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notificationsEnabled
}

func (c *Cache) GetTagRules() []listing.TagRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rules := make([]listing.TagRule, len(c.tagRules))
	copy(rules, c.tagRules)
	return rules
}

// GetRSSFeeds returns the feed-backed source declarations.
func (c *Cache) GetRSSFeeds() []RSSFeed {
	c.mu.RLock()
	defer c.mu.RUnlock()

	feeds := make([]RSSFeed, len(c.rssFeeds))
	copy(feeds, c.rssFeeds)
	return feeds
}

// GetBlockedSellers returns the blocked-seller set keyed for the filterer.
func (c *Cache) GetBlockedSellers() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocked := make(map[string]bool, len(c.blockedSellers))
	for _, s := range c.blockedSellers {
		blocked[listing.BlockedSellerKey(s.Seller, s.Platform)] = true
	}
	return blocked
}
