package config

import (
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// SearchKeyword is one watch target: a search string plus filters, loaded
// from its own YAML file under <config-dir>/keywords/. The engine treats a
// loaded keyword as read-only for the duration of a cycle.
type SearchKeyword struct {
	Name            string   `yaml:"-"` // derived from filename
	Keyword         string   `yaml:"keyword"`
	MinPrice        int64    `yaml:"min_price"`
	MaxPrice        int64    `yaml:"max_price"`
	Location        string   `yaml:"location"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Platforms       []string `yaml:"platforms"`
	Enabled         bool     `yaml:"enabled"`
	Notify          bool     `yaml:"notify"`
	Interval        int      `yaml:"interval"` // minutes, 0 = global cycle default
	TargetPrice     int64    `yaml:"target_price"`
	FetchDetails    bool     `yaml:"fetch_details"`
}

// ChannelConfig configures one notification channel.
type ChannelConfig struct {
	Type       string   `yaml:"type"` // telegram, discord, slack
	Name       string   `yaml:"name"`
	Enabled    bool     `yaml:"enabled"`
	Token      string   `yaml:"token"`
	ChatID     string   `yaml:"chat_id"`
	WebhookURL string   `yaml:"webhook_url"`
	Schedule   Schedule `yaml:"schedule"`
}

// ChannelKey identifies the channel in the notification log. Named channels
// stay distinguishable when two channels share a type.
func (c ChannelConfig) ChannelKey() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Type
}

// Schedule is a do-not-disturb window. Days use 0=Monday .. 6=Sunday.
// StartHour <= EndHour is a same-day window; StartHour > EndHour wraps
// overnight (e.g. 22 to 6).
type Schedule struct {
	Enabled   bool  `yaml:"enabled"`
	StartHour int   `yaml:"start_hour"`
	EndHour   int   `yaml:"end_hour"`
	Days      []int `yaml:"days"`
}

// ActiveAt reports whether notifications may be sent at the given time.
// A disabled schedule means "always active".
func (s Schedule) ActiveAt(t time.Time) bool {
	if !s.Enabled {
		return true
	}
	if len(s.Days) > 0 {
		day := (int(t.Weekday()) + 6) % 7 // time.Weekday is 0=Sunday
		found := false
		for _, d := range s.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	hour := t.Hour()
	if s.StartHour <= s.EndHour {
		return s.StartHour <= hour && hour < s.EndHour
	}
	return hour >= s.StartHour || hour < s.EndHour
}

// SellerFilter marks a seller as blocked on one platform (empty platform
// blocks everywhere).
type SellerFilter struct {
	Seller   string `yaml:"seller"`
	Platform string `yaml:"platform"`
}

// RSSFeed declares a feed-backed marketplace source registered at startup.
// URL must contain %s, replaced with the URL-escaped search keyword. Name
// becomes the platform id keywords refer to.
type RSSFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// channelsFile is the on-disk shape of <config-dir>/channels.yml.
type channelsFile struct {
	NotificationsEnabled bool            `yaml:"notifications_enabled"`
	Channels             []ChannelConfig `yaml:"channels"`
}

// tagsFile is the on-disk shape of <config-dir>/tags.yml.
type tagsFile struct {
	Rules []listing.TagRule `yaml:"rules"`
}

// sellersFile is the on-disk shape of <config-dir>/sellers.yml.
type sellersFile struct {
	Blocked []SellerFilter `yaml:"blocked"`
}

// feedsFile is the on-disk shape of <config-dir>/feeds.yml.
type feedsFile struct {
	Feeds []RSSFeed `yaml:"feeds"`
}
