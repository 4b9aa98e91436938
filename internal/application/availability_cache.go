package application

import (
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultAvailabilityCacheTTL bounds how long derived availability results
// are served without recomputation.
const DefaultAvailabilityCacheTTL = 5 * time.Minute

type cachedAvailability struct {
	owners []string
	value  any
}

// AvailabilityCache memoizes derived availability results keyed by the query
// shape. Entries are evicted by TTL and whenever a participant's schedule
// changes.
type AvailabilityCache struct {
	entries *gocache.Cache
}

// NewAvailabilityCache builds a cache with the given TTL. A non-positive TTL
// falls back to the default.
func NewAvailabilityCache(ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultAvailabilityCacheTTL
	}
	return &AvailabilityCache{
		entries: gocache.New(ttl, 2*ttl),
	}
}

func (c *AvailabilityCache) get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := raw.(cachedAvailability)
	if !ok {
		return nil, false
	}
	return entry.value, true
}

func (c *AvailabilityCache) set(key string, owners []string, value any) {
	if c == nil {
		return
	}
	c.entries.SetDefault(key, cachedAvailability{owners: owners, value: value})
}

// InvalidateOwner drops every cached result that involves the given owner.
func (c *AvailabilityCache) InvalidateOwner(ownerID string) {
	if c == nil {
		return
	}
	for key, item := range c.entries.Items() {
		entry, ok := item.Object.(cachedAvailability)
		if !ok {
			c.entries.Delete(key)
			continue
		}
		for _, owner := range entry.owners {
			if owner == ownerID {
				c.entries.Delete(key)
				break
			}
		}
	}
}

func availabilityCacheKey(kind string, owners []string, rangeStart, rangeEnd time.Time, extra ...string) string {
	sorted := make([]string, len(owners))
	copy(sorted, owners)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(kind)
	for _, owner := range sorted {
		b.WriteByte('|')
		b.WriteString(owner)
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(rangeStart.UnixNano(), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(rangeEnd.UnixNano(), 10))
	for _, part := range extra {
		b.WriteByte('|')
		b.WriteString(part)
	}
	return b.String()
}
