package cache

import (
	"time"

	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
)

const defaultSummaryTTL = 30 * time.Second

const summaryKey = "summary"

// SummaryCache keeps the dashboard totals warm between requests. The totals
// aggregate every room row, so recomputing them on each poll is wasteful; a
// short TTL keeps them close enough to live.
type SummaryCache interface {
	Get() (roomdomain.Summary, bool)
	Set(summary roomdomain.Summary)
	Invalidate()
}

type summaryCache struct {
	entries Cache[string, roomdomain.Summary]
	ttl     time.Duration
}

func NewSummaryCache() SummaryCache {
	return &summaryCache{
		entries: NewTTLCache[string, roomdomain.Summary](),
		ttl:     defaultSummaryTTL,
	}
}

func (c *summaryCache) Get() (roomdomain.Summary, bool) {
	return c.entries.Get(summaryKey)
}

func (c *summaryCache) Set(summary roomdomain.Summary) {
	c.entries.Set(summaryKey, summary, c.ttl)
}

func (c *summaryCache) Invalidate() {
	c.entries.Delete(summaryKey)
}
