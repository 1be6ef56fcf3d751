package lottery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Draw results publish daily at 16:05; cached entries stay valid until
// the next publish instant.
const (
	publishHour   = 16
	publishMinute = 5
)

// Cache is a read-through Redis cache for upstream lottery responses.
// A nil *Cache is valid and disables caching.
type Cache struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewCache(rdb *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, log: log}
}

// GetPage returns a cached history page, or nil on miss. Cache errors
// degrade to a miss; the upstream stays authoritative.
func (c *Cache) GetPage(ctx context.Context, limit, offset int) *HistoryPage {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, historyKey(limit, offset)).Bytes()
	if err != nil {
		return nil
	}
	var page HistoryPage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.log.Warn().Err(err).Msg("corrupt cached history page, ignoring")
		return nil
	}
	return &page
}

// SetPage stores a history page until the next publish time.
func (c *Cache) SetPage(ctx context.Context, page *HistoryPage) {
	if c == nil || c.rdb == nil || page == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, historyKey(page.Limit, page.Offset), raw, TTLUntilNextPublish(time.Now())).Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to cache history page")
	}
}

// GetResult returns a cached single draw for the given cache key
// ("latest" or a YYYY-MM-DD date), or nil on miss.
func (c *Cache) GetResult(ctx context.Context, key string) *Result {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, resultKey(key)).Bytes()
	if err != nil {
		return nil
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn().Err(err).Msg("corrupt cached result, ignoring")
		return nil
	}
	return &result
}

// SetResult stores a single draw until the next publish time.
func (c *Cache) SetResult(ctx context.Context, key string, result *Result) {
	if c == nil || c.rdb == nil || result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, resultKey(key), raw, TTLUntilNextPublish(time.Now())).Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to cache result")
	}
}

// TTLUntilNextPublish returns the duration from now until the next
// 16:05 publish instant.
func TTLUntilNextPublish(now time.Time) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), publishHour, publishMinute, 0, 0, now.Location())
	if !now.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

func historyKey(limit, offset int) string {
	return fmt.Sprintf("lottery:history:%d:%d", limit, offset)
}

func resultKey(key string) string {
	return "lottery:result:" + key
}
