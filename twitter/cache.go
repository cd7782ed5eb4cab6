package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/xagent/log"
)

// CachedFetcher is a read-through redis cache in front of another Fetcher.
// Successful keyword searches are cached with a TTL; fetch failures are
// never cached so a transient outage does not poison later sessions.
type CachedFetcher struct {
	inner  Fetcher
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger log.Logger
}

var _ Fetcher = (*CachedFetcher)(nil)

// CacheOptions configures a CachedFetcher.
type CacheOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "xagent:posts:"
	TTL      time.Duration // default 5 minutes
}

// NewCachedFetcher wraps inner with a redis cache.
func NewCachedFetcher(inner Fetcher, opts CacheOptions) *CachedFetcher {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewCachedFetcherWithClient(inner, client, opts)
}

// NewCachedFetcherWithClient wraps inner using an existing redis client.
// Useful for testing with miniredis.
func NewCachedFetcherWithClient(inner Fetcher, client *redis.Client, opts CacheOptions) *CachedFetcher {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "xagent:posts:"
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &CachedFetcher{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.GetDefaultLogger(),
	}
}

// Search serves from the cache when possible, otherwise delegates to the
// wrapped fetcher and stores the result.
func (c *CachedFetcher) Search(ctx context.Context, keywords []string) ([]Post, error) {
	key := c.cacheKey(keywords)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var posts []Post
		if err := json.Unmarshal(data, &posts); err == nil {
			c.logger.Debug("post cache hit for %s", key)
			return posts, nil
		}
		// Corrupt entry; fall through to a fresh fetch.
		c.logger.Warn("dropping corrupt cache entry %s", key)
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("post cache read failed: %v", err)
	}

	posts, err := c.inner.Search(ctx, keywords)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(posts); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("post cache write failed: %v", err)
		}
	}
	return posts, nil
}

// Close releases the redis client.
func (c *CachedFetcher) Close() error {
	return c.client.Close()
}

func (c *CachedFetcher) cacheKey(keywords []string) string {
	normalized := make([]string, len(keywords))
	for i, k := range keywords {
		normalized[i] = strings.ToLower(strings.TrimSpace(k))
	}
	sort.Strings(normalized)
	return fmt.Sprintf("%s%s", c.prefix, strings.Join(normalized, "|"))
}
