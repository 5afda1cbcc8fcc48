package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache provides Redis-backed question set caching so repeated level visits
// do not re-download the same resource.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a question set cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(url string) string {
	return "questionset:" + url
}

// Get returns the cached question set, or nil on a miss.
func (c *Cache) Get(ctx context.Context, url string) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(url)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Set stores a freshly fetched question set.
func (c *Cache) Set(ctx context.Context, url string, questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(url), data, c.ttl).Err()
}

// CachingFetcher wraps a QuestionFetcher with the Redis cache. A cache
// read error falls through to the origin fetch.
type CachingFetcher struct {
	inner QuestionFetcher
	cache *Cache
}

var _ QuestionFetcher = (*CachingFetcher)(nil)

// NewCachingFetcher wraps fetcher with cache. cache may be nil.
func NewCachingFetcher(inner QuestionFetcher, cache *Cache) *CachingFetcher {
	return &CachingFetcher{inner: inner, cache: cache}
}

func (f *CachingFetcher) FetchQuestionSet(ctx context.Context, url string) ([]Question, error) {
	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, url); err == nil && cached != nil {
			return cached, nil
		}
	}
	questions, err := f.inner.FetchQuestionSet(ctx, url)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		_ = f.cache.Set(ctx, url, questions)
	}
	return questions, nil
}
