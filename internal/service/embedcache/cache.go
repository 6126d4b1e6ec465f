// Package embedcache fronts the remote embedding provider with a two-tier
// cache: a ristretto hot tier in process and a durable KV tier with a TTL.
// Concurrent duplicate Embed calls for one key coalesce into a single
// provider call; EmbedBatch dedupes within its own batch only and does not
// join the per-key flight, so a batch racing a concurrent Embed of the same
// text may call the provider twice for that key. Entries are deterministic
// functions of the text, so the duplicate is wasted work, never a wrong
// answer.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/service/text"
	"github.com/sandevgo/voxmem/internal/vec"
	"github.com/sandevgo/voxmem/pkg/log"
)

const kvPrefix = "embed:"

type Cache struct {
	provider core.EmbeddingProvider
	kv       core.KV
	hot      *ristretto.Cache
	cfg      *config.CacheConfig
	flight   singleflight.Group
}

func New(provider core.EmbeddingProvider, kv core.KV, cfg *config.CacheConfig) (*Cache, error) {
	hot, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     cfg.HotMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create hot cache: %w", err)
	}

	return &Cache{
		provider: provider,
		kv:       kv,
		hot:      hot,
		cfg:      cfg,
	}, nil
}

// Key derives the cache key for a raw text: a hash of the normalized form
// under the namespace version tag, so changing the normalizer or the model
// invalidates every stale entry at once.
func (c *Cache) Key(raw string) string {
	sum := sha256.Sum256([]byte(c.cfg.Namespace + "\x00" + normalizeForKey(raw)))
	return kvPrefix + c.cfg.Namespace + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the vector for the text and whether it was served from
// cache. On a miss the provider is called exactly once per key even under
// concurrent duplicate requests; a provider failure writes nothing and
// propagates.
func (c *Cache) Embed(ctx context.Context, raw string) ([]float32, bool, error) {
	key := c.Key(raw)

	if v, ok := c.lookup(ctx, key); ok {
		return v, true, nil
	}

	out, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have filled the
		// entry between our lookup and joining the group.
		if v, ok := c.lookup(ctx, key); ok {
			return v, nil
		}

		embedding, err := c.provider.Embed(ctx, normalizeForKey(raw))
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		c.store(ctx, key, embedding)
		return embedding, nil
	})
	if err != nil {
		return nil, false, err
	}

	return out.([]float32), false, nil
}

// EmbedBatch embeds texts preserving input order. Cached items are served
// locally; only the uncached remainder goes upstream in a single provider
// call, then results are merged back into position. Misses are deduped
// within the batch but bypass the singleflight group: keeping one upstream
// call per batch is worth the rare duplicate against a racing Embed.
func (c *Cache) EmbedBatch(ctx context.Context, raws []string) ([][]float32, error) {
	results := make([][]float32, len(raws))

	var missTexts []string
	var missIdx []int
	missKeys := make(map[string]int) // key -> position in missTexts, dedupes within the batch

	for i, raw := range raws {
		key := c.Key(raw)
		if v, ok := c.lookup(ctx, key); ok {
			results[i] = v
			continue
		}
		if _, dup := missKeys[key]; dup {
			missIdx = append(missIdx, i)
			continue
		}
		missKeys[key] = len(missTexts)
		missTexts = append(missTexts, normalizeForKey(raw))
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	embeddings, err := c.provider.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(missTexts) {
		return nil, fmt.Errorf("embed batch: provider returned %d vectors for %d texts", len(embeddings), len(missTexts))
	}

	for _, i := range missIdx {
		key := c.Key(raws[i])
		pos := missKeys[key]
		results[i] = embeddings[pos]
	}
	for key, pos := range missKeys {
		c.store(ctx, key, embeddings[pos])
	}

	log.FromCtx(ctx).Debug().
		Int("batch", len(raws)).
		Int("misses", len(missTexts)).
		Msg("embedded batch")

	return results, nil
}

// lookup checks the hot tier, then the durable tier, promoting durable hits.
func (c *Cache) lookup(ctx context.Context, key string) ([]float32, bool) {
	if v, ok := c.hot.Get(key); ok {
		if embedding, ok := v.([]float32); ok {
			return embedding, true
		}
	}

	blob, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("embedding cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	embedding, err := vec.Decode(blob)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("corrupt embedding cache entry, dropping")
		_ = c.kv.Delete(ctx, key)
		return nil, false
	}

	c.hot.SetWithTTL(key, embedding, int64(len(embedding)*4), c.cfg.TTL)
	return embedding, true
}

// store writes both tiers. Entries are deterministic functions of the text,
// so last-write-wins is safe; a failed durable write only costs a re-embed.
func (c *Cache) store(ctx context.Context, key string, embedding []float32) {
	c.hot.SetWithTTL(key, embedding, int64(len(embedding)*4), c.cfg.TTL)

	blob, err := vec.Encode(embedding)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to encode embedding for cache")
		return
	}
	if err := c.kv.Set(ctx, key, blob, c.cfg.TTL); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("embedding cache write failed")
	}
}

func normalizeForKey(raw string) string {
	if n := text.Normalize(raw); n != "" {
		return n
	}
	return raw
}
