package embedcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/voxmem/internal/config"
)

type mockProvider struct {
	embedFunc      func(ctx context.Context, text string) ([]float32, error)
	embedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls          atomic.Int64
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.embedFunc(ctx, text)
}

func (m *mockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	return m.embedBatchFunc(ctx, texts)
}

// fakeKV is a minimal in-process core.KV; TTLs are ignored, which is fine for
// tests that never advance time.
type fakeKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Keys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKV) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func testConfig() *config.CacheConfig {
	return &config.CacheConfig{
		TTL:        time.Hour,
		Namespace:  "v1",
		HotMaxCost: 1 << 20,
	}
}

func constantVector(text string) []float32 {
	return []float32{float32(len(text)), 0.5, -0.5}
}

func newTestCache(t *testing.T, provider *mockProvider) (*Cache, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	c, err := New(provider, kv, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, kv
}

func TestEmbed_CachesResult(t *testing.T) {
	provider := &mockProvider{
		embedFunc: func(_ context.Context, text string) ([]float32, error) {
			return constantVector(text), nil
		},
	}
	c, _ := newTestCache(t, provider)
	ctx := context.Background()

	first, fromCache, err := c.Embed(ctx, "tell me about my garden")
	if err != nil {
		t.Fatalf("first Embed failed: %v", err)
	}
	if fromCache {
		t.Error("first call reported fromCache=true")
	}

	second, fromCache, err := c.Embed(ctx, "tell me about my garden")
	if err != nil {
		t.Fatalf("second Embed failed: %v", err)
	}
	if !fromCache {
		t.Error("second call reported fromCache=false")
	}
	if len(first) != len(second) {
		t.Fatalf("vector lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("element %d differs: %v vs %v", i, first[i], second[i])
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

func TestEmbed_FillerVariantsShareKey(t *testing.T) {
	// Normalization runs before hashing, so hesitation markers do not fragment
	// the cache.
	c, _ := newTestCache(t, &mockProvider{})

	if c.Key("um tell me about the trip") != c.Key("tell me about uh the trip") {
		t.Error("filler variants of the same utterance produced distinct keys")
	}
	if c.Key("tell me about the trip") == c.Key("tell me about the weather") {
		t.Error("distinct utterances produced the same key")
	}
}

func TestEmbed_ConcurrentDuplicatesCoalesce(t *testing.T) {
	provider := &mockProvider{
		embedFunc: func(_ context.Context, text string) ([]float32, error) {
			time.Sleep(10 * time.Millisecond) // widen the race window
			return constantVector(text), nil
		},
	}
	c, _ := newTestCache(t, provider)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.Embed(context.Background(), "my knee has been aching all week"); err != nil {
				t.Errorf("Embed failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider called %d times for concurrent duplicates, want 1", got)
	}
}

func TestEmbed_ProviderFailureNotCached(t *testing.T) {
	fail := true
	provider := &mockProvider{
		embedFunc: func(_ context.Context, text string) ([]float32, error) {
			if fail {
				return nil, errors.New("upstream unavailable")
			}
			return constantVector(text), nil
		},
	}
	c, kv := newTestCache(t, provider)
	ctx := context.Background()

	if _, _, err := c.Embed(ctx, "what did the doctor say"); err == nil {
		t.Fatal("expected error from failing provider")
	}
	if kv.len() != 0 {
		t.Fatalf("failed embed left %d entries in the durable tier, want 0", kv.len())
	}

	fail = false
	v, fromCache, err := c.Embed(ctx, "what did the doctor say")
	if err != nil {
		t.Fatalf("Embed after recovery failed: %v", err)
	}
	if fromCache {
		t.Error("recovered call reported fromCache=true; the failure must not have been cached")
	}
	if len(v) == 0 {
		t.Error("recovered call returned empty vector")
	}
}

func TestEmbedBatch_PartialHitsPreserveOrder(t *testing.T) {
	provider := &mockProvider{
		embedFunc: func(_ context.Context, text string) ([]float32, error) {
			return constantVector(text), nil
		},
		embedBatchFunc: func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, txt := range texts {
				out[i] = constantVector(txt)
			}
			return out, nil
		},
	}
	c, _ := newTestCache(t, provider)
	ctx := context.Background()

	if _, _, err := c.Embed(ctx, "gardening tips"); err != nil {
		t.Fatalf("warm-up Embed failed: %v", err)
	}
	provider.calls.Store(0)

	texts := []string{"morning walk", "gardening tips", "evening medication"}
	got, err := c.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("result length = %d, want %d", len(got), len(texts))
	}
	for i, txt := range texts {
		want := constantVector(txt)
		if len(got[i]) != len(want) || got[i][0] != want[0] {
			t.Errorf("position %d: got %v, want %v", i, got[i], want)
		}
	}
	// One upstream call for the two misses; the cached middle item stayed local.
	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestEmbedBatch_DeduplicatesWithinBatch(t *testing.T) {
	var upstream [][]string
	provider := &mockProvider{
		embedBatchFunc: func(_ context.Context, texts []string) ([][]float32, error) {
			upstream = append(upstream, texts)
			out := make([][]float32, len(texts))
			for i, txt := range texts {
				out[i] = constantVector(txt)
			}
			return out, nil
		},
	}
	c, _ := newTestCache(t, provider)

	got, err := c.EmbedBatch(context.Background(), []string{"picking apples", "picking apples", "baking bread"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(upstream) != 1 || len(upstream[0]) != 2 {
		t.Fatalf("upstream calls = %v, want one call with 2 texts", upstream)
	}
	if got[0][0] != got[1][0] {
		t.Error("duplicate texts in one batch received different vectors")
	}
}

func TestEmbedBatch_ProviderCountMismatch(t *testing.T) {
	provider := &mockProvider{
		embedBatchFunc: func(_ context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil // one vector short
		},
	}
	c, _ := newTestCache(t, provider)

	if _, err := c.EmbedBatch(context.Background(), []string{"first thing", "second thing"}); err == nil {
		t.Fatal("expected error when provider returns wrong vector count")
	}
}
