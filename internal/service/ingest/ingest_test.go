package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/voxmem/internal/storage/chromem"
)

type mockCache struct {
	embedFunc func(ctx context.Context, text string) ([]float32, bool, error)
}

func (m *mockCache) Embed(ctx context.Context, text string) ([]float32, bool, error) {
	return m.embedFunc(ctx, text)
}

func workingCache() *mockCache {
	return &mockCache{
		embedFunc: func(_ context.Context, _ string) ([]float32, bool, error) {
			return []float32{1, 0, 0}, false, nil
		},
	}
}

func TestIngestHighlight(t *testing.T) {
	index := chromem.New()
	g := NewIngestor(workingCache(), index)
	ctx := context.Background()

	h, err := g.IngestHighlight(ctx, "user-1", "conv-1", "  mentioned her sister visits on Sundays  ")
	if err != nil {
		t.Fatalf("IngestHighlight failed: %v", err)
	}
	if h.ID == "" {
		t.Error("highlight has no ID")
	}
	if h.Content != "mentioned her sister visits on Sundays" {
		t.Errorf("content not trimmed: %q", h.Content)
	}
	if h.UserID != "user-1" || h.ConversationID != "conv-1" {
		t.Errorf("ownership fields wrong: %+v", h)
	}

	docs, err := index.Search(ctx, "user-1", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 1 || docs[0].PageContent != h.Content {
		t.Fatalf("highlight not retrievable after ingest: %+v", docs)
	}
}

func TestIngestHighlight_Validation(t *testing.T) {
	g := NewIngestor(workingCache(), chromem.New())
	ctx := context.Background()

	if _, err := g.IngestHighlight(ctx, "user-1", "conv-1", "   "); err == nil {
		t.Error("expected error for blank content")
	}
	if _, err := g.IngestHighlight(ctx, "", "conv-1", "some content here"); err == nil {
		t.Error("expected error for missing user id")
	}
}

func TestIngestHighlight_EmbedFailurePropagates(t *testing.T) {
	cache := &mockCache{
		embedFunc: func(_ context.Context, _ string) ([]float32, bool, error) {
			return nil, false, errors.New("provider unavailable")
		},
	}
	index := chromem.New()
	g := NewIngestor(cache, index)
	ctx := context.Background()

	if _, err := g.IngestHighlight(ctx, "user-1", "conv-1", "some content"); err == nil {
		t.Fatal("expected embed failure to propagate")
	}

	docs, err := index.Search(ctx, "user-1", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 0 {
		t.Error("failed ingest left a document in the index")
	}
}

func TestIngestHighlight_DistinctIDs(t *testing.T) {
	g := NewIngestor(workingCache(), chromem.New())
	ctx := context.Background()

	a, err := g.IngestHighlight(ctx, "user-1", "conv-1", "first highlight content")
	if err != nil {
		t.Fatalf("IngestHighlight failed: %v", err)
	}
	b, err := g.IngestHighlight(ctx, "user-1", "conv-1", "second highlight content")
	if err != nil {
		t.Fatalf("IngestHighlight failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("two highlights share an ID")
	}
}
