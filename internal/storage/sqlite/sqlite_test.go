package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/voxmem/internal/core"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "voxmem.db"), 3)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVRepo_SetGetDelete(t *testing.T) {
	repo := NewKVRepo(newTestDB(t))
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = (ok=%v, err=%v), want miss", ok, err)
	}

	if err := repo.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := repo.Get(ctx, "k1")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("Get = (%q, %v, %v), want (v1, true, nil)", got, ok, err)
	}

	// Upsert replaces the value.
	if err := repo.Set(ctx, "k1", []byte("v2"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _, _ = repo.Get(ctx, "k1")
	if string(got) != "v2" {
		t.Fatalf("after upsert Get = %q, want v2", got)
	}

	if err := repo.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "k1"); ok {
		t.Error("entry survived Delete")
	}
}

func TestKVRepo_ExpiryAndSweep(t *testing.T) {
	repo := NewKVRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Set(ctx, "stale", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(ctx, "live", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := repo.Get(ctx, "stale"); ok {
		t.Error("expired entry visible to readers")
	}
	if _, ok, _ := repo.Get(ctx, "live"); !ok {
		t.Error("live entry not visible")
	}

	n, err := repo.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d rows, want 1", n)
	}
}

func TestKVRepo_KeysPrefix(t *testing.T) {
	repo := NewKVRepo(newTestDB(t))
	ctx := context.Background()

	for _, k := range []string{"topic:a", "topic:b", "embed:x"} {
		if err := repo.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	keys, err := repo.Keys(ctx, "topic:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "topic:a" || keys[1] != "topic:b" {
		t.Errorf("Keys = %v, want [topic:a topic:b]", keys)
	}
}

func addTestHighlight(t *testing.T, idx *HighlightIndex, id, userID, content string, embedding []float32) {
	t.Helper()
	h := core.Highlight{
		ID:             id,
		UserID:         userID,
		ConversationID: "conv-1",
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := idx.Add(context.Background(), h, embedding); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
}

func TestHighlightIndex_SearchRanksByCosine(t *testing.T) {
	idx := NewHighlightIndex(newTestDB(t))
	ctx := context.Background()

	addTestHighlight(t, idx, "h1", "user-1", "enjoys gardening", []float32{1, 0, 0})
	addTestHighlight(t, idx, "h2", "user-1", "sleeps poorly", []float32{0, 1, 0})

	docs, err := idx.Search(ctx, "user-1", []float32{0.9, 0.1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].PageContent != "enjoys gardening" {
		t.Errorf("nearest = %q, want the gardening highlight", docs[0].PageContent)
	}
	if docs[0].Score <= docs[1].Score {
		t.Errorf("scores not descending: %v then %v", docs[0].Score, docs[1].Score)
	}
	if docs[0].Score < 0.9 {
		t.Errorf("near-identical vector scored %v, want close to 1", docs[0].Score)
	}
	if docs[0].Metadata["conversationId"] != "conv-1" {
		t.Errorf("metadata conversationId = %v, want conv-1", docs[0].Metadata["conversationId"])
	}
}

func TestHighlightIndex_UsersAreIsolated(t *testing.T) {
	idx := NewHighlightIndex(newTestDB(t))
	ctx := context.Background()

	addTestHighlight(t, idx, "h1", "user-1", "private note", []float32{1, 0, 0})

	docs, err := idx.Search(ctx, "user-2", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("user-2 saw %d of user-1's highlights", len(docs))
	}
}

func TestHighlightIndex_ZeroLimit(t *testing.T) {
	idx := NewHighlightIndex(newTestDB(t))

	docs, err := idx.Search(context.Background(), "user-1", []float32{1, 0, 0}, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if docs != nil {
		t.Errorf("zero limit returned %v, want nil", docs)
	}
}
