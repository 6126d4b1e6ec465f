package memory

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sandevgo/voxmem/internal/core"
)

func TestKV_SetGet(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	if err := kv.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := kv.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || string(got) != "v1" {
		t.Fatalf("Get = (%q, %v), want (v1, true)", got, ok)
	}

	if _, ok, _ := kv.Get(ctx, "missing"); ok {
		t.Error("Get reported a hit for a missing key")
	}
}

func TestKV_ValueIsolation(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	in := []byte("original")
	if err := kv.Set(ctx, "k1", in, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	in[0] = 'X'

	got, _, _ := kv.Get(ctx, "k1")
	if string(got) != "original" {
		t.Error("stored value aliases the caller's slice")
	}

	got[0] = 'Y'
	again, _, _ := kv.Get(ctx, "k1")
	if string(again) != "original" {
		t.Error("returned value aliases the stored slice")
	}
}

func TestKV_TTLExpiry(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	now := time.Now()
	kv.SetClock(func() time.Time { return now })

	if err := kv.Set(ctx, "session", []byte("state"), 30*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, "forever", []byte("state"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "session"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	now = now.Add(31 * time.Minute)

	if _, ok, _ := kv.Get(ctx, "session"); ok {
		t.Error("entry survived past its TTL")
	}
	if _, ok, _ := kv.Get(ctx, "forever"); !ok {
		t.Error("zero-TTL entry must never expire")
	}
}

func TestKV_KeysPrefix(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	now := time.Now()
	kv.SetClock(func() time.Time { return now })

	for _, k := range []string{"topic:a", "topic:b", "embed:x"} {
		if err := kv.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := kv.Set(ctx, "topic:expired", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	now = now.Add(2 * time.Minute)

	keys, err := kv.Keys(ctx, "topic:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if want := []string{"topic:a", "topic:b"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}
}

func TestKV_Delete(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	if err := kv.Set(ctx, "k1", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k1"); ok {
		t.Error("entry survived Delete")
	}
	// Deleting a missing key is not an error.
	if err := kv.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete of missing key returned %v", err)
	}
}

func TestTopicStore_TTL(t *testing.T) {
	store := NewTopicStore(30 * time.Minute)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	if err := store.Put(ctx, "conv-1", topicStateWithCount(3)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now = now.Add(20 * time.Minute)
	st, err := store.Get(ctx, "conv-1")
	if err != nil || st == nil {
		t.Fatalf("Get = (%v, %v), want live state", st, err)
	}

	// A write renews the session window.
	if err := store.Put(ctx, "conv-1", topicStateWithCount(4)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	now = now.Add(20 * time.Minute)
	if st, _ := store.Get(ctx, "conv-1"); st == nil || st.MessageCount != 4 {
		t.Fatalf("state expired despite renewal: %+v", st)
	}

	now = now.Add(31 * time.Minute)
	if st, _ := store.Get(ctx, "conv-1"); st != nil {
		t.Error("state survived past the session TTL")
	}
}

func topicStateWithCount(n int) *core.TopicState {
	return &core.TopicState{
		TopicVector:  []float32{1, 0},
		MessageCount: n,
	}
}
