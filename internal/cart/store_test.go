package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	redisclient "github.com/angelmondragon/sweetshop-backend/pkg/redis"
	"github.com/google/uuid"
)

func TestStoreRoundTripAndEmptyDeletes(t *testing.T) {
	kv := redisclient.NewMemory()
	store, err := NewStore(kv, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	empty, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load missing cart: %v", err)
	}
	if !empty.IsEmpty() {
		t.Fatal("expected missing cart to load empty")
	}

	c := New()
	a := uuid.New()
	c.AddItem(a)
	c.AddItem(a)
	if err := store.Save(ctx, "sess-1", c); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := kv.Get(ctx, kv.CartKey("sess-1"))
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	want := `{"lines":[{"itemId":"` + a.String() + `","quantity":2}]}`
	if raw != want {
		t.Fatalf("unexpected stored payload %s", raw)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Quantity(a) != 2 {
		t.Fatalf("expected quantity 2, got %d", loaded.Quantity(a))
	}

	other, err := store.Load(ctx, "sess-2")
	if err != nil || !other.IsEmpty() {
		t.Fatalf("sessions must not share carts, got %+v err=%v", other, err)
	}

	if err := store.Save(ctx, "sess-1", New()); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, err := kv.Get(ctx, kv.CartKey("sess-1")); !redisclient.IsMissing(err) {
		t.Fatalf("expected empty cart to delete the key, got %v", err)
	}
}

func TestStoreLoadDropsInvalidLines(t *testing.T) {
	kv := redisclient.NewMemory()
	store, err := NewStore(kv, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	payload := `{"lines":[{"itemId":"` + a.String() + `","quantity":0},{"itemId":"` + b.String() + `","quantity":3},{"itemId":"` + b.String() + `","quantity":1}]}`
	if err := kv.Set(ctx, kv.CartKey("s"), payload, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].ItemID != b || c.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines %+v", c.Lines)
	}

	if err := kv.Set(ctx, kv.CartKey("bad"), "not-json", time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Load(ctx, "bad"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := store.Load(ctx, ""); err == nil {
		t.Fatal("expected error for blank session")
	}
}

func TestNewStoreValidates(t *testing.T) {
	if _, err := NewStore(nil, time.Hour); err == nil {
		t.Fatal("expected error without kv")
	}
	if _, err := NewStore(redisclient.NewMemory(), 0); err == nil {
		t.Fatal("expected error without ttl")
	}
}

func TestStoreLockSerialisesSession(t *testing.T) {
	store, err := NewStore(redisclient.NewMemory(), time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	item := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock("sess")
			defer unlock()
			c, err := store.Load(ctx, "sess")
			if err != nil {
				t.Errorf("load: %v", err)
				return
			}
			c.AddItem(item)
			if err := store.Save(ctx, "sess", c); err != nil {
				t.Errorf("save: %v", err)
			}
		}()
	}
	wg.Wait()

	c, err := store.Load(ctx, "sess")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Quantity(item) != 20 {
		t.Fatalf("expected 20 accumulated adds, got %d", c.Quantity(item))
	}
}

func TestStoreEndRetiresSessionLock(t *testing.T) {
	store, err := NewStore(redisclient.NewMemory(), time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	old := store.acquire("sess")
	store.end("sess", old)
	old.mu.Unlock()
	if !old.ended {
		t.Fatal("expected retired lock to be marked ended")
	}

	fresh := store.acquire("sess")
	defer fresh.mu.Unlock()
	if fresh == old || fresh.ended {
		t.Fatal("expected a fresh lock after the session ended")
	}
}
