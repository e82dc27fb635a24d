package cache

import (
	"context"
	"testing"
	"time"
)

func testBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	// miss
	_, ok, err := c.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want miss", ok, err)
	}

	// set/get
	if err := c.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok || string(val) != "v1" {
		t.Fatalf("Get(k1) = %q ok=%v err=%v", val, ok, err)
	}

	// overwrite
	if err := c.Set(ctx, "k1", []byte("v2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, _, _ = c.Get(ctx, "k1")
	if string(val) != "v2" {
		t.Fatalf("Get after overwrite = %q, want v2", val)
	}

	// delete, including double delete
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete(missing): %v", err)
	}
	_, ok, _ = c.Get(ctx, "k1")
	if ok {
		t.Fatal("Get after delete should miss")
	}

	// expiry
	if err := c.Set(ctx, "ttl", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set ttl: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	_, ok, _ = c.Get(ctx, "ttl")
	if ok {
		t.Fatal("expired entry should miss")
	}
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, NewMemory())
}

func TestFileBackend(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testBackend(t, f)
}

func TestFileBackendWeirdKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key := "user:T1:+1555/../../etc:state"
	if err := f.Set(ctx, key, []byte("safe"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := f.Get(ctx, key)
	if err != nil || !ok || string(val) != "safe" {
		t.Fatalf("Get = %q ok=%v err=%v", val, ok, err)
	}
}

func TestFactoryNamespacing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()
	factory := NewFactory(backend)

	users := factory.UserCache("T1", "u1")
	otherUser := factory.UserCache("T1", "u2")
	state := factory.StateCache("T1")
	table := factory.TableCache("products")

	if err := users.Set(ctx, "step", []byte("menu"), 0); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := otherUser.Get(ctx, "step"); ok {
		t.Error("user caches must not share keys across users")
	}
	if _, ok, _ := state.Get(ctx, "step"); ok {
		t.Error("state cache must not see user cache keys")
	}
	if _, ok, _ := table.Get(ctx, "step"); ok {
		t.Error("table cache must not see user cache keys")
	}

	val, ok, err := users.Get(ctx, "step")
	if err != nil || !ok || string(val) != "menu" {
		t.Fatalf("users.Get = %q ok=%v err=%v", val, ok, err)
	}
}
