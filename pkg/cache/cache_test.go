package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

// exercise runs the behavior every backend shares.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "a", []byte("alpha"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Fatalf("Get(a) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "a", []byte("again"), 0); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	if data, _, _ := c.Get(ctx, "a"); string(data) != "again" {
		t.Errorf("Get after overwrite = %q", data)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}

	for _, k := range []string{"x", "y", "z"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	for _, k := range []string{"x", "y", "z"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "outcomes"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	exercise(t, c)

	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the cache directory: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("expired entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("HAVEN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HAVEN_TEST_REDIS_URL not set")
	}
	c, err := NewRedisCache(context.Background(), url)
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	c.prefix = "haven-test:" + t.Name() + ":"
	exercise(t, c)
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://not-redis"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("Hash length = %d, want 64", n)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	repos := []string{"maven-central=https://repo1.maven.org/maven2"}

	base := k.OutcomeKey("g:a:1", OutcomeKeyOpts{Repositories: repos})
	if !strings.HasPrefix(base, KeyTypeOutcome+":") {
		t.Errorf("key %q lacks outcome prefix", base)
	}
	if base != k.OutcomeKey("g:a:1", OutcomeKeyOpts{Repositories: repos}) {
		t.Error("keys should be deterministic")
	}

	variants := map[string]string{
		"root":      k.OutcomeKey("g:a:2", OutcomeKeyOpts{Repositories: repos}),
		"skipInner": k.OutcomeKey("g:a:1", OutcomeKeyOpts{SkipInner: true, Repositories: repos}),
		"repos":     k.OutcomeKey("g:a:1", OutcomeKeyOpts{}),
	}
	for name, v := range variants {
		if v == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "team:a:")
	want := "team:a:" + inner.OutcomeKey("g:a:1", OutcomeKeyOpts{})
	if got := scoped.OutcomeKey("g:a:1", OutcomeKeyOpts{}); got != want {
		t.Errorf("OutcomeKey = %q, want %q", got, want)
	}

	if got := NewScopedKeyer(nil, "p:").OutcomeKey("g:a:1", OutcomeKeyOpts{}); got != "p:"+inner.OutcomeKey("g:a:1", OutcomeKeyOpts{}) {
		t.Errorf("nil inner: %q", got)
	}
}
