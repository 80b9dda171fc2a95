package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/postcraft/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%v, %v, %v), want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || !bytes.Equal(data, []byte("value")) {
		t.Fatalf("Get = (%q, %v, %v), want hit", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("cache dir missing after Clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      Config
		wantType string
		wantErr  bool
	}{
		{"default none", Config{}, "*cache.NullCache", false},
		{"dir implies file", Config{Dir: t.TempDir()}, "*cache.FileCache", false},
		{"explicit none", Config{Backend: BackendNone, Dir: t.TempDir()}, "*cache.NullCache", false},
		{"file without dir", Config{Backend: BackendFile}, "", true},
		{"unknown", Config{Backend: "memcached"}, "", true},
		{"bad redis url", Config{Backend: BackendRedis, URL: "::"}, "", true},
		{"mongo without uri", Config{Backend: BackendMongo}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidConfig) {
					t.Errorf("Open() error = %v, want INVALID_CONFIG", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer c.Close()
			if got := typeName(c); got != tt.wantType {
				t.Errorf("Open() = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return "*cache.NullCache"
	case *FileCache:
		return "*cache.FileCache"
	}
	return "other"
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}

	a, _ := HashJSON(map[string]int{"a": 1, "b": 2})
	b, _ := HashJSON(map[string]int{"b": 2, "a": 1})
	if a != b {
		t.Error("HashJSON should not depend on map order")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.ResourceKey("https://a/x.png") == k.ResourceKey("https://a/y.png") {
		t.Error("different sources should produce different keys")
	}
	if !strings.HasPrefix(k.FontCSSKey("Inter"), "fontcss:") {
		t.Errorf("FontCSSKey = %s", k.FontCSSKey("Inter"))
	}
	a := k.ArtifactKey("fp", ArtifactKeyOpts{Format: "png"})
	b := k.ArtifactKey("fp", ArtifactKeyOpts{Format: "png", Debug: true})
	if a == b {
		t.Error("debug renders should not share keys with normal renders")
	}
	if a == k.ArtifactKey("fp", ArtifactKeyOpts{Format: "png", Layout: "l2"}) {
		t.Error("layout settings should be part of the key")
	}
	if a == k.ArtifactKey("fp", ArtifactKeyOpts{Format: "png", Template: "t2"}) {
		t.Error("template definitions should be part of the key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "biz:acme:")
	plain := NewDefaultKeyer()

	if got, want := scoped.ResourceKey("x"), "biz:acme:"+plain.ResourceKey("x"); got != want {
		t.Errorf("ResourceKey = %s, want %s", got, want)
	}
	opts := ArtifactKeyOpts{Format: "png"}
	if got, want := scoped.ArtifactKey("fp", opts), "biz:acme:"+plain.ArtifactKey("fp", opts); got != want {
		t.Errorf("ArtifactKey = %s, want %s", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	if got := scoped.FontCSSKey("Lora"); got != "p:"+NewDefaultKeyer().FontCSSKey("Lora") {
		t.Errorf("FontCSSKey with nil inner = %s", got)
	}
}

// TestRedisCache runs against a live server when POSTCRAFT_TEST_REDIS_URL
// is set.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("POSTCRAFT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("POSTCRAFT_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

// TestMongoCache runs against a live server when POSTCRAFT_TEST_MONGO_URI
// is set.
func TestMongoCache(t *testing.T) {
	uri := os.Getenv("POSTCRAFT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("POSTCRAFT_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, MongoConfig{URI: uri, Database: "postcraft_test"})
	if err != nil {
		t.Fatalf("NewMongoCache: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func exerciseBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := "test:" + Hash([]byte(t.Name()))

	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get = (%q, %v, %v)", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}
