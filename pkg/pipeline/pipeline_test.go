package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haven/pkg/cache"
	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/repository"
	"github.com/matzehuels/haven/pkg/resolver"
)

func pom(c maven.Coordinate, deps ...maven.Coordinate) string {
	s := fmt.Sprintf("<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version><dependencies>",
		c.GroupID, c.ArtifactID, c.RawVersion)
	for _, d := range deps {
		s += fmt.Sprintf("<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version></dependency>",
			d.GroupID, d.ArtifactID, d.RawVersion)
	}
	return s + "</dependencies></project>"
}

var (
	app  = maven.NewCoordinate("com.example", "app", "1.0")
	lib  = maven.NewCoordinate("com.example", "lib", "2.0")
	util = maven.NewCoordinate("com.example", "util", "3.0")
)

// newRepo serves descriptors for app -> lib -> util and jars for app and lib.
func newRepo(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/" + maven.DescriptorPath(app):                    pom(app, lib),
		"/" + maven.DescriptorPath(lib):                    pom(lib, util),
		"/" + maven.DescriptorPath(util):                   pom(util),
		"/" + maven.ArtifactPath(maven.NewDependency(app)): "app-jar",
		"/" + maven.ArtifactPath(maven.NewDependency(lib)): "jar",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRunner(t *testing.T, srv *httptest.Server, c cache.Cache) *Runner {
	t.Helper()
	s, err := repository.NewSearcher(repository.Config{
		CacheRoot: t.TempDir(),
		Remotes:   []*repository.Remote{repository.NewRemote("test", srv.URL)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(s, c, nil, log.New(io.Discard))
}

func fileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"JSON", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Declaration: `implementation("com.example:app:1.0")`}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if opts.Root() != app {
		t.Errorf("Root() = %v, want %v", opts.Root(), app)
	}

	if err := (&Options{}).Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty declaration: %v", err)
	}
	if err := (&Options{Declaration: "nonsense"}).Validate(); !errors.Is(err, errors.ErrCodeMalformedDeclaration) {
		t.Errorf("bad declaration: %v", err)
	}
}

func TestResolveCaches(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, newRepo(t), fileCache(t))

	events := 0
	opts := Options{Declaration: app.String(), Observer: func(resolver.Event) { events++ }}

	first, err := r.Resolve(ctx, opts)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if first.CacheHit {
		t.Error("first run reported a cache hit")
	}
	if got := len(first.Outcome.Resolved); got != 2 {
		t.Fatalf("resolved %d, want 2", got)
	}

	events = 0
	second, err := r.Resolve(ctx, opts)
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run missed the cache")
	}
	if events != 0 {
		t.Errorf("cache hit emitted %d events", events)
	}
	if second.Outcome.RunID != first.Outcome.RunID || len(second.Outcome.Resolved) != 2 {
		t.Errorf("cached outcome differs: %+v", second.Outcome)
	}

	refreshed, err := r.Resolve(ctx, Options{Declaration: app.String(), Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit || refreshed.Outcome.RunID == first.Outcome.RunID {
		t.Error("Refresh served the cached outcome")
	}

	inner, err := r.Resolve(ctx, Options{Declaration: app.String(), SkipInner: true})
	if err != nil {
		t.Fatal(err)
	}
	if inner.CacheHit || len(inner.Outcome.Resolved) != 1 {
		t.Errorf("SkipInner shared a cache entry: hit=%v resolved=%d", inner.CacheHit, len(inner.Outcome.Resolved))
	}
}

func TestResolveNoCache(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, newRepo(t), fileCache(t))

	for i := 0; i < 2; i++ {
		res, err := r.Resolve(ctx, Options{Declaration: app.String(), NoCache: true})
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheHit {
			t.Errorf("run %d hit the cache with NoCache", i)
		}
	}
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, newRepo(t), fileCache(t))

	// ghost has no descriptor, so its outcome carries a failure.
	decl := "com.example:ghost:1.0"
	for i := 0; i < 2; i++ {
		res, err := r.Resolve(ctx, Options{Declaration: decl})
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheHit {
			t.Errorf("run %d served a failed outcome from cache", i)
		}
		if len(res.Outcome.Failures) != 1 {
			t.Errorf("failures = %+v", res.Outcome.Failures)
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	r := newRunner(t, newRepo(t), nil)
	if _, err := r.Resolve(context.Background(), Options{Declaration: "g:a"}); !errors.Is(err, errors.ErrCodeMalformedDeclaration) {
		t.Errorf("error = %v, want MALFORMED_DECLARATION", err)
	}
}

func TestFetch(t *testing.T) {
	r := newRunner(t, newRepo(t), nil)

	res, err := r.Fetch(context.Background(), Options{Declaration: app.String()})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Libraries) != 2 || res.Libraries[0].Coordinate != app || res.Libraries[1].Coordinate != lib {
		t.Fatalf("libraries = %+v, want app then lib", res.Libraries)
	}
	if res.Libraries[0].Type != "jar" {
		t.Errorf("root type = %q, want jar", res.Libraries[0].Type)
	}
	for _, l := range res.Libraries {
		if _, err := os.Stat(l.Path); err != nil {
			t.Errorf("library not on disk: %v", err)
		}
	}
	if len(res.LibraryFailures) != 1 || res.LibraryFailures[0].Coordinate != util {
		t.Errorf("failures = %+v, want util", res.LibraryFailures)
	}
	if res.Outcome.Contains(app) {
		t.Error("root must not be listed as resolved")
	}
}

func TestMaterializeCachedOutcome(t *testing.T) {
	r := newRunner(t, newRepo(t), fileCache(t))
	opts := Options{Declaration: app.String()}
	if _, err := r.Resolve(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	res, err := r.Fetch(context.Background(), opts)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !res.CacheHit {
		t.Error("expected the outcome to come from cache")
	}
	if len(res.Libraries) != 2 || res.Libraries[0].Coordinate != app {
		t.Errorf("libraries = %+v, want root first", res.Libraries)
	}
	if res.Stats.FetchTime <= 0 {
		t.Error("FetchTime not recorded")
	}
}

func TestFetchCancelled(t *testing.T) {
	r := newRunner(t, newRepo(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Fetch(ctx, Options{Declaration: app.String()}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRunnerDefaults(t *testing.T) {
	s, err := repository.NewSearcher(repository.Config{})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(s, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil || r.TTL != cache.DefaultTTL {
		t.Errorf("defaults not applied: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
