package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/repository"
)

func jarServer(t *testing.T, files map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newStore(t *testing.T, root string, remotes ...*repository.Remote) *Store {
	t.Helper()
	s, err := repository.NewSearcher(repository.Config{CacheRoot: root, Remotes: remotes})
	if err != nil {
		t.Fatalf("NewSearcher() error: %v", err)
	}
	return New(s, 2)
}

func dependency(g, a, v, typ string) maven.Dependency {
	d := maven.NewDependency(maven.NewCoordinate(g, a, v))
	d.Type = typ
	return d
}

func TestMaterialize(t *testing.T) {
	okio := dependency("com.squareup.okio", "okio", "3.6.0", "jar")
	core := dependency("androidx.core", "core", "1.12.0", "aar")

	first, _ := jarServer(t, map[string]string{"/" + maven.ArtifactPath(core): "aar-bytes"})
	second, _ := jarServer(t, map[string]string{
		"/" + maven.ArtifactPath(okio): "jar-bytes",
		"/" + maven.ArtifactPath(core): "other",
	})

	root := t.TempDir()
	store := newStore(t, root, repository.NewRemote("first", first.URL), repository.NewRemote("second", second.URL))

	libs, failures := store.Materialize(context.Background(), []maven.Dependency{okio, core})
	if len(failures) != 0 {
		t.Fatalf("failures = %+v", failures)
	}
	if len(libs) != 2 {
		t.Fatalf("libs = %+v", libs)
	}

	if libs[0].Coordinate != okio.Coordinate || libs[0].Repository != "second" {
		t.Errorf("libs[0] = %+v, want okio from second", libs[0])
	}
	if libs[1].Repository != "first" || filepath.Ext(libs[1].Path) != ".aar" {
		t.Errorf("libs[1] = %+v, want aar from first", libs[1])
	}
	for _, l := range libs {
		if l.Cached {
			t.Errorf("%s should be a fresh download", l.Coordinate)
		}
		if _, err := os.Stat(l.Path); err != nil {
			t.Errorf("%s not written: %v", l.Path, err)
		}
	}
	want := filepath.Join(root, "second", filepath.FromSlash(maven.ArtifactPath(okio)))
	if libs[0].Path != want {
		t.Errorf("path = %q, want %q", libs[0].Path, want)
	}
}

func TestMaterializeUsesLocalCopy(t *testing.T) {
	d := dependency("g", "a", "1", "")
	srv, calls := jarServer(t, nil)

	root := t.TempDir()
	local := filepath.Join(root, "maven-central", filepath.FromSlash(maven.ArtifactPath(d)))
	if err := repository.WriteFile(local, []byte("cached")); err != nil {
		t.Fatal(err)
	}

	store := newStore(t, root, repository.NewRemote("remote", srv.URL))
	libs, failures := store.Materialize(context.Background(), []maven.Dependency{d})

	if len(failures) != 0 || len(libs) != 1 {
		t.Fatalf("libs = %+v, failures = %+v", libs, failures)
	}
	if !libs[0].Cached || libs[0].Path != local {
		t.Errorf("lib = %+v, want cached local copy", libs[0])
	}
	if libs[0].Type != "jar" {
		t.Errorf("Type = %q, want jar default", libs[0].Type)
	}
	if calls.Load() != 0 {
		t.Errorf("remote called %d times, want 0", calls.Load())
	}
}

func TestMaterializePartialFailure(t *testing.T) {
	present := dependency("g", "present", "1", "jar")
	missing := dependency("g", "missing", "1", "jar")
	bom := dependency("g", "bom", "1", "pom")

	srv, _ := jarServer(t, map[string]string{"/" + maven.ArtifactPath(present): "x"})
	store := newStore(t, t.TempDir(), repository.NewRemote("remote", srv.URL))

	libs, failures := store.Materialize(context.Background(), []maven.Dependency{missing, bom, present})
	if len(libs) != 1 || libs[0].Coordinate != present.Coordinate {
		t.Errorf("libs = %+v, want only present", libs)
	}
	if len(failures) != 1 || failures[0].Coordinate != missing.Coordinate || failures[0].Code != errors.ErrCodeNotFound {
		t.Errorf("failures = %+v", failures)
	}
}

func TestMaterializeRejectsPathTraversal(t *testing.T) {
	escaped := dependency("g", "a", "../../../../escaped", "jar")
	srv, calls := jarServer(t, map[string]string{"/escaped.jar": "payload"})

	base := t.TempDir()
	root := filepath.Join(base, "cache")
	store := newStore(t, root, repository.NewRemote("remote", srv.URL))

	libs, failures := store.Materialize(context.Background(), []maven.Dependency{escaped})
	if len(libs) != 0 {
		t.Errorf("libs = %+v, want none", libs)
	}
	if len(failures) != 1 || failures[0].Code != errors.ErrCodeInvalidPath {
		t.Errorf("failures = %+v, want INVALID_PATH", failures)
	}
	if calls.Load() != 0 {
		t.Errorf("remote called %d times, want 0", calls.Load())
	}
	matches, _ := filepath.Glob(filepath.Join(base, "*.jar"))
	if len(matches) != 0 {
		t.Errorf("files written outside the cache root: %v", matches)
	}
}

func TestMaterializeWithoutCacheRoot(t *testing.T) {
	srv, _ := jarServer(t, nil)
	store := newStore(t, "", repository.NewRemote("remote", srv.URL))

	_, failures := store.Materialize(context.Background(), []maven.Dependency{dependency("g", "a", "1", "jar")})
	if len(failures) != 1 || failures[0].Code != errors.ErrCodeInvalidInput {
		t.Errorf("failures = %+v, want INVALID_INPUT", failures)
	}
}
