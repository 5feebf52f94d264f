// Package repository locates descriptors and artifacts in Maven repositories.
//
// A [Repository] is either a [Local] directory or a [Remote] base URL. Both
// expose the same relative layout (see [maven.DescriptorPath]); locals are
// consulted first and remotes are only touched on a local miss. A [Searcher]
// combines both kinds and persists remote hits into the cache root so that
// subsequent lookups are served from disk.
package repository

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/haven/pkg/errors"
)

// Kind distinguishes repository variants.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Repository is a named location serving the canonical Maven layout.
type Repository interface {
	Name() string
	Kind() Kind
	// Location returns the absolute path or URL of rel in this repository.
	Location(rel string) string
}

// Local is a repository rooted at a filesystem directory.
type Local struct {
	name string
	dir  string
}

// NewLocal creates a local repository rooted at dir.
func NewLocal(name, dir string) *Local {
	return &Local{name: name, dir: dir}
}

func (l *Local) Name() string { return l.name }
func (l *Local) Kind() Kind   { return KindLocal }
func (l *Local) Dir() string  { return l.dir }

func (l *Local) Location(rel string) string {
	return filepath.Join(l.dir, filepath.FromSlash(rel))
}

// Has reports whether rel exists as a regular file.
func (l *Local) Has(rel string) bool {
	info, err := os.Stat(l.Location(rel))
	return err == nil && info.Mode().IsRegular()
}

// Remote is a repository served over HTTP.
type Remote struct {
	name    string
	baseURL string
}

// NewRemote creates a remote repository. Trailing slashes are dropped from baseURL.
func NewRemote(name, baseURL string) *Remote {
	return &Remote{name: name, baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *Remote) Name() string    { return r.name }
func (r *Remote) Kind() Kind      { return KindRemote }
func (r *Remote) BaseURL() string { return r.baseURL }

func (r *Remote) Location(rel string) string {
	return r.baseURL + "/" + strings.TrimLeft(rel, "/")
}

// Discover returns one Local per subdirectory of cacheRoot, sorted by name.
// A missing cacheRoot yields no repositories.
func Discover(cacheRoot string) ([]*Local, error) {
	entries, err := os.ReadDir(cacheRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read cache root %s", cacheRoot)
	}

	var locals []*Local
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		locals = append(locals, NewLocal(e.Name(), filepath.Join(cacheRoot, e.Name())))
	}
	sort.Slice(locals, func(i, j int) bool { return locals[i].name < locals[j].name })
	return locals, nil
}
