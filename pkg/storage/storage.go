// Package storage materializes resolved dependencies as files on disk.
//
// Artifacts already present in a local repository are used in place. Missing
// ones are downloaded from the first remote that serves them and written to
// the cache root under the remote's name, using the same relative layout as
// the repository itself.
package storage

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/observability"
	"github.com/matzehuels/haven/pkg/repository"
)

// Library is a materialized artifact.
type Library struct {
	Coordinate maven.Coordinate `json:"coordinate"`
	Type       string           `json:"type"`
	Path       string           `json:"path"`
	Repository string           `json:"repository"`
	// Cached is set when the file was already present locally.
	Cached bool `json:"cached"`
}

// Failure is an artifact that could not be materialized.
type Failure struct {
	Coordinate maven.Coordinate `json:"coordinate"`
	Code       errors.Code      `json:"code"`
	Message    string           `json:"message"`
}

// Store downloads artifacts through a Searcher's repositories.
type Store struct {
	searcher    *repository.Searcher
	concurrency int
}

// New creates a Store. A non-positive concurrency selects runtime.NumCPU().
func New(searcher *repository.Searcher, concurrency int) *Store {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Store{searcher: searcher, concurrency: concurrency}
}

// Materialize makes every dependency available on disk.
//
// Libraries are returned in input order. Entries that fail are reported in
// the failure list and do not abort the others. Dependencies of type "pom"
// carry no binary and are skipped.
func (s *Store) Materialize(ctx context.Context, deps []maven.Dependency) ([]Library, []Failure) {
	libs := make([]Library, len(deps))
	errs := make([]error, len(deps))
	skipped := make([]bool, len(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range deps {
		if strings.EqualFold(d.Type, "pom") {
			skipped[i] = true
			continue
		}
		g.Go(func() error {
			libs[i], errs[i] = s.materialize(gctx, d)
			return nil
		})
	}
	_ = g.Wait()

	var (
		out      []Library
		failures []Failure
	)
	for i, d := range deps {
		switch {
		case skipped[i]:
		case errs[i] != nil:
			code := errors.GetCode(errs[i])
			if code == "" {
				code = errors.ErrCodeIO
			}
			failures = append(failures, Failure{
				Coordinate: d.Coordinate,
				Code:       code,
				Message:    errors.UserMessage(errs[i]),
			})
		default:
			out = append(out, libs[i])
		}
	}
	return out, failures
}

func (s *Store) materialize(ctx context.Context, d maven.Dependency) (Library, error) {
	rel := maven.ArtifactPath(d)
	lib := Library{Coordinate: d.Coordinate, Type: d.Type}
	if lib.Type == "" {
		lib.Type = d.Coordinate.Packaging()
	}
	if err := errors.ValidatePath(rel); err != nil {
		return lib, err
	}

	for _, l := range s.searcher.Locals() {
		if l.Has(rel) {
			lib.Path = l.Location(rel)
			lib.Repository = l.Name()
			lib.Cached = true
			return lib, nil
		}
	}

	root := s.searcher.CacheRoot()
	if root == "" {
		return lib, errors.New(errors.ErrCodeInvalidInput, "no cache directory configured for downloads")
	}

	var lastErr error
	for _, r := range s.searcher.Remotes() {
		if err := ctx.Err(); err != nil {
			return lib, errors.Classify(errors.ErrCodeIO, err, "download %s", d.Coordinate)
		}
		data, err := s.get(ctx, r.Location(rel))
		if err != nil {
			if !errors.Is(err, errors.ErrCodeNotFound) {
				lastErr = err
			}
			continue
		}

		path := filepath.Join(root, r.Name(), filepath.FromSlash(rel))
		if err := repository.WriteFile(path, data); err != nil {
			return lib, errors.Wrap(errors.ErrCodeIO, err, "save %s", path)
		}
		observability.Repository().OnDownload(ctx, r.Name(), int64(len(data)))
		lib.Path = path
		lib.Repository = r.Name()
		return lib, nil
	}

	if lastErr != nil {
		return lib, lastErr
	}
	return lib, errors.New(errors.ErrCodeNotFound, "%s not found in any repository", rel)
}

func (s *Store) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searcher.Timeout())
	defer cancel()
	return s.searcher.Client().Get(ctx, url)
}
