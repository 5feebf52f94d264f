package repository

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/httputil"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/observability"
)

// Hit is a file found in some repository.
type Hit struct {
	Repository Repository
	// Location is the file path or URL the data was read from.
	Location string
	Data     []byte
	// Path is where the data now lives on disk. For remote hits this is the
	// persisted copy under the cache root, or empty if none was written.
	Path string
}

// Config configures a [Searcher].
type Config struct {
	// CacheRoot holds one directory per repository. Each existing
	// subdirectory is searched as a Local, and remote hits are persisted
	// under the subdirectory named after the remote. Empty disables both.
	CacheRoot string

	// Locals are searched after the cache root's repositories.
	Locals []*Local

	// Remotes are queried concurrently on a local miss.
	Remotes []*Remote

	// Client performs remote requests. Nil uses a default client.
	Client *Client

	// FetchTimeout bounds each remote request. Zero uses [httputil.DefaultTimeout].
	FetchTimeout time.Duration

	// Concurrency bounds in-flight remote requests. Zero uses runtime.NumCPU().
	Concurrency int

	// Logger receives warnings about hits that could not be persisted.
	Logger func(msg string, args ...any)
}

// Searcher finds files across local and remote repositories.
// A Searcher is safe for concurrent use.
type Searcher struct {
	cacheRoot   string
	locals      []*Local
	remotes     []*Remote
	client      *Client
	timeout     time.Duration
	concurrency int
	logger      func(msg string, args ...any)
}

// NewSearcher builds a Searcher from cfg.
//
// The local search order is: every existing subdirectory of the cache root
// sorted by name, then one directory per remote not yet present (so that
// persisted hits are found on the next lookup), then cfg.Locals.
func NewSearcher(cfg Config) (*Searcher, error) {
	s := &Searcher{
		cacheRoot:   cfg.CacheRoot,
		remotes:     cfg.Remotes,
		client:      cfg.Client,
		timeout:     cfg.FetchTimeout,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = httputil.DefaultTimeout
	}
	if s.concurrency <= 0 {
		s.concurrency = runtime.NumCPU()
	}
	if s.client == nil {
		s.client = NewClient(s.timeout)
	}

	if cfg.CacheRoot != "" {
		discovered, err := Discover(cfg.CacheRoot)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(discovered))
		for _, l := range discovered {
			seen[l.Name()] = true
		}
		s.locals = append(s.locals, discovered...)
		for _, r := range cfg.Remotes {
			if !seen[r.Name()] {
				seen[r.Name()] = true
				s.locals = append(s.locals, NewLocal(r.Name(), filepath.Join(cfg.CacheRoot, r.Name())))
			}
		}
	}
	s.locals = append(s.locals, cfg.Locals...)
	return s, nil
}

// Locals returns the local repositories in search order.
func (s *Searcher) Locals() []*Local { return s.locals }

// Remotes returns the remote repositories in registration order.
func (s *Searcher) Remotes() []*Remote { return s.remotes }

// CacheRoot returns the directory remote hits are persisted under.
func (s *Searcher) CacheRoot() string { return s.cacheRoot }

// Client returns the HTTP client used for remote requests.
func (s *Searcher) Client() *Client { return s.client }

// Timeout returns the per-request deadline.
func (s *Searcher) Timeout() time.Duration { return s.timeout }

// Configured reports whether any repository is registered.
func (s *Searcher) Configured() bool {
	return len(s.locals) > 0 || len(s.remotes) > 0
}

// Find returns the contents of rel from the first repository holding it.
//
// Local repositories are checked first, in order; a local hit never causes
// a network request. Otherwise every remote is queried concurrently and the
// first remote in registration order that holds rel wins. The result is
// NOT_FOUND when no repository holds rel, and IO_FAILURE when at least one
// remote failed for another reason.
func (s *Searcher) Find(ctx context.Context, rel string) (Hit, error) {
	if err := errors.ValidatePath(rel); err != nil {
		return Hit{}, err
	}
	start := time.Now()

	for _, l := range s.locals {
		if !l.Has(rel) {
			continue
		}
		data, err := os.ReadFile(l.Location(rel))
		if err != nil {
			continue
		}
		observability.Repository().OnLookup(ctx, string(KindLocal), l.Name(), time.Since(start), nil)
		return Hit{Repository: l, Location: l.Location(rel), Path: l.Location(rel), Data: data}, nil
	}

	hit, err := s.findRemote(ctx, rel)
	name := ""
	if hit.Repository != nil {
		name = hit.Repository.Name()
	}
	observability.Repository().OnLookup(ctx, string(KindRemote), name, time.Since(start), err)
	if err != nil {
		return Hit{}, err
	}

	if s.cacheRoot != "" {
		path := filepath.Join(s.cacheRoot, hit.Repository.Name(), filepath.FromSlash(rel))
		if err := WriteFile(path, hit.Data); err != nil {
			s.warn("failed to persist descriptor", "path", path, "error", err)
		} else {
			hit.Path = path
			observability.Repository().OnDownload(ctx, hit.Repository.Name(), int64(len(hit.Data)))
		}
	}
	return hit, nil
}

// FetchDescriptor returns the POM bytes for c.
func (s *Searcher) FetchDescriptor(ctx context.Context, c maven.Coordinate) ([]byte, error) {
	hit, err := s.Find(ctx, maven.DescriptorPath(c))
	if err != nil {
		return nil, err
	}
	return hit.Data, nil
}

func (s *Searcher) findRemote(ctx context.Context, rel string) (Hit, error) {
	if len(s.remotes) == 0 {
		return Hit{}, errors.New(errors.ErrCodeNotFound, "%s not found in any repository", rel)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(s.remotes)
	var (
		g    errgroup.Group
		hits = make([]Hit, n)
		errs = make([]error, n)
		done = make([]chan struct{}, n)
	)
	for i := range done {
		done[i] = make(chan struct{})
	}
	g.SetLimit(s.concurrency)

	// Requests are started in registration order. done[i] closes once remote
	// i has answered.
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, r := range s.remotes {
			g.Go(func() error {
				defer close(done[i])
				if err := ctx.Err(); err != nil {
					errs[i] = err
					return nil
				}
				fctx, fcancel := context.WithTimeout(ctx, s.timeout)
				defer fcancel()

				url := r.Location(rel)
				data, err := s.client.Get(fctx, url)
				if err != nil {
					errs[i] = err
					return nil
				}
				hits[i] = Hit{Repository: r, Location: url, Data: data}
				return nil
			})
		}
		_ = g.Wait()
	}()

	// The earliest registered remote holding rel wins, even when a later
	// one answers first.
	winner := -1
	for i := range done {
		<-done[i]
		if errs[i] == nil {
			winner = i
			cancel()
			break
		}
	}
	<-finished

	if winner >= 0 {
		return hits[winner], nil
	}
	// Without a winner, only the caller can have cancelled ctx.
	if err := ctx.Err(); err != nil {
		return Hit{}, errors.Classify(errors.ErrCodeIO, err, "fetch %s", rel)
	}

	allNotFound := true
	for _, err := range errs {
		if !errors.Is(err, errors.ErrCodeNotFound) {
			allNotFound = false
			break
		}
	}
	if allNotFound {
		return Hit{}, errors.New(errors.ErrCodeNotFound, "%s not found in any repository", rel)
	}
	joined := stderrors.Join(errs...)
	if stderrors.Is(joined, context.DeadlineExceeded) {
		return Hit{}, errors.Wrap(errors.ErrCodeTimeout, joined, "fetch %s", rel)
	}
	return Hit{}, errors.Wrap(errors.ErrCodeIO, joined, "fetch %s", rel)
}

func (s *Searcher) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger(msg, args...)
	}
}
