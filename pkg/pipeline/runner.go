package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haven/pkg/cache"
	"github.com/matzehuels/haven/pkg/observability"
	"github.com/matzehuels/haven/pkg/repository"
	"github.com/matzehuels/haven/pkg/resolver"
	"github.com/matzehuels/haven/pkg/storage"
)

// Runner executes pipeline requests against one repository configuration.
//
// The Runner keeps no per-request state; one instance may serve many
// goroutines.
type Runner struct {
	Searcher *repository.Searcher
	Resolver *resolver.Resolver
	Store    *storage.Store
	Cache    cache.Cache
	Keyer    cache.Keyer
	TTL      time.Duration
	Logger   *log.Logger
}

// NewRunner wires a Runner around searcher. A nil cache disables caching,
// a nil keyer selects the default key scheme and a nil logger selects
// log.Default().
func NewRunner(searcher *repository.Searcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Searcher: searcher,
		Resolver: resolver.New(searcher),
		Store:    storage.New(searcher, 0),
		Cache:    c,
		Keyer:    keyer,
		TTL:      cache.DefaultTTL,
		Logger:   logger,
	}
}

// Resolve resolves opts.Declaration, serving and storing the outcome
// through the cache.
//
// On cancellation the partial outcome is returned together with the error.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if !opts.NoCache && !opts.Refresh {
		if res, ok := r.Lookup(ctx, opts); ok {
			return res, nil
		}
	}

	start := time.Now()

	out, err := r.Resolver.Resolve(ctx, opts.root, resolver.Options{
		SkipInnerDependencies: opts.SkipInner,
		Observer:              opts.Observer,
	})
	if out == nil {
		return nil, err
	}
	res := &Result{Outcome: out, Stats: Stats{ResolveTime: time.Since(start)}}
	if err != nil {
		return res, err
	}

	r.Logger.Info("resolved dependencies",
		"root", opts.root,
		"resolved", len(out.Resolved),
		"unresolved", len(out.Unresolved),
		"conflicts", len(out.Conflicts),
		"duration", out.Elapsed)

	if !opts.NoCache {
		r.Remember(ctx, opts, out)
	}
	return res, nil
}

// Fetch resolves opts.Declaration and materializes the root artifact and
// every resolved dependency. Per-artifact failures are reported in the
// result, not as an error.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*Result, error) {
	res, err := r.Resolve(ctx, opts)
	if err != nil {
		return res, err
	}
	return res, r.Materialize(ctx, res)
}

// Materialize downloads the artifacts of an already resolved res and
// records the libraries, failures and fetch time on it. The returned error
// is non-nil only when ctx ended.
func (r *Runner) Materialize(ctx context.Context, res *Result) error {
	start := time.Now()
	res.Libraries, res.LibraryFailures = r.Store.Materialize(ctx, res.Outcome.Artifacts())
	res.Stats.FetchTime = time.Since(start)

	r.Logger.Info("materialized artifacts",
		"libraries", len(res.Libraries),
		"failed", len(res.LibraryFailures),
		"duration", res.Stats.FetchTime)
	return ctx.Err()
}

// Remember stores out under the key for opts. Outcomes with per-entry
// failures are not stored, since those are usually transient. Cache errors
// are logged and otherwise ignored.
func (r *Runner) Remember(ctx context.Context, opts Options, out *resolver.Outcome) {
	if out == nil || len(out.Failures) > 0 {
		return
	}
	if opts.root.IsZero() {
		if err := opts.Validate(); err != nil {
			return
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		r.Logger.Warn("encode outcome for cache", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, r.key(opts), data, r.TTL); err != nil {
		r.Logger.Warn("write outcome cache", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeOutcome, len(data))
}

// Lookup returns the cached outcome for opts, if any. opts must be valid.
func (r *Runner) Lookup(ctx context.Context, opts Options) (*Result, bool) {
	start := time.Now()
	out, ok := r.cached(ctx, r.key(opts))
	if !ok {
		return nil, false
	}
	r.Logger.Info("resolved from cache", "root", opts.root, "artifacts", len(out.Resolved))
	return &Result{Outcome: out, CacheHit: true, Stats: Stats{ResolveTime: time.Since(start)}}, true
}

func (r *Runner) cached(ctx context.Context, key string) (*resolver.Outcome, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("read outcome cache", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeOutcome)
		return nil, false
	}
	var out resolver.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		_ = r.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeOutcome)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cache.KeyTypeOutcome)
	return &out, true
}

func (r *Runner) key(opts Options) string {
	var repos []string
	for _, l := range r.Searcher.Locals() {
		repos = append(repos, l.Name()+"="+l.Dir())
	}
	for _, rem := range r.Searcher.Remotes() {
		repos = append(repos, rem.Name()+"="+rem.BaseURL())
	}
	return r.Keyer.OutcomeKey(opts.root.String(), cache.OutcomeKeyOpts{
		SkipInner:    opts.SkipInner,
		Repositories: repos,
	})
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
