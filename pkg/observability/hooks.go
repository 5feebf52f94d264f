// Package observability lets the binary attach instrumentation to resolution
// runs, repository lookups, cache operations and HTTP calls without the
// library packages depending on a metrics backend.
//
// Each event category has a hook interface with a no-op default. Libraries
// call the registered hooks; main decides what backs them. [Metrics] is a
// ready-made Prometheus implementation of all four interfaces.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewMetrics(prometheus.DefaultRegisterer)
//	    observability.SetAll(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolver().OnResolveStart(ctx, root)
//	// ... traverse ...
//	observability.Resolver().OnResolveComplete(ctx, root, resolved, unresolved, duration, err)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from resolution runs.
type ResolverHooks interface {
	OnResolveStart(ctx context.Context, root string)
	OnResolveComplete(ctx context.Context, root string, resolved, unresolved int, duration time.Duration, err error)

	// OnDescriptorParsed records the time spent decoding one descriptor.
	OnDescriptorParsed(ctx context.Context, coordinate string, duration time.Duration)
}

// =============================================================================
// Repository Hooks
// =============================================================================

// RepositoryHooks receives events from repository lookups.
type RepositoryHooks interface {
	// OnLookup records where a relative path was found. repo is empty on a miss.
	OnLookup(ctx context.Context, kind, repo string, duration time.Duration, err error)

	// OnDownload records an artifact written to the local cache.
	OnDownload(ctx context.Context, repo string, size int64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolveStart(context.Context, string) {}
func (NoopResolverHooks) OnResolveComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopResolverHooks) OnDescriptorParsed(context.Context, string, time.Duration) {}

// NoopRepositoryHooks is a no-op implementation of RepositoryHooks.
type NoopRepositoryHooks struct{}

func (NoopRepositoryHooks) OnLookup(context.Context, string, string, time.Duration, error) {}
func (NoopRepositoryHooks) OnDownload(context.Context, string, int64)                      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// hookSet is one immutable generation of registered hooks. Readers load the
// current generation without locking; writers copy it under setMu.
type hookSet struct {
	resolver   ResolverHooks
	repository RepositoryHooks
	cache      CacheHooks
	http       HTTPHooks
}

var (
	current atomic.Pointer[hookSet]
	setMu   sync.Mutex
)

func init() { Reset() }

func noopSet() *hookSet {
	return &hookSet{NoopResolverHooks{}, NoopRepositoryHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

func update(fn func(*hookSet)) {
	setMu.Lock()
	defer setMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetResolverHooks registers resolver hooks. A nil h is ignored.
func SetResolverHooks(h ResolverHooks) {
	if h != nil {
		update(func(s *hookSet) { s.resolver = h })
	}
}

// SetRepositoryHooks registers repository hooks. A nil h is ignored.
func SetRepositoryHooks(h RepositoryHooks) {
	if h != nil {
		update(func(s *hookSet) { s.repository = h })
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// AllHooks is implemented by backends that cover every event category.
type AllHooks interface {
	ResolverHooks
	RepositoryHooks
	CacheHooks
	HTTPHooks
}

// SetAll registers h for every event category at once.
func SetAll(h AllHooks) {
	if h != nil {
		update(func(s *hookSet) { *s = hookSet{h, h, h, h} })
	}
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks { return current.Load().resolver }

// Repository returns the registered repository hooks.
func Repository() RepositoryHooks { return current.Load().repository }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks. Tests and `haven serve` call it on exit.
func Reset() {
	setMu.Lock()
	defer setMu.Unlock()
	current.Store(noopSet())
}
