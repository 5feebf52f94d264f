// Package resolver computes the transitive runtime dependency set of a Maven
// artifact.
//
// Resolution starts from the root's direct dependencies, processed in
// declaration order. Each accepted dependency has its own subtree expanded
// depth-first before the next direct dependency is taken, so the first
// version of an artifact encountered in that order is the one kept; later
// versions are skipped and reported as conflicts.
//
// # Usage
//
//	r := resolver.New(searcher)
//	out, err := r.Resolve(ctx, root, resolver.Options{
//	    Observer: func(e resolver.Event) { log.Print(e.Message) },
//	})
//
// Or asynchronously:
//
//	run := r.Go(ctx, root, resolver.Options{})
//	for e := range run.Events() {
//	    ...
//	}
//	out, err := run.Wait()
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/maven/pom"
	"github.com/matzehuels/haven/pkg/observability"
)

// Options configures a resolution run.
type Options struct {
	// SkipInnerDependencies limits the result to the root's direct
	// dependencies that pass the skip rules. No further descriptors are
	// fetched.
	SkipInnerDependencies bool

	// Observer receives every event of the run, synchronously. May be nil.
	Observer func(Event)
}

// Resolver resolves coordinates against a descriptor source.
// A Resolver holds no per-run state and may run several roots concurrently.
type Resolver struct {
	source pom.Fetcher
}

// New creates a Resolver reading descriptors from source.
func New(source pom.Fetcher) *Resolver {
	return &Resolver{source: source}
}

// Resolve computes the runtime dependency set of root.
//
// Per-entry problems (missing or malformed descriptors) are reported as
// events and in [Outcome.Failures]; they do not fail the run. A root that
// cannot be fetched or declares no dependencies yields an empty outcome and
// a warning. The returned error is non-nil only for invalid input or when
// ctx ends, in which case the partial outcome is returned alongside it.
func (r *Resolver) Resolve(ctx context.Context, root maven.Coordinate, opts Options) (*Outcome, error) {
	if r.source == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no descriptor source configured")
	}
	if c, ok := r.source.(interface{ Configured() bool }); ok && !c.Configured() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no repositories configured")
	}
	if !root.Complete() {
		return nil, errors.New(errors.ErrCodeMalformedDeclaration,
			"root %q needs group, artifact and version", root.String())
	}
	if !root.PathSafe() {
		return nil, errors.New(errors.ErrCodeMalformedDeclaration,
			"root %q contains path separators or \"..\"", root.String())
	}

	s := newState(r.source, root, opts)
	observability.Resolver().OnResolveStart(ctx, root.String())
	out, err := s.run(ctx)
	observability.Resolver().OnResolveComplete(ctx, root.String(), len(out.Resolved), len(out.Unresolved), out.Elapsed, err)
	return out, err
}

// state is everything one run owns.
type state struct {
	id      string
	root    maven.Coordinate
	opts    Options
	loader  *pom.Loader
	visited *Visited
	failed  map[maven.Coordinate]error
	outcome *Outcome
	start   time.Time
}

func newState(source pom.Fetcher, root maven.Coordinate, opts Options) *state {
	s := &state{
		id:      uuid.NewString(),
		root:    root,
		opts:    opts,
		visited: NewVisited(),
		failed:  make(map[maven.Coordinate]error),
	}
	s.outcome = newOutcome(s.id, root)
	s.loader = pom.NewLoader(source, pom.NewIndex())
	s.loader.Logger = func(msg string, args ...any) {
		s.emit(LevelWarning, "", "%s", formatKV(msg, args))
	}
	return s
}

// frame is one pending node of the depth-first expansion.
type frame struct {
	dep        maven.Dependency
	parent     maven.Coordinate
	exclusions []maven.Exclusion
}

func (s *state) run(ctx context.Context) (*Outcome, error) {
	s.start = time.Now()

	rootDesc, err := s.descriptor(ctx, s.root)
	if err != nil {
		if ctx.Err() != nil {
			return s.finish(ctx.Err())
		}
		s.emit(LevelError, s.root.String(), "failed to load root descriptor: %s", errors.UserMessage(err))
		s.outcome.Failures = append(s.outcome.Failures, newFailure(s.root, err))
		return s.empty()
	}
	rootDesc.UserDefined = true
	artifact := maven.NewDependency(s.root)
	artifact.Type = s.root.RawPackaging
	if artifact.Type == "" {
		artifact.Type = rootDesc.Packaging()
	}
	s.outcome.Artifact = artifact

	direct := rootDesc.Direct()
	if len(direct) == 0 {
		return s.empty()
	}
	s.emit(LevelInfo, s.root.String(), "resolving %d direct dependencies of %s", len(direct), s.root)

	frontier := make([]maven.Dependency, 0, len(direct))
	for _, d := range direct {
		if d.Type == "" && d.Coordinate.Complete() && d.Coordinate.PathSafe() {
			d.Type = s.directType(ctx, d)
		}
		frontier = append(frontier, d)
	}

	exclusions := rootDesc.Exclusions
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return s.finish(err)
		}
		d := frontier[0]
		frontier = frontier[1:]

		desc, accepted := s.process(ctx, frame{dep: d, parent: s.root, exclusions: exclusions})
		if !accepted || desc == nil || s.opts.SkipInnerDependencies {
			continue
		}
		if err := s.expand(ctx, d, desc, exclusions); err != nil {
			return s.finish(err)
		}
	}

	s.outcome.Message = "successfully resolved " + s.root.String()
	s.emit(LevelInfo, s.root.String(), "%s: %d resolved, %d unresolved",
		s.outcome.Message, len(s.outcome.Resolved), len(s.outcome.Unresolved))
	return s.finish(nil)
}

// expand walks the subtree below d depth-first on an explicit stack.
// Children are pushed in reverse so they are processed in declaration order.
func (s *state) expand(ctx context.Context, d maven.Dependency, desc *pom.Descriptor, inherited []maven.Exclusion) error {
	var stack []frame
	push := func(parent maven.Dependency, desc *pom.Descriptor, inherited []maven.Exclusion) {
		excl := mergeExclusions(inherited, desc.Exclusions)
		children := desc.Direct()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{dep: children[i], parent: parent.Coordinate, exclusions: excl})
		}
	}
	push(d, desc, inherited)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		child, accepted := s.process(ctx, f)
		if accepted && child != nil {
			push(f.dep, child, f.exclusions)
		}
	}
	return nil
}

// process applies the skip rules to one candidate and, when accepted,
// records it and loads its descriptor. The descriptor is nil when it is not
// needed or could not be loaded.
func (s *state) process(ctx context.Context, f frame) (*pom.Descriptor, bool) {
	d := f.dep
	reason := Skip(s.visited, d, f.exclusions)
	if reason == ReasonVisited {
		s.checkConflict(d)
	}
	if reason != ReasonNone {
		s.outcome.Unresolved = append(s.outcome.Unresolved, Unresolved{Dependency: d, Reason: reason})
		s.emit(LevelVerbose, d.Coordinate.String(), "skipping %s (%s)", d.Coordinate, reason)
		return nil, false
	}

	s.outcome.Edges = append(s.outcome.Edges, Edge{From: f.parent, To: d.Coordinate})

	if s.opts.SkipInnerDependencies {
		s.accept(d)
		return nil, true
	}

	desc, err := s.descriptor(ctx, d.Coordinate)
	if err != nil {
		if ctx.Err() == nil {
			s.emit(LevelError, d.Coordinate.String(), "failed to load descriptor for %s: %s", d.Coordinate, errors.UserMessage(err))
			s.outcome.Failures = append(s.outcome.Failures, newFailure(d.Coordinate, err))
		}
		s.accept(d)
		return nil, true
	}
	if d.Type == "" {
		d.Type = desc.Packaging()
	}
	s.accept(d)
	return desc, true
}

// accept marks d visited and records it. d.Type must be final by now.
func (s *state) accept(d maven.Dependency) {
	s.visited.Add(d)
	s.outcome.Resolved = append(s.outcome.Resolved, d)
	s.emit(LevelVerbose, d.Coordinate.String(), "resolved %s", d.Coordinate)
}

func (s *state) checkConflict(d maven.Dependency) {
	kept, ok := s.visited.Lookup(d)
	if !ok || !VersionConflict(kept, d) {
		return
	}
	c := newConflict(kept, d)
	s.outcome.Conflicts = append(s.outcome.Conflicts, c)
	msg := fmt.Sprintf("version conflict for %s: keeping %s, ignoring %s",
		d.Coordinate.Key(), kept.Coordinate.Version(), d.Coordinate.Version())
	if c.Newer {
		msg += " (newer)"
	}
	s.emit(LevelWarning, d.Coordinate.String(), "%s", msg)
}

// directType reads the packaging of a direct dependency that declares no
// type. A failure is reported and the type defaults to jar.
func (s *state) directType(ctx context.Context, d maven.Dependency) string {
	desc, err := s.descriptor(ctx, d.Coordinate)
	if err != nil {
		if ctx.Err() == nil {
			s.emit(LevelError, d.Coordinate.String(), "could not determine type of %s, using %s: %s",
				d.Coordinate, maven.DefaultPackaging, errors.UserMessage(err))
		}
		return maven.DefaultPackaging
	}
	return desc.Packaging()
}

// descriptor loads c once per run. Failures are remembered so a missing
// descriptor is not requested again.
func (s *state) descriptor(ctx context.Context, c maven.Coordinate) (*pom.Descriptor, error) {
	if err, ok := s.failed[c]; ok {
		return nil, err
	}
	if d, ok := s.loader.Index().Get(c); ok {
		return d, nil
	}
	d, err := s.loader.Load(ctx, c)
	if err != nil {
		if ctx.Err() == nil {
			s.failed[c] = err
		}
		return nil, err
	}
	observability.Resolver().OnDescriptorParsed(ctx, c.String(), d.ParseTime)
	s.emit(LevelVerbose, c.String(), "parsed descriptor %s in %s", c, d.ParseTime)
	return d, nil
}

func (s *state) empty() (*Outcome, error) {
	s.outcome.Message = "no dependencies found for " + s.root.String()
	s.emit(LevelWarning, s.root.String(), "%s", s.outcome.Message)
	return s.finish(nil)
}

func (s *state) finish(err error) (*Outcome, error) {
	s.outcome.Elapsed = time.Since(s.start)
	if err != nil && s.outcome.Message == "" {
		s.outcome.Message = fmt.Sprintf("resolution of %s interrupted: %v", s.root, err)
	}
	return s.outcome, err
}

func (s *state) emit(level Level, coord, format string, args ...any) {
	if s.opts.Observer == nil {
		return
	}
	s.opts.Observer(Event{
		RunID:      s.id,
		Level:      level,
		Message:    fmt.Sprintf(format, args...),
		Coordinate: coord,
		Time:       time.Now(),
	})
}

func mergeExclusions(a, b []maven.Exclusion) []maven.Exclusion {
	if len(b) == 0 {
		return a
	}
	out := make([]maven.Exclusion, 0, len(a)+len(b))
	out = append(out, a...)
	for _, e := range b {
		dup := false
		for _, have := range out {
			if have == e {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

// formatKV renders a message with key/value pairs as "msg key=value ...".
func formatKV(msg string, kv []any) string {
	for i := 0; i+1 < len(kv); i += 2 {
		msg += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return msg
}
