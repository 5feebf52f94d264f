// Package pipeline runs the resolve and fetch workflows shared by the CLI
// and the HTTP server.
//
// A [Runner] resolves a declaration, consults and fills the outcome cache,
// and optionally materializes the resolved artifacts on disk. Keeping this
// in one place means `haven resolve`, `haven fetch` and the server's
// /resolve and /fetch endpoints derive the same cache keys and apply the
// same rules about what is worth caching.
//
// # Usage
//
//	runner := pipeline.NewRunner(searcher, cache, nil, logger)
//	res, err := runner.Fetch(ctx, pipeline.Options{
//	    Declaration: "com.squareup.okhttp3:okhttp:4.12.0",
//	})
//	for _, lib := range res.Libraries {
//	    fmt.Println(lib.Path)
//	}
package pipeline

import (
	"time"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/resolver"
	"github.com/matzehuels/haven/pkg/storage"
)

// Output formats understood by the resolve command and endpoint.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of resolve output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that format is one of [ValidFormats].
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format %q (must be one of: text, json, dot, svg)", format)
	}
	return nil
}

// Options describes one pipeline request.
type Options struct {
	// Declaration is a coordinate in any accepted declaration syntax.
	Declaration string `json:"declaration"`

	SkipInner bool `json:"skip_inner,omitempty"`

	// Refresh ignores any cached outcome but still stores the new one.
	Refresh bool `json:"refresh,omitempty"`

	// NoCache neither reads nor writes the outcome cache.
	NoCache bool `json:"no_cache,omitempty"`

	// Observer receives resolver events. It is not called on a cache hit.
	Observer func(resolver.Event) `json:"-"`

	root maven.Coordinate
}

// Validate parses the declaration.
func (o *Options) Validate() error {
	if o.Declaration == "" {
		return errors.New(errors.ErrCodeInvalidInput, "declaration is required")
	}
	root, err := maven.ParseDeclaration(o.Declaration)
	if err != nil {
		return err
	}
	o.root = root
	return nil
}

// Root returns the parsed declaration. Valid after [Options.Validate].
func (o *Options) Root() maven.Coordinate { return o.root }

// Result is the output of [Runner.Resolve] or [Runner.Fetch].
type Result struct {
	Outcome *resolver.Outcome `json:"outcome"`

	// Libraries and LibraryFailures are only set by Fetch and Materialize.
	// The root artifact comes first, followed by the resolved dependencies.
	Libraries       []storage.Library `json:"libraries,omitempty"`
	LibraryFailures []storage.Failure `json:"library_failures,omitempty"`

	CacheHit bool  `json:"cache_hit"`
	Stats    Stats `json:"stats"`
}

// Stats holds wall-clock timings of the pipeline stages.
type Stats struct {
	ResolveTime time.Duration `json:"resolve_ns"`
	FetchTime   time.Duration `json:"fetch_ns,omitempty"`
}
