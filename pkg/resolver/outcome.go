package resolver

import (
	"time"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
)

// Outcome is the result of one resolution run.
//
// Artifact is the root itself, typed from its descriptor's packaging. It is
// zero when the root descriptor could not be loaded. Resolved never
// contains the root.
type Outcome struct {
	RunID      string             `json:"run_id"`
	Root       maven.Coordinate   `json:"root"`
	Artifact   maven.Dependency   `json:"artifact"`
	Resolved   []maven.Dependency `json:"resolved"`
	Unresolved []Unresolved       `json:"unresolved"`
	Edges      []Edge             `json:"edges"`
	Conflicts  []Conflict         `json:"conflicts,omitempty"`
	Failures   []Failure          `json:"failures,omitempty"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
	Message    string             `json:"message"`
}

// Unresolved is a candidate the skipper rejected.
type Unresolved struct {
	Dependency maven.Dependency `json:"dependency"`
	Reason     Reason           `json:"reason"`
}

// Edge records that From declares To.
type Edge struct {
	From maven.Coordinate `json:"from"`
	To   maven.Coordinate `json:"to"`
}

// Failure is a per-entry error that did not abort the run.
type Failure struct {
	Coordinate maven.Coordinate `json:"coordinate"`
	Code       errors.Code      `json:"code"`
	Message    string           `json:"message"`
}

func newOutcome(id string, root maven.Coordinate) *Outcome {
	return &Outcome{
		RunID:      id,
		Root:       root,
		Resolved:   []maven.Dependency{},
		Unresolved: []Unresolved{},
		Edges:      []Edge{},
	}
}

func newFailure(c maven.Coordinate, err error) Failure {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Failure{Coordinate: c, Code: code, Message: errors.UserMessage(err)}
}

// Empty reports whether nothing was resolved.
func (o *Outcome) Empty() bool {
	return len(o.Resolved) == 0
}

// Coordinates returns the resolved coordinates in discovery order.
func (o *Outcome) Coordinates() []maven.Coordinate {
	out := make([]maven.Coordinate, len(o.Resolved))
	for i, d := range o.Resolved {
		out[i] = d.Coordinate
	}
	return out
}

// Artifacts returns everything a fetch must materialize: the root artifact,
// when known, followed by the resolved dependencies.
func (o *Outcome) Artifacts() []maven.Dependency {
	if o.Artifact.Coordinate.IsZero() {
		return o.Resolved
	}
	out := make([]maven.Dependency, 0, len(o.Resolved)+1)
	out = append(out, o.Artifact)
	return append(out, o.Resolved...)
}

// Contains reports whether c was resolved, ignoring packaging.
func (o *Outcome) Contains(c maven.Coordinate) bool {
	for _, d := range o.Resolved {
		if d.Coordinate.Key() == c.Key() && d.Coordinate.Version() == c.Version() {
			return true
		}
	}
	return false
}
