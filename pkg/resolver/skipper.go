package resolver

import (
	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/haven/pkg/maven"
)

// Reason explains why a candidate was not resolved.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonScope     Reason = "scope"
	ReasonExcluded  Reason = "excluded"
	ReasonOptional  Reason = "optional"
	ReasonVisited   Reason = "visited"
	ReasonMalformed Reason = "malformed"
)

func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}

// Visited is the set of accepted dependencies of one run, keyed by
// group:artifact. The first version seen for a key is the one kept.
type Visited struct {
	byKey map[string]maven.Dependency
}

// NewVisited creates an empty set.
func NewVisited() *Visited {
	return &Visited{byKey: make(map[string]maven.Dependency)}
}

// Add records d. Dependencies without group or artifact are ignored.
func (v *Visited) Add(d maven.Dependency) {
	if d.Coordinate.GroupID == "" || d.Coordinate.ArtifactID == "" {
		return
	}
	if _, ok := v.byKey[d.Coordinate.Key()]; !ok {
		v.byKey[d.Coordinate.Key()] = d
	}
}

// Lookup returns the visited entry that matches d.
func (v *Visited) Lookup(d maven.Dependency) (maven.Dependency, bool) {
	if d.Coordinate.GroupID == "" || d.Coordinate.ArtifactID == "" {
		return maven.Dependency{}, false
	}
	got, ok := v.byKey[d.Coordinate.Key()]
	return got, ok
}

// Len returns the number of visited artifacts.
func (v *Visited) Len() int {
	return len(v.byKey)
}

// Skip evaluates the skip rules in order and returns the first that applies:
// test or provided scope, exclusion, optional, already visited, and finally
// missing group, artifact or version or a field that would leave the
// repository layout.
func Skip(visited *Visited, d maven.Dependency, exclusions []maven.Exclusion) Reason {
	switch s := d.Scope(); s {
	case maven.ScopeTest, maven.ScopeProvided:
		return ReasonScope
	}
	for _, e := range exclusions {
		if e.Matches(d) {
			return ReasonExcluded
		}
	}
	if d.Optional {
		return ReasonOptional
	}
	if _, ok := visited.Lookup(d); ok {
		return ReasonVisited
	}
	if !d.Coordinate.Complete() || !d.Coordinate.PathSafe() {
		return ReasonMalformed
	}
	return ReasonNone
}

// VersionConflict reports whether a and b name the same artifact at
// different versions.
func VersionConflict(a, b maven.Dependency) bool {
	return a.Matches(b) && a.Coordinate.ConflictsWith(b.Coordinate)
}

// Conflict records a version that lost to the first-seen one.
type Conflict struct {
	Kept      maven.Coordinate `json:"kept"`
	Discarded maven.Coordinate `json:"discarded"`
	// Newer is set when the discarded version is semantically newer than
	// the kept one. Unparseable versions never compare as newer.
	Newer bool `json:"newer"`
}

func newConflict(kept, discarded maven.Dependency) Conflict {
	return Conflict{
		Kept:      kept.Coordinate,
		Discarded: discarded.Coordinate,
		Newer:     newer(discarded.Coordinate.Version(), kept.Coordinate.Version()),
	}
}

// newer reports whether a is a higher version than b.
func newer(a, b string) bool {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return va.GreaterThan(vb)
}
