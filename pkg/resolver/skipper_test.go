package resolver

import (
	"testing"

	"github.com/matzehuels/haven/pkg/maven"
)

func TestSkip(t *testing.T) {
	visited := NewVisited()
	visited.Add(maven.NewDependency(maven.NewCoordinate("seen", "seen", "1")))

	mk := func(g, a, v string) maven.Dependency {
		return maven.NewDependency(maven.NewCoordinate(g, a, v))
	}
	withScope := func(d maven.Dependency, s string) maven.Dependency { d.RawScope = s; return d }
	optional := func(d maven.Dependency) maven.Dependency { d.Optional = true; return d }

	exclusions := []maven.Exclusion{maven.NewExclusion("ex", "ex"), maven.NewExclusion("seen", "seen")}

	tests := []struct {
		name string
		dep  maven.Dependency
		want Reason
	}{
		{"accepted", mk("g", "a", "1"), ReasonNone},
		{"runtime accepted", withScope(mk("g", "a", "1"), "runtime"), ReasonNone},
		{"test scope", withScope(mk("g", "a", "1"), "test"), ReasonScope},
		{"provided scope", withScope(mk("g", "a", "1"), "provided"), ReasonScope},
		{"scope before exclusion", withScope(mk("ex", "ex", "1"), "test"), ReasonScope},
		{"excluded", mk("ex", "ex", "1"), ReasonExcluded},
		{"exclusion before visited", mk("seen", "seen", "2"), ReasonExcluded},
		{"optional", optional(mk("g", "a", "1")), ReasonOptional},
		{"missing version", mk("g", "a", ""), ReasonMalformed},
		{"missing artifact", mk("g", "", "1"), ReasonMalformed},
		{"traversing version", mk("g", "a", "../../x"), ReasonMalformed},
		{"backslash in artifact", mk("g", `a\b`, "1"), ReasonMalformed},
		{"optional before malformed", optional(mk("g", "", "")), ReasonOptional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Skip(visited, tt.dep, exclusions); got != tt.want {
				t.Errorf("Skip() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := Skip(visited, mk("seen", "seen", "2"), nil); got != ReasonVisited {
		t.Errorf("Skip() visited = %q, want visited", got)
	}
}

func TestVisitedFirstWins(t *testing.T) {
	v := NewVisited()
	v.Add(maven.NewDependency(maven.NewCoordinate("g", "a", "1")))
	v.Add(maven.NewDependency(maven.NewCoordinate("g", "a", "2")))
	v.Add(maven.NewDependency(maven.NewCoordinate("g", "", "1")))

	if v.Len() != 1 {
		t.Errorf("Len() = %d, want 1", v.Len())
	}
	got, ok := v.Lookup(maven.NewDependency(maven.NewCoordinate("g", "a", "9")))
	if !ok || got.Coordinate.Version() != "1" {
		t.Errorf("Lookup() = %v, %v; want version 1", got, ok)
	}
}

func TestVersionConflict(t *testing.T) {
	a := maven.NewDependency(maven.NewCoordinate("g", "a", "1.0"))
	tests := []struct {
		name string
		b    maven.Dependency
		want bool
	}{
		{"different version", maven.NewDependency(maven.NewCoordinate("g", "a", "2.0")), true},
		{"same version", maven.NewDependency(maven.NewCoordinate("g", "a", "1.0")), false},
		{"other artifact", maven.NewDependency(maven.NewCoordinate("g", "b", "2.0")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VersionConflict(a, tt.b); got != tt.want {
				t.Errorf("VersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2.0.0", "1.0.0", true},
		{"1.0", "1.1", false},
		{"32.1.3-jre", "31.0-jre", true},
		{"not-a-version", "1.0", false},
	}
	for _, tt := range tests {
		if got := newer(tt.a, tt.b); got != tt.want {
			t.Errorf("newer(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
