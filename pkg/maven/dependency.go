package maven

// Dependency scopes recognised by the resolver.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
	ScopeProvided = "provided"
	ScopeSystem   = "system"
	ScopeImport   = "import"
)

// Dependency is one edge declared in a descriptor.
//
// Type aliases packaging and may be empty when the descriptor does not
// declare it; the resolver backfills it from the dependency's own descriptor.
// An empty RawScope means "compile".
type Dependency struct {
	Coordinate Coordinate  `json:"coordinate"`
	Type       string      `json:"type,omitempty"`
	RawScope   string      `json:"scope,omitempty"`
	Optional   bool        `json:"optional,omitempty"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// NewDependency creates a compile-scope dependency on c.
func NewDependency(c Coordinate) Dependency {
	return Dependency{Coordinate: c}
}

// Scope returns the declared scope, defaulting to compile.
func (d Dependency) Scope() string {
	if d.RawScope == "" {
		return ScopeCompile
	}
	return d.RawScope
}

// Matches reports graph identity: both group and artifact are present on
// each side and equal. Versions are ignored.
func (d Dependency) Matches(other Dependency) bool {
	a, b := d.Coordinate, other.Coordinate
	if a.GroupID == "" || a.ArtifactID == "" || b.GroupID == "" || b.ArtifactID == "" {
		return false
	}
	return a.GroupID == b.GroupID && a.ArtifactID == b.ArtifactID
}

func (d Dependency) String() string {
	return d.Coordinate.String()
}

// Exclusion removes an artifact, by group and artifact, from a subtree.
// There is no wildcard support: "*" only matches a literal "*".
type Exclusion struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
}

// NewExclusion creates an exclusion. Absent values are stored as empty strings.
func NewExclusion(groupID, artifactID string) Exclusion {
	return Exclusion{GroupID: groupID, ArtifactID: artifactID}
}

// Matches reports whether d has this exclusion's group and artifact.
func (e Exclusion) Matches(d Dependency) bool {
	if e.GroupID == "" || e.ArtifactID == "" {
		return false
	}
	return e.GroupID == d.Coordinate.GroupID && e.ArtifactID == d.Coordinate.ArtifactID
}

func (e Exclusion) String() string {
	return e.GroupID + ":" + e.ArtifactID
}
