package pom

import (
	"time"

	"github.com/matzehuels/haven/pkg/maven"
)

// Descriptor is the parsed form of one POM.
//
// Parent is an id reference, never an owning pointer: the ancestor itself
// lives in the [Index] of the run that loaded it and is looked up on demand.
// Dependencies always ends with Self, the synthetic entry for the
// descriptor's own coordinate; use [Descriptor.Direct] for declared entries.
type Descriptor struct {
	Parent       *maven.Coordinate
	Coordinate   maven.Coordinate
	Self         maven.Dependency
	Managed      []maven.Dependency
	Dependencies []maven.Dependency
	Exclusions   []maven.Exclusion
	Properties   map[string]string
	UserDefined  bool

	// ParseTime is how long decoding this descriptor took, excluding
	// the time spent loading its ancestors.
	ParseTime time.Duration
}

// Direct returns the declared dependencies, without the Self entry.
func (d *Descriptor) Direct() []maven.Dependency {
	if len(d.Dependencies) == 0 {
		return nil
	}
	return d.Dependencies[:len(d.Dependencies)-1]
}

// Packaging returns the descriptor's packaging, defaulting to jar.
func (d *Descriptor) Packaging() string {
	return d.Coordinate.Packaging()
}

// Property returns a property declared by this descriptor.
func (d *Descriptor) Property(name string) (string, bool) {
	v, ok := d.Properties[name]
	return v, ok
}

// Index holds the descriptors loaded during one resolution run and resolves
// parent references. An Index is owned by a single run and is not safe for
// concurrent use.
type Index struct {
	byKey map[string]*Descriptor
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]*Descriptor)}
}

func indexKey(c maven.Coordinate) string {
	return c.String()
}

// Add records d under its own coordinate and under each alias.
func (i *Index) Add(d *Descriptor, aliases ...maven.Coordinate) {
	i.byKey[indexKey(d.Coordinate)] = d
	for _, c := range aliases {
		i.byKey[indexKey(c)] = d
	}
}

// Get returns the descriptor loaded for c.
func (i *Index) Get(c maven.Coordinate) (*Descriptor, bool) {
	d, ok := i.byKey[indexKey(c)]
	return d, ok
}

// Len returns the number of distinct keys held.
func (i *Index) Len() int {
	return len(i.byKey)
}

// Parent resolves d's parent reference.
func (i *Index) Parent(d *Descriptor) (*Descriptor, bool) {
	if d == nil || d.Parent == nil {
		return nil, false
	}
	return i.Get(*d.Parent)
}

// Ancestors returns d's loaded ancestors, nearest first. A parent that was
// not loaded ends the chain, as does a cycle.
func (i *Index) Ancestors(d *Descriptor) []*Descriptor {
	var chain []*Descriptor
	seen := map[*Descriptor]bool{d: true}
	for cur, ok := i.Parent(d); ok && !seen[cur]; cur, ok = i.Parent(cur) {
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}
