package pom

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/maven"
)

// MaxParentDepth bounds how many ancestors are loaded for one descriptor.
const MaxParentDepth = 32

// Fetcher supplies raw descriptor bytes for a coordinate.
type Fetcher interface {
	FetchDescriptor(ctx context.Context, c maven.Coordinate) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, c maven.Coordinate) ([]byte, error)

// FetchDescriptor calls f.
func (f FetcherFunc) FetchDescriptor(ctx context.Context, c maven.Coordinate) ([]byte, error) {
	return f(ctx, c)
}

// Loader parses descriptors and loads their ancestors into an Index.
//
// Every descriptor is parsed at most once per Loader: repeated loads of the
// same coordinate return the indexed descriptor.
type Loader struct {
	fetcher Fetcher
	index   *Index

	// Logger receives warnings about ancestors that could not be loaded.
	// May be nil.
	Logger func(msg string, args ...any)
}

// NewLoader creates a loader that fetches through f and records into idx.
// A nil idx allocates a fresh one; a nil f disables ancestor loading.
func NewLoader(f Fetcher, idx *Index) *Loader {
	if idx == nil {
		idx = NewIndex()
	}
	return &Loader{fetcher: f, index: idx}
}

// Index returns the index this loader records into.
func (l *Loader) Index() *Index {
	return l.index
}

// Load returns the descriptor for c, fetching and parsing it on first use.
func (l *Loader) Load(ctx context.Context, c maven.Coordinate) (*Descriptor, error) {
	return l.load(ctx, c, map[string]bool{})
}

// Parse decodes a descriptor from raw bytes. Ancestors it names are loaded
// through the loader's fetcher.
func (l *Loader) Parse(ctx context.Context, data []byte) (*Descriptor, error) {
	d, err := l.parse(ctx, data, map[string]bool{})
	if err != nil {
		return nil, err
	}
	l.index.Add(d)
	return d, nil
}

// Parse decodes a single descriptor without loading its ancestors. Values
// that only an ancestor could supply are left unresolved.
func Parse(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read descriptor")
	}
	return NewLoader(nil, nil).Parse(context.Background(), data)
}

func (l *Loader) load(ctx context.Context, c maven.Coordinate, chain map[string]bool) (*Descriptor, error) {
	if d, ok := l.index.Get(c); ok {
		return d, nil
	}
	if l.fetcher == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no descriptor source for %s", c)
	}
	data, err := l.fetcher.FetchDescriptor(ctx, c)
	if err != nil {
		return nil, err
	}

	chain[indexKey(c)] = true
	defer delete(chain, indexKey(c))

	d, err := l.parse(ctx, data, chain)
	if err != nil {
		return nil, errors.Classify(errors.ErrCodeParseFailure, err, "parse descriptor %s", c)
	}
	l.index.Add(d, c)
	return d, nil
}

func (l *Loader) warn(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger(msg, args...)
	}
}

func (l *Loader) parse(ctx context.Context, data []byte, chain map[string]bool) (*Descriptor, error) {
	start := time.Now()

	var doc project
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "malformed descriptor")
	}
	// Time spent on ancestors is excluded from ParseTime.
	var parentTime time.Duration

	d := &Descriptor{Properties: make(map[string]string, len(doc.Properties.Entries))}
	for _, p := range doc.Properties.Entries {
		d.Properties[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}
	sub := &substituter{own: d.Properties, builtin: map[string]string{}}

	if doc.Parent != nil && text(doc.Parent.GroupID) != "" && text(doc.Parent.ArtifactID) != "" {
		parent := maven.NewCoordinate(
			sub.apply(text(doc.Parent.GroupID)),
			sub.apply(text(doc.Parent.ArtifactID)),
			sub.apply(text(doc.Parent.Version)),
		)
		d.Parent = &parent

		t := time.Now()
		switch {
		case chain[indexKey(parent)]:
			l.warn("parent cycle detected", "parent", parent.String())
		case len(chain) >= MaxParentDepth:
			l.warn("parent chain too deep", "parent", parent.String(), "limit", MaxParentDepth)
		case l.fetcher != nil:
			if _, err := l.load(ctx, parent, chain); err != nil {
				l.warn("failed to load parent descriptor", "parent", parent.String(), "error", err)
			}
		}
		parentTime = time.Since(t)
	}
	sub.ancestors = l.index.Ancestors(d)

	d.Coordinate = maven.Coordinate{
		GroupID:      sub.apply(text(doc.GroupID)),
		ArtifactID:   sub.apply(text(doc.ArtifactID)),
		RawVersion:   sub.apply(text(doc.Version)),
		RawPackaging: sub.apply(text(doc.Packaging)),
	}
	if d.Parent != nil {
		if d.Coordinate.GroupID == "" {
			d.Coordinate.GroupID = d.Parent.GroupID
		}
		if d.Coordinate.RawVersion == "" {
			d.Coordinate.RawVersion = d.Parent.RawVersion
		}
	}

	builtin := map[string]string{
		"groupId":    d.Coordinate.GroupID,
		"artifactId": d.Coordinate.ArtifactID,
		"version":    d.Coordinate.RawVersion,
	}
	if d.Parent != nil {
		builtin["parent.groupId"] = d.Parent.GroupID
		builtin["parent.version"] = d.Parent.RawVersion
	}
	for k, v := range builtin {
		sub.builtin["project."+k] = v
		sub.builtin["pom."+k] = v
	}

	managedChain := append([]*Descriptor{d}, sub.ancestors...)
	for _, raw := range doc.Managed {
		dep, ok := l.dependency(raw, sub, d, sub.ancestors)
		if ok {
			d.Managed = append(d.Managed, dep)
		}
	}
	for _, raw := range doc.Dependencies {
		dep, ok := l.dependency(raw, sub, d, managedChain)
		if !ok {
			continue
		}
		d.Dependencies = append(d.Dependencies, dep)
		d.Exclusions = appendExclusions(d.Exclusions, dep.Exclusions)
	}

	d.Self = maven.NewDependency(d.Coordinate)
	if text(doc.Packaging) != "" {
		d.Self.Type = d.Coordinate.RawPackaging
	}
	d.Dependencies = append(d.Dependencies, d.Self)

	d.ParseTime = time.Since(start) - parentTime
	return d, nil
}

// dependency builds one declared entry. Entries that omit the group or
// artifact element are dropped, as are entries whose version cannot be found
// in any managed list along managed. Empty elements are kept so the resolver
// can report them as malformed.
func (l *Loader) dependency(raw rawDependency, sub *substituter, owner *Descriptor, managed []*Descriptor) (maven.Dependency, bool) {
	if raw.GroupID == nil || raw.ArtifactID == nil {
		return maven.Dependency{}, false
	}
	dep := maven.Dependency{
		Coordinate: maven.NewCoordinate(
			sub.apply(text(*raw.GroupID)),
			sub.apply(text(*raw.ArtifactID)),
			sub.apply(text(raw.Version)),
		),
		Type:     sub.apply(text(raw.Type)),
		RawScope: sub.apply(text(raw.Scope)),
		Optional: strings.EqualFold(sub.apply(text(raw.Optional)), "true"),
	}

	for _, ex := range raw.Exclusions {
		e := maven.NewExclusion(sub.apply(text(ex.GroupID)), sub.apply(text(ex.ArtifactID)))
		if e.GroupID == "" || e.ArtifactID == "" {
			continue
		}
		dep.Exclusions = append(dep.Exclusions, e)
	}

	if dep.Coordinate.RawVersion != "" {
		return dep, true
	}
	m, ok := findManaged(dep, managed)
	if !ok {
		l.warn("dropping dependency without version", "dependency", dep.Coordinate.Key(),
			"descriptor", owner.Coordinate.String())
		return dep, false
	}
	dep.Coordinate.RawVersion = m.Coordinate.RawVersion
	if dep.RawScope == "" {
		dep.RawScope = m.RawScope
	}
	if dep.Type == "" {
		dep.Type = m.Type
	}
	return dep, true
}

// findManaged searches the managed lists of each descriptor in order.
func findManaged(dep maven.Dependency, chain []*Descriptor) (maven.Dependency, bool) {
	for _, d := range chain {
		for _, m := range d.Managed {
			if m.Matches(dep) {
				return m, true
			}
		}
	}
	return maven.Dependency{}, false
}

func appendExclusions(dst, src []maven.Exclusion) []maven.Exclusion {
outer:
	for _, e := range src {
		for _, have := range dst {
			if have == e {
				continue outer
			}
		}
		dst = append(dst, e)
	}
	return dst
}

var placeholder = regexp.MustCompile(`^\$\{([^{}\s]+)\}$`)

// substituter resolves "${name}" placeholders. Only values that consist of a
// single placeholder are substituted; anything else is returned unchanged,
// as is a placeholder whose name cannot be found.
type substituter struct {
	own       map[string]string
	builtin   map[string]string
	ancestors []*Descriptor
}

func (s *substituter) apply(v string) string {
	m := placeholder.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	if r, ok := s.lookup(m[1]); ok {
		return r
	}
	return v
}

func (s *substituter) lookup(name string) (string, bool) {
	if v, ok := s.own[name]; ok {
		return v, true
	}
	if v, ok := s.builtin[name]; ok && v != "" {
		return v, true
	}
	for _, a := range s.ancestors {
		if v, ok := a.Properties[name]; ok {
			return v, true
		}
	}
	return "", false
}

func text(s string) string {
	return strings.TrimSpace(s)
}

// String renders a compact summary, for debug output.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%d dependencies, %d managed)", d.Coordinate, len(d.Direct()), len(d.Managed))
}

type project struct {
	XMLName      xml.Name        `xml:"project"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Parent       *parentRef      `xml:"parent"`
	Properties   properties      `xml:"properties"`
	Dependencies []rawDependency `xml:"dependencies>dependency"`
	Managed      []rawDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type parentRef struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type properties struct {
	Entries []property `xml:",any"`
}

type property struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type rawDependency struct {
	GroupID    *string        `xml:"groupId"`
	ArtifactID *string        `xml:"artifactId"`
	Version    string         `xml:"version"`
	Type       string         `xml:"type"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	Exclusions []rawExclusion `xml:"exclusions>exclusion"`
}

type rawExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}
