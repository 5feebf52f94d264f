package maven

import (
	"regexp"
	"strings"

	"github.com/matzehuels/haven/pkg/errors"
)

var (
	groovyDeclaration = regexp.MustCompile(`^implementation\s+['"](.*)['"]$`)
	kotlinDeclaration = regexp.MustCompile(`^implementation\(\s*['"](.*)['"]\s*\)$`)
)

// ParseDeclaration parses a coordinate from one of the accepted forms:
//
//	group:artifact:version[:packaging]
//	implementation 'group:artifact:version'
//	implementation("group:artifact:version")
//
// All forms yield the same Coordinate. An empty declaration, or one without
// group, artifact and version segments, fails with MALFORMED_DECLARATION.
func ParseDeclaration(declaration string) (Coordinate, error) {
	s := strings.TrimSpace(declaration)
	if s == "" {
		return Coordinate{}, errors.New(errors.ErrCodeMalformedDeclaration, "declaration cannot be empty")
	}

	if m := groovyDeclaration.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	} else if m := kotlinDeclaration.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, errors.New(errors.ErrCodeMalformedDeclaration,
			"expected group:artifact:version, got %q", declaration)
	}
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n'\"()") {
			return Coordinate{}, errors.New(errors.ErrCodeMalformedDeclaration,
				"invalid segment %q in declaration %q", p, declaration)
		}
	}

	c := NewCoordinate(parts[0], parts[1], parts[2])
	if len(parts) == 4 {
		c.RawPackaging = parts[3]
	}
	return c, nil
}

// MustParseDeclaration is like ParseDeclaration but panics on error.
// Intended for tests and static tables.
func MustParseDeclaration(declaration string) Coordinate {
	c, err := ParseDeclaration(declaration)
	if err != nil {
		panic(err)
	}
	return c
}
