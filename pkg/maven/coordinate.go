package maven

import (
	"strings"
)

// DefaultPackaging is used when a coordinate or descriptor declares none.
const DefaultPackaging = "jar"

// Coordinate addresses one Maven artifact.
//
// RawVersion holds the version exactly as declared, which may carry range
// syntax such as "[1.0,2.0)". Use [Coordinate.Version] for the canonical form.
// Coordinates are comparable; two are equal when all four fields are equal.
type Coordinate struct {
	GroupID      string `json:"groupId"`
	ArtifactID   string `json:"artifactId"`
	RawVersion   string `json:"version"`
	RawPackaging string `json:"packaging,omitempty"`
}

// NewCoordinate creates a coordinate with default packaging.
func NewCoordinate(groupID, artifactID, version string) Coordinate {
	return Coordinate{GroupID: groupID, ArtifactID: artifactID, RawVersion: version}
}

var rangeStripper = strings.NewReplacer("[", "", "]", "", "(", "", ")", "")

// Version returns the canonical version.
//
// Range brackets are removed and, when a comma separated list remains, the
// first non-empty entry is returned. "[1.0,2.0)" becomes "1.0" and "(,2.0]"
// becomes "2.0". This picks a bound; it does not solve the range.
func (c Coordinate) Version() string {
	if c.RawVersion == "" {
		return ""
	}
	v := rangeStripper.Replace(c.RawVersion)
	if !strings.Contains(v, ",") {
		return v
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return v
}

// Packaging returns the declared packaging, or "jar" when none is set.
func (c Coordinate) Packaging() string {
	if c.RawPackaging == "" {
		return DefaultPackaging
	}
	return c.RawPackaging
}

// Key returns the "groupId:artifactId" identity that ignores version.
func (c Coordinate) Key() string {
	return c.GroupID + ":" + c.ArtifactID
}

// IsZero reports whether no field is set.
func (c Coordinate) IsZero() bool {
	return c == Coordinate{}
}

// Complete reports whether group, artifact and version are all present.
func (c Coordinate) Complete() bool {
	return c.GroupID != "" && c.ArtifactID != "" && c.Version() != ""
}

// PathSafe reports whether c maps to a repository path that stays inside
// the repository. Fields may not contain slashes, backslashes or "..".
func (c Coordinate) PathSafe() bool {
	for _, f := range []string{c.GroupID, c.ArtifactID, c.Version(), c.RawPackaging} {
		if strings.ContainsAny(f, `/\`) || strings.Contains(f, "..") {
			return false
		}
	}
	return true
}

// ConflictsWith reports whether other names the same artifact at a different version.
func (c Coordinate) ConflictsWith(other Coordinate) bool {
	return c.GroupID == other.GroupID &&
		c.ArtifactID == other.ArtifactID &&
		c.Version() != other.Version()
}

// String returns "groupId:artifactId:version" using the canonical version.
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version()
}
