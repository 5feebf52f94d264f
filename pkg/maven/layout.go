package maven

import "strings"

// BasePath returns the extension-less repository path of c:
//
//	group/with/slashes/artifactId/version/artifactId-version
//
// The same relative path is used by remote repositories and by every
// repository directory under the local cache root.
func BasePath(c Coordinate) string {
	v := c.Version()
	return strings.ReplaceAll(c.GroupID, ".", "/") + "/" +
		c.ArtifactID + "/" + v + "/" + c.ArtifactID + "-" + v
}

// DescriptorPath returns the relative path of c's POM.
func DescriptorPath(c Coordinate) string {
	return BasePath(c) + ".pom"
}

// ArtifactPath returns the relative path of d's binary artifact.
// Only type "aar" maps to ".aar"; bundles and everything else are jars.
func ArtifactPath(d Dependency) string {
	return BasePath(d.Coordinate) + ArtifactExtension(d.Type)
}

// ArtifactExtension maps a dependency type to a file extension.
func ArtifactExtension(typ string) string {
	if strings.EqualFold(typ, "aar") {
		return ".aar"
	}
	return ".jar"
}
