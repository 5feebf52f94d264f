// Package maven defines the coordinate and dependency model shared by the
// descriptor parser, the repositories and the resolver.
//
// # Coordinates
//
// A [Coordinate] is the "group:artifact:version[:packaging]" address of an
// artifact. Declarations are accepted in plain form or as Gradle Groovy and
// Kotlin implementation lines:
//
//	c, err := maven.ParseDeclaration(`implementation("com.squareup.okio:okio:3.6.0")`)
//
// Versions may carry range syntax. [Coordinate.Version] degrades a range to
// its first listed bound; no range solving is performed.
//
// # Layout
//
// [DescriptorPath] and [ArtifactPath] compute the canonical repository layout
//
//	com/squareup/okio/okio/3.6.0/okio-3.6.0.pom
//
// used for both remote URLs and the local cache.
package maven
