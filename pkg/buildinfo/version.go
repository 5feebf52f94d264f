// Package buildinfo holds the version stamped into the binary at link time:
//
//	go build -ldflags "-X github.com/matzehuels/haven/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/haven/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/haven/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// Set by ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build stamp in serializable form.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the stamp of the running binary.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// UserAgent is sent with every repository request.
func UserAgent() string {
	return "haven/" + Version
}

// Template is the cobra version template.
func Template() string {
	i := Current()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", i.Version, i.Commit, i.Date)
}
