package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxPathLength = 500
	maxNameLength = 128
)

// pathRules are checked in order by ValidatePath. Relative paths are joined
// onto cache directories, so each rule closes one way out of the cache root.
var pathRules = []struct {
	bad    func(string) bool
	reason string
}{
	{func(p string) bool { return p == "" }, "path cannot be empty"},
	{func(p string) bool { return len(p) > maxPathLength }, "path is longer than 500 characters"},
	{func(p string) bool { return strings.IndexFunc(p, unicode.IsControl) >= 0 }, "path contains control characters"},
	{func(p string) bool { return strings.HasPrefix(p, "/") }, "path must be relative"},
	{func(p string) bool { return strings.Contains(p, `\`) }, "path cannot contain backslashes"},
	{func(p string) bool { return hasSegment(p, "..") }, "path cannot contain .. segments"},
}

func hasSegment(p, seg string) bool {
	for _, s := range strings.Split(p, "/") {
		if s == seg {
			return true
		}
	}
	return false
}

// ValidatePath checks a repository-relative path such as
// "com/squareup/okio/okio/3.6.0/okio-3.6.0.pom". Failures carry INVALID_PATH.
func ValidatePath(path string) error {
	for _, r := range pathRules {
		if r.bad(path) {
			return New(ErrCodeInvalidPath, "%s: %q", r.reason, path)
		}
	}
	return nil
}

// ValidateURL checks a repository base URL: http or https, with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	switch {
	case rawURL == "":
		return New(ErrCodeInvalidInput, "repository URL cannot be empty")
	case err != nil:
		return Wrap(ErrCodeInvalidInput, err, "invalid repository URL %q", rawURL)
	case u.Scheme != "http" && u.Scheme != "https":
		return New(ErrCodeInvalidInput, "repository URL %q must use http or https", rawURL)
	case u.Host == "":
		return New(ErrCodeInvalidInput, "repository URL %q has no host", rawURL)
	}
	return nil
}

var repositoryName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateRepositoryName checks a repository name. Names become directories
// under the cache root.
func ValidateRepositoryName(name string) error {
	if name == "" || len(name) > maxNameLength || strings.Contains(name, "..") || !repositoryName.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid repository name %q (letters, digits, '.', '_' and '-', at most %d)", name, maxNameLength)
	}
	return nil
}
