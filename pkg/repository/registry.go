package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/haven/pkg/errors"
)

// Entry is one remote in the registry file.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Defaults returns the built-in remote list. Each call returns a fresh slice.
func Defaults() []Entry {
	return []Entry{
		{Name: "maven-central", URL: "https://repo1.maven.org/maven2"},
		{Name: "google-maven", URL: "https://maven.google.com"},
		{Name: "jitpack", URL: "https://jitpack.io"},
		{Name: "jcenter", URL: "https://jcenter.bintray.com"},
	}
}

// Registry is the ordered list of configured remotes.
type Registry struct {
	Entries []Entry
}

// RegistryOption configures [LoadRegistry].
type RegistryOption func(*registryOptions)

type registryOptions struct {
	withDefaults bool
	logger       func(msg string, args ...any)
}

// WithDefaults appends the built-in remotes after the configured ones.
// Names already present are not duplicated.
func WithDefaults() RegistryOption {
	return func(o *registryOptions) { o.withDefaults = true }
}

// WithLogger receives a warning when the registry file is replaced by defaults.
func WithLogger(fn func(msg string, args ...any)) RegistryOption {
	return func(o *registryOptions) { o.logger = fn }
}

// LoadRegistry reads the registry at path. When the file is missing or
// invalid the defaults are used and written back to path.
func LoadRegistry(path string, opts ...RegistryOption) (*Registry, error) {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	entries, err := readRegistry(path)
	if err != nil {
		if _, statErr := os.Stat(path); o.logger != nil && statErr == nil {
			o.logger("invalid repository registry, using defaults", "path", path, "error", err)
		}
		entries = Defaults()
		if err := SaveRegistry(path, entries); err != nil {
			return nil, err
		}
	}

	r := &Registry{}
	for _, e := range entries {
		r.add(e)
	}
	if o.withDefaults {
		for _, e := range Defaults() {
			r.add(e)
		}
	}
	return r, nil
}

func readRegistry(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read registry")
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode registry")
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func validateEntry(e Entry) error {
	if err := errors.ValidateRepositoryName(e.Name); err != nil {
		return err
	}
	return errors.ValidateURL(e.URL)
}

// add appends e unless its name is already registered.
func (r *Registry) add(e Entry) bool {
	if _, ok := r.Find(e.Name); ok {
		return false
	}
	e.URL = strings.TrimRight(e.URL, "/")
	r.Entries = append(r.Entries, e)
	return true
}

// Find returns the entry named name.
func (r *Registry) Find(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// AddRemote registers a new remote after validating it.
func (r *Registry) AddRemote(name, url string) error {
	e := Entry{Name: name, URL: url}
	if err := validateEntry(e); err != nil {
		return err
	}
	if !r.add(e) {
		return errors.New(errors.ErrCodeInvalidInput, "repository %q already exists", name)
	}
	return nil
}

// RemoveRemote unregisters the remote named name.
func (r *Registry) RemoveRemote(name string) error {
	for i, e := range r.Entries {
		if e.Name == name {
			r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "repository %q not found", name)
}

// Remotes builds a Remote per entry, in order.
func (r *Registry) Remotes() []*Remote {
	out := make([]*Remote, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = NewRemote(e.Name, e.URL)
	}
	return out
}

// Save writes the registry to path.
func (r *Registry) Save(path string) error {
	return SaveRegistry(path, r.Entries)
}

// SaveRegistry writes entries to path as indented JSON, creating parent
// directories as needed.
func SaveRegistry(path string, entries []Entry) error {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Name: e.Name, URL: strings.TrimRight(e.URL, "/")}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode registry")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create registry directory")
	}
	if err := WriteFile(path, append(data, '\n')); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write registry %s", path)
	}
	return nil
}
