package repository

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"jitpack", "google-maven", "maven-central"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "repositories.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	locals, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := []string{"google-maven", "jitpack", "maven-central"}
	if len(locals) != len(want) {
		t.Fatalf("Discover() = %d repositories, want %d", len(locals), len(want))
	}
	for i, l := range locals {
		if l.Name() != want[i] {
			t.Errorf("locals[%d] = %q, want %q", i, l.Name(), want[i])
		}
		if l.Kind() != KindLocal {
			t.Errorf("Kind() = %q, want local", l.Kind())
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	locals, err := Discover(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(locals) != 0 {
		t.Errorf("Discover() = %v, want none", locals)
	}
}

func TestLocation(t *testing.T) {
	rel := "io/eup/test/1.5/test-1.5.pom"

	r := NewRemote("central", "https://repo1.maven.org/maven2///")
	if got, want := r.Location(rel), "https://repo1.maven.org/maven2/io/eup/test/1.5/test-1.5.pom"; got != want {
		t.Errorf("Remote.Location() = %q, want %q", got, want)
	}
	if r.Kind() != KindRemote {
		t.Errorf("Kind() = %q, want remote", r.Kind())
	}

	dir := t.TempDir()
	l := NewLocal("cache", dir)
	if got, want := l.Location(rel), filepath.Join(dir, "io", "eup", "test", "1.5", "test-1.5.pom"); got != want {
		t.Errorf("Local.Location() = %q, want %q", got, want)
	}
	if l.Has(rel) {
		t.Error("Has() = true for missing file")
	}
	if err := WriteFile(l.Location(rel), []byte("<project/>")); err != nil {
		t.Fatal(err)
	}
	if !l.Has(rel) {
		t.Error("Has() = false after write")
	}
}

func TestWriteFileLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "file.jar")

	if err := WriteFile(path, []byte("one")); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if err := WriteFile(path, []byte("two")); err != nil {
		t.Fatalf("WriteFile() overwrite error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "two" {
		t.Errorf("content = %q, %v; want two", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the target", len(entries))
	}
}
