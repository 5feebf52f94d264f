package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/haven/pkg/maven"
	"github.com/matzehuels/haven/pkg/resolver"
)

func sampleOutcome() *resolver.Outcome {
	root := maven.NewCoordinate("com.example", "app", "1.0")
	okhttp := maven.NewDependency(maven.NewCoordinate("com.squareup.okhttp3", "okhttp", "4.12.0"))
	okio := maven.NewDependency(maven.NewCoordinate("com.squareup.okio", "okio", "3.6.0"))
	junit := maven.NewDependency(maven.NewCoordinate("junit", "junit", "4.13.2"))
	junit.RawScope = maven.ScopeTest

	return &resolver.Outcome{
		Root:       root,
		Resolved:   []maven.Dependency{okhttp, okio},
		Unresolved: []resolver.Unresolved{{Dependency: junit, Reason: resolver.ReasonScope}},
		Edges: []resolver.Edge{
			{From: root, To: okhttp.Coordinate},
			{From: okhttp.Coordinate, To: okio.Coordinate},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleOutcome(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"com.example:app:1.0" [label="com.example:app:1.0"`,
		`"com.squareup.okhttp3:okhttp:4.12.0" -> "com.squareup.okio:okio:3.6.0";`,
		`"com.example:app:1.0" -> "com.squareup.okhttp3:okhttp:4.12.0";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "junit") {
		t.Error("skipped dependency rendered without Detailed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleOutcome(), Options{Detailed: true})

	if !strings.Contains(dot, `"skipped:junit:junit:4.13.2"`) {
		t.Errorf("skipped node missing:\n%s", dot)
	}
	if !strings.Contains(dot, `scope: compile`) {
		t.Errorf("detail lines missing:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleOutcome(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("okio")) {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("viewBox not normalized: %.200s", svg)
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected error for truncated DOT")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("input without viewBox changed: %s", got)
	}
}
