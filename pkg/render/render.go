// Package render exports a resolution outcome as a node-link diagram.
//
// [ToDOT] produces Graphviz DOT text with the root on top and an edge from
// every dependency to the artifacts it pulled in. [RenderSVG] lays the DOT
// out in-process through [github.com/goccy/go-graphviz], so no graphviz
// binary is required.
//
//	dot := render.ToDOT(outcome, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/haven/pkg/resolver"
)

// Options configures diagram output.
type Options struct {
	// Detailed adds type and scope lines to node labels and draws skipped
	// dependencies as dashed nodes.
	Detailed bool
}

// ToDOT converts an outcome to DOT.
func ToDOT(out *resolver.Outcome, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=\"#dbeafe\", penwidth=2];\n", out.Root.String(), out.Root.String())
	for _, d := range out.Resolved {
		label := d.Coordinate.String()
		if opts.Detailed {
			label += "\n" + strings.Join(details(d.Type, d.Scope()), "\n")
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", d.Coordinate.String(), label)
	}

	if opts.Detailed {
		seen := make(map[string]bool)
		for _, u := range out.Unresolved {
			id := "skipped:" + u.Dependency.Coordinate.String()
			if seen[id] || out.Contains(u.Dependency.Coordinate) {
				continue
			}
			seen[id] = true
			label := u.Dependency.Coordinate.String() + "\n" + u.Reason.String()
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", id, label)
		}
	}

	buf.WriteString("\n")
	for _, e := range out.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From.String(), e.To.String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func details(typ, scope string) []string {
	if typ == "" {
		typ = "jar"
	}
	return []string{"type: " + typ, "scope: " + scope}
}

// RenderSVG lays out a DOT graph and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales from the
// origin and carries its natural pixel size.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
