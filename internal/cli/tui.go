package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/haven/pkg/pipeline"
	"github.com/matzehuels/haven/pkg/resolver"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tailSize is how many recent events the progress view shows.
const tailSize = 8

var (
	tuiBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	tuiLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(11)
)

type (
	eventMsg resolver.Event
	tickMsg  time.Time
	doneMsg  struct {
		out *resolver.Outcome
		err error
	}
)

// resolveModel is the bubbletea model of `resolve --tui`.
type resolveModel struct {
	root     string
	started  time.Time
	frame    int
	resolved int
	skipped  int
	warnings int
	errors   int
	tail     []resolver.Event

	done      bool
	cancelled bool
	out       *resolver.Outcome
	err       error
}

func newResolveModel(root string) resolveModel {
	return resolveModel{root: root, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m resolveModel) Init() tea.Cmd { return tick() }

func (m resolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case eventMsg:
		m.record(resolver.Event(msg))
	case doneMsg:
		m.done = true
		m.out, m.err = msg.out, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *resolveModel) record(e resolver.Event) {
	switch {
	case e.Level == resolver.LevelWarning:
		m.warnings++
	case e.Level == resolver.LevelError:
		m.errors++
	case strings.HasPrefix(e.Message, "resolved "):
		m.resolved++
	case strings.HasPrefix(e.Message, "skipping "):
		m.skipped++
	}
	if e.Level == resolver.LevelVerbose && !strings.HasPrefix(e.Message, "resolved ") {
		return
	}
	m.tail = append(m.tail, e)
	if len(m.tail) > tailSize {
		m.tail = m.tail[len(m.tail)-tailSize:]
	}
}

func (m resolveModel) View() string {
	var b strings.Builder

	icon := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	if m.done {
		icon = styleIconSuccess.Render(iconSuccess)
		if m.err != nil {
			icon = styleIconError.Render(iconError)
		}
	}
	fmt.Fprintf(&b, "%s %s %s\n\n", icon, StyleTitle.Render(m.root),
		StyleDim.Render(time.Since(m.started).Round(100*time.Millisecond).String()))

	counts := []struct {
		label string
		n     int
		style lipgloss.Style
	}{
		{"resolved", m.resolved, StyleSuccess},
		{"skipped", m.skipped, StyleDim},
		{"warnings", m.warnings, StyleWarning},
		{"errors", m.errors, StyleError},
	}
	for _, c := range counts {
		b.WriteString(tuiLabelStyle.Render(c.label) + c.style.Render(fmt.Sprint(c.n)) + "\n")
	}

	if len(m.tail) > 0 {
		b.WriteString("\n")
		for _, e := range m.tail {
			b.WriteString(eventLine(e) + "\n")
		}
	}
	b.WriteString("\n" + StyleDim.Render("q to cancel"))
	return tuiBoxStyle.Render(b.String()) + "\n"
}

func eventLine(e resolver.Event) string {
	switch e.Level {
	case resolver.LevelWarning:
		return styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(e.Message)
	case resolver.LevelError:
		return styleIconError.Render(iconError) + " " + StyleError.Render(e.Message)
	default:
		return styleIconInfo.Render(iconInfo) + " " + e.Message
	}
}

// resolveWithTUI resolves on a background run and renders its event stream.
// A cache hit skips the view entirely.
func resolveWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !opts.Refresh && !opts.NoCache {
		if res, ok := runner.Lookup(ctx, opts); ok {
			return res, nil
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	run := runner.Resolver.Go(ctx, opts.Root(), resolver.Options{SkipInnerDependencies: opts.SkipInner})
	p := tea.NewProgram(newResolveModel(opts.Root().String()), tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	go func() {
		for e := range run.Events() {
			p.Send(eventMsg(e))
		}
		out, err := run.Wait()
		p.Send(doneMsg{out: out, err: err})
	}()

	final, perr := p.Run()
	if m, ok := final.(resolveModel); ok && m.cancelled {
		cancel()
	}
	out, err := run.Wait()
	if err == nil && perr != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if out == nil {
		return nil, err
	}
	res := &pipeline.Result{Outcome: out, Stats: pipeline.Stats{ResolveTime: time.Since(start)}}
	if err != nil {
		return res, err
	}
	if !opts.NoCache {
		runner.Remember(ctx, opts, out)
	}
	return res, nil
}
