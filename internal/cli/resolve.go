package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/pipeline"
	"github.com/matzehuels/haven/pkg/render"
)

// resolveFlags are shared by resolve and fetch.
type resolveFlags struct {
	skipInner bool
	format    string
	output    string
	tui       bool
	refresh   bool
	noCache   bool
	detailed  bool
	timeout   time.Duration
}

func (f *resolveFlags) register(cmd *cobra.Command, formats string) {
	cmd.Flags().BoolVar(&f.skipInner, "skip-inner", false, "only resolve the direct dependencies")
	cmd.Flags().StringVar(&f.format, "format", pipeline.FormatText, "output format ("+formats+")")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "show live progress while resolving")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore the cached outcome")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "neither read nor write the outcome cache")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-request fetch timeout (default from config)")
}

func (f *resolveFlags) options(declaration string) pipeline.Options {
	return pipeline.Options{
		Declaration: declaration,
		SkipInner:   f.skipInner,
		Refresh:     f.refresh,
		NoCache:     f.noCache,
	}
}

func (c *CLI) resolveCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve <declaration>",
		Short: "Resolve the runtime dependencies of an artifact",
		Long: `Resolve computes the transitive runtime dependency set of a Maven artifact.

The declaration may be a plain coordinate or a Gradle dependency line:

  haven resolve com.squareup.okhttp3:okhttp:4.12.0
  haven resolve "implementation 'androidx.core:core-ktx:1.12.0'"
  haven resolve 'implementation("io.ktor:ktor-client-core:2.3.7")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(flags.format); err != nil {
				return err
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, &flags)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := c.resolve(ctx, runner, flags.options(args[0]), flags.tui)
			if err != nil {
				return err
			}
			return c.writeOutcome(ctx, cmd.OutOrStdout(), res, &flags)
		},
	}

	flags.register(cmd, "text, json, dot, svg")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include types, scopes and skipped entries in dot/svg output")
	return cmd
}

// resolve runs the pipeline's resolve step, through the TUI when asked.
func (c *CLI) resolve(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, tui bool) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var (
		res *pipeline.Result
		err error
	)
	if tui {
		res, err = resolveWithTUI(ctx, runner, opts)
	} else {
		opts.Observer = eventLogger(logger)
		res, err = runner.Resolve(ctx, opts)
	}
	if err != nil {
		return res, err
	}

	prog.done("Resolved " + res.Outcome.Root.String())
	printStats(len(res.Outcome.Resolved), len(res.Outcome.Unresolved), res.CacheHit)
	if res.Outcome.Empty() {
		printWarning("%s", res.Outcome.Message)
	}
	return res, nil
}

func (c *CLI) writeOutcome(ctx context.Context, stdout io.Writer, res *pipeline.Result, flags *resolveFlags) error {
	var data []byte
	switch flags.format {
	case pipeline.FormatJSON:
		b, err := json.MarshalIndent(res.Outcome, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode outcome")
		}
		data = append(b, '\n')
	case pipeline.FormatDOT:
		data = []byte(render.ToDOT(res.Outcome, render.Options{Detailed: flags.detailed}))
	case pipeline.FormatSVG:
		svg, err := render.RenderSVG(ctx, render.ToDOT(res.Outcome, render.Options{Detailed: flags.detailed}))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		data = svg
	default:
		if flags.output == "" {
			writeOutcomeText(stdout, res.Outcome)
			return nil
		}
		var buf bytes.Buffer
		writeOutcomeText(&buf, res.Outcome)
		data = buf.Bytes()
	}
	return emit(stdout, flags.output, data)
}

// emit writes data to path, or to stdout when path is empty.
func emit(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	printFile(path)
	return nil
}
