package cli

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/pipeline"
	"github.com/matzehuels/haven/pkg/storage"
)

func (c *CLI) fetchCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "fetch <declaration>",
		Short: "Resolve and download an artifact's runtime dependencies",
		Long: `Fetch resolves a declaration like "resolve" does and then makes the artifact
itself and every resolved dependency available on disk. Artifacts already present in a local repository are
used in place; others are downloaded into the cache directory.

With --format json the result is the list of libraries:

  [{"coordinate": {...}, "type": "jar", "path": "...", "repository": "...", "cached": false}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.format != pipeline.FormatText && flags.format != pipeline.FormatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be one of: text, json)", flags.format)
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

			prog := newProgress(loggerFromContext(ctx))
			if err := runner.Materialize(ctx, res); err != nil {
				return err
			}
			prog.done("Materialized artifacts")

			if err := writeLibraries(cmd, res.Libraries, &flags); err != nil {
				return err
			}
			return reportFetchFailures(res.LibraryFailures)
		},
	}

	flags.register(cmd, "text, json")
	return cmd
}

func writeLibraries(cmd *cobra.Command, libs []storage.Library, flags *resolveFlags) error {
	if libs == nil {
		libs = []storage.Library{}
	}
	var buf bytes.Buffer
	if flags.format == pipeline.FormatJSON {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(libs); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode libraries")
		}
	} else {
		writeLibrariesText(&buf, libs)
	}
	if err := emit(cmd.OutOrStdout(), flags.output, buf.Bytes()); err != nil {
		return err
	}

	cached := 0
	for _, l := range libs {
		if l.Cached {
			cached++
		}
	}
	printSuccess("%d libraries available (%d already local)", len(libs), cached)
	return nil
}

// reportFetchFailures prints one warning per failed artifact and returns
// an error when there were any.
func reportFetchFailures(failures []storage.Failure) error {
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		printWarning("%s: %s", f.Coordinate, f.Message)
	}
	return errors.New(errors.ErrCodeIO, "%d artifacts could not be fetched", len(failures))
}
