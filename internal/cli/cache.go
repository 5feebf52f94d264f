package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/pkg/errors"
)

// cacheCommand manages cached outcomes and downloaded artifacts.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached outcomes and downloads",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var artifacts bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached resolution outcomes",
		Long: `Clear removes every cached resolution outcome. With --artifacts the downloaded
descriptors and artifacts under the cache directory are removed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			oc, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer oc.Close()

			if err := oc.Clear(ctx); err != nil {
				return errors.Wrap(errors.ErrCodeIO, err, "clear outcome cache")
			}
			printSuccess("Cleared cached outcomes")

			if artifacts {
				dir := c.config.artifactsDir()
				if err := os.RemoveAll(dir); err != nil {
					return errors.Wrap(errors.ErrCodeIO, err, "remove %s", dir)
				}
				printSuccess("Removed downloaded artifacts")
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "also remove downloaded descriptors and artifacts")
	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.config.CacheDir)
			return nil
		},
	}
}
