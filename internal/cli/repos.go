package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/pkg/repository"
)

// reposCommand manages the remote repository registry.
func (c *CLI) reposCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage remote repositories",
	}

	cmd.AddCommand(c.reposListCommand())
	cmd.AddCommand(c.reposAddCommand())
	cmd.AddCommand(c.reposRemoveCommand())
	cmd.AddCommand(c.reposResetCommand())
	cmd.AddCommand(c.reposPathCommand())

	return cmd
}

func (c *CLI) reposListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List remote repositories in search order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			if len(reg.Entries) == 0 && !c.config.MavenLocal {
				printInfo("No repositories configured; add one with %s", StyleHighlight.Render("haven repos add"))
				return nil
			}
			for _, e := range reg.Entries {
				printKeyValue(cmd.OutOrStdout(), e.Name, e.URL)
			}
			if c.config.MavenLocal {
				if dir, err := mavenHome(); err == nil {
					printKeyValue(cmd.OutOrStdout(), "maven-home", dir)
				}
			}
			return nil
		},
	}
}

func (c *CLI) reposAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a remote repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := repository.LoadRegistry(c.config.Repositories, repository.WithLogger(warnFunc(c.Logger)))
			if err != nil {
				return err
			}
			if err := reg.AddRemote(args[0], args[1]); err != nil {
				return err
			}
			if err := reg.Save(c.config.Repositories); err != nil {
				return err
			}
			printSuccess("Added %s", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func (c *CLI) reposRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Unregister a remote repository",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := repository.LoadRegistry(c.config.Repositories, repository.WithLogger(warnFunc(c.Logger)))
			if err != nil {
				return err
			}
			if err := reg.RemoveRemote(args[0]); err != nil {
				return err
			}
			if err := reg.Save(c.config.Repositories); err != nil {
				return err
			}
			printSuccess("Removed %s", StyleHighlight.Render(args[0]))
			if len(reg.Entries) == 0 {
				printWarning("no remote repositories left; only local repositories will be searched")
			}
			return nil
		},
	}
}

func (c *CLI) reposResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in repository list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := repository.Defaults()
			if err := repository.SaveRegistry(c.config.Repositories, defaults); err != nil {
				return err
			}
			printSuccess("Restored %d default repositories", len(defaults))
			printDetail("File: %s", c.config.Repositories)
			return nil
		},
	}
}

func (c *CLI) reposPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the registry file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.config.Repositories)
			return nil
		},
	}
}
