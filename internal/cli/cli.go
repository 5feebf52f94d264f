// Package cli implements the haven command-line interface.
//
// Commands:
//   - resolve: compute the runtime dependency set of a coordinate
//   - fetch: resolve and download every artifact
//   - repos: manage the remote repository registry
//   - cache: inspect and clear the outcome cache
//   - serve: run the HTTP API
//
// All commands accept --verbose (-v) for debug logging and --config to
// point at a config.toml other than the XDG default. The logger travels in
// the command's context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/pkg/buildinfo"
	"github.com/matzehuels/haven/pkg/cache"
	"github.com/matzehuels/haven/pkg/pipeline"
	"github.com/matzehuels/haven/pkg/repository"
	"github.com/matzehuels/haven/pkg/storage"
)

// appName is used for directories and display.
const appName = "haven"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	config     Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with every subcommand
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "haven resolves Maven dependencies",
		Long: `haven resolves the transitive runtime dependencies of a Maven artifact from
local and remote repositories, and downloads them into a local cache.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))

			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "path to config.toml")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.reposCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// registry loads the remote list named by the config.
func (c *CLI) registry() (*repository.Registry, error) {
	var opts []repository.RegistryOption
	opts = append(opts, repository.WithLogger(warnFunc(c.Logger)))
	if c.config.DefaultRepositories {
		opts = append(opts, repository.WithDefaults())
	}
	return repository.LoadRegistry(c.config.Repositories, opts...)
}

// newSearcher builds the repository searcher described by the config.
// A non-zero timeout overrides fetch_timeout.
func (c *CLI) newSearcher(timeout time.Duration) (*repository.Searcher, error) {
	reg, err := c.registry()
	if err != nil {
		return nil, err
	}

	var locals []*repository.Local
	if c.config.MavenLocal {
		if dir, err := mavenHome(); err == nil {
			locals = append(locals, repository.NewLocal("maven-home", dir))
		}
	}

	fetchTimeout := c.config.FetchTimeout.Duration
	if timeout > 0 {
		fetchTimeout = timeout
	}

	return repository.NewSearcher(repository.Config{
		CacheRoot:    c.config.artifactsDir(),
		Locals:       locals,
		Remotes:      reg.Remotes(),
		FetchTimeout: fetchTimeout,
		Concurrency:  c.config.Concurrency,
		Logger:       warnFunc(c.Logger),
	})
}

// newCache opens the configured outcome cache. noCache selects the null
// cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.config.RedisURL != "" {
		return cache.NewRedisCache(ctx, c.config.RedisURL)
	}
	return cache.NewFileCache(c.config.outcomesDir())
}

// newRunner wires a pipeline runner for one command invocation.
func (c *CLI) newRunner(ctx context.Context, flags *resolveFlags) (*pipeline.Runner, error) {
	searcher, err := c.newSearcher(flags.timeout)
	if err != nil {
		return nil, err
	}
	oc, err := c.newCache(ctx, flags.noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(searcher, oc, nil, loggerFromContext(ctx))
	r.TTL = c.config.OutcomeTTL.Duration
	r.Store = storage.New(searcher, c.config.Concurrency)
	return r, nil
}
