// Package cli implements the picforge command-line interface.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/pkg/buildinfo"
	"github.com/matzehuels/picforge/pkg/cache"
	"github.com/matzehuels/picforge/pkg/pipeline"
	"github.com/matzehuels/picforge/pkg/tech"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "picforge"

	// defaultServeAddr is the listen address of the HTTP API.
	defaultServeAddr = ":8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// CacheURL selects the cache backend: empty for the XDG directory,
	// "none", a directory or a redis:// URL.
	CacheURL string

	// TechPath replaces the embedded EBeam technology.
	TechPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "picforge builds photonic MZI test layouts",
		Long:         `picforge builds a Mach-Zehnder interferometer test structure for the EBeam silicon nitride process, writes it as GDSII, checks it against the submission rules and hands it to KLayout for review.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.CacheURL, "cache-url", "", "cache backend: directory, redis://host:port/db or none (default: XDG cache dir)")
	root.PersistentFlags().StringVar(&c.TechPath, "tech", "", "technology TOML file (default: embedded EBeam)")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.techCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// openCache opens the configured cache. An unreachable Redis falls back to
// no caching with a warning.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled("--no-cache"), nil
	}
	cc, err := cache.Open(ctx, c.CacheURL)
	if errors.Is(err, cache.ErrUnavailable) {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.Disabled(err.Error()), nil
	}
	return cc, err
}

// loadTech returns the technology selected by --tech.
func (c *CLI) loadTech() (*tech.Technology, error) {
	if c.TechPath == "" {
		return tech.Default(), nil
	}
	return tech.Load(c.TechPath)
}
