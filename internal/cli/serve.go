package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/internal/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build pipeline over HTTP",
		Long: `Serve the build pipeline over HTTP.

Endpoints:
  GET  /api/v1/health      version information
  GET  /api/v1/cells       library cells and their parameters
  GET  /api/v1/waveguides  waveguide types of the technology
  POST /api/v1/build       build a design from JSON options; the GDS
                           stream is returned base64-encoded

Builds never write files. Use --cache-url redis://... to share exported
streams between several servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	t, err := c.loadTech()
	if err != nil {
		return fmt.Errorf("load technology: %w", err)
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printKeyValue("Listening", StyleLink.Render("http://"+displayAddr(addr)+"/api/v1"))
	printKeyValue("Technology", t.Name)

	err = server.New(runner, t, c.Logger).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
