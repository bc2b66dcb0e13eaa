package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picforge/pkg/cache"
	"github.com/matzehuels/picforge/pkg/design"
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/export"
	"github.com/matzehuels/picforge/pkg/klive"
	"github.com/matzehuels/picforge/pkg/observability"
	"github.com/matzehuels/picforge/pkg/verify"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, caching is disabled.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.Disabled("no cache configured")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete version → build → export → verify → preview
// pipeline. Only the first three stages can fail the run.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Version
	if err := design.CheckEngine(opts.Engine); err != nil {
		return nil, err
	}

	// Stage 2: Build
	d, err := r.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	result := &Result{Design: d}
	result.DesignHash = r.Keyer.DesignKey(opts.DesignKeyOpts())
	result.Stats.Cells = len(d.Layout.Cells())
	result.Stats.Instances = len(d.Top.Instances)

	// Stage 3: Export
	if err := r.Export(ctx, d, opts, result); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	// Stage 4: Verify
	r.Verify(ctx, d, opts, result)

	// Stage 5: Preview
	if opts.Show {
		r.Preview(ctx, opts, result)
	}
	return result, nil
}

// Build assembles the design.
func (r *Runner) Build(ctx context.Context, opts Options) (*design.Design, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, opts.Designer)
	d, err := design.Build(opts.DesignConfig(), design.Options{
		Engine: opts.Engine,
		Tech:   opts.Tech,
		Logger: opts.Logger,
	})
	cells := 0
	if d != nil {
		cells = len(d.Layout.Cells())
	}
	observability.Pipeline().OnBuildComplete(ctx, opts.Designer, cells, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("built layout",
		"top", d.Top.Name,
		"cells", cells,
		"duration", time.Since(start))
	return d, nil
}

// Export encodes the layout, reusing a cached stream when the design
// inputs are unchanged, and writes the files unless the run is in memory.
func (r *Runner) Export(ctx context.Context, d *design.Design, opts Options, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	observability.Pipeline().OnExportStart(ctx, opts.ExportType)
	typ := export.Type(opts.ExportType)
	key := r.Keyer.ArtifactKey(result.DesignHash, opts.ArtifactKeyOpts("gds"))

	reason, disabled := cache.IsDisabled(r.Cache)
	if disabled {
		opts.Logger.Debug("cache disabled", "reason", reason)
	}

	var data []byte
	if !opts.Refresh && !disabled {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			data = cached
			export.Prepare(d.Top, typ)
			result.CacheInfo.ExportHit = true
			observability.Cache().OnCacheHit(ctx, "gds")
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		}
	}
	if data == nil {
		if !disabled {
			observability.Cache().OnCacheMiss(ctx, "gds")
		}
		encoded, removed, err := export.Encode(d.Top, typ, opts.Time)
		if err != nil {
			observability.Pipeline().OnExportComplete(ctx, opts.ExportType, 0, time.Since(start), err)
			return err
		}
		data = encoded
		opts.Logger.Debug("encoded layout", "bytes", len(data), "removed", removed)
		if !disabled {
			if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
				opts.Logger.Warn("cache write failed", "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "gds", len(data))
			}
		}
	}
	result.GDS = data
	result.Stats.Bytes = len(data)

	if !opts.InMemory {
		eo := opts.ExportOptions()
		eo.Data = data
		files, err := export.Export(d.Top, eo)
		if err != nil {
			observability.Pipeline().OnExportComplete(ctx, opts.ExportType, len(data), time.Since(start), err)
			return err
		}
		result.Files = files
	}
	result.Stats.ExportTime = time.Since(start)
	observability.Pipeline().OnExportComplete(ctx, opts.ExportType, len(data), result.Stats.ExportTime, nil)
	return nil
}

// Verify checks the layout and writes <Dir>/<Name>.lyrdb. A report that
// cannot be written is logged, not returned.
func (r *Runner) Verify(ctx context.Context, d *design.Design, opts Options, result *Result) {
	start := time.Now()
	rep := verify.Check(d.Top, verify.Options{})
	result.Report = rep
	result.ErrorCount = rep.ErrorCount()
	result.Stats.VerifyTime = time.Since(start)
	observability.Pipeline().OnVerifyComplete(ctx, result.ErrorCount, result.Stats.VerifyTime)

	if !opts.InMemory {
		path := filepath.Join(opts.Dir, opts.Name+".lyrdb")
		if err := rep.WriteLyrdb(path); err != nil {
			opts.Logger.Error("write report", "path", path, "error", err)
		} else {
			result.Lyrdb = path
		}
	}
	for _, name := range rep.CategoryNames() {
		opts.Logger.Debug("verification", "category", name, "count", rep.Counts()[name])
	}
	opts.Logger.Info("verified layout", "errors", result.ErrorCount, "duration", result.Stats.VerifyTime)
}

// Preview hands the written files to KLayout. A missing viewer is a
// warning.
func (r *Runner) Preview(ctx context.Context, opts Options, result *Result) {
	if result.Files == nil {
		result.ViewerError = "nothing written to preview"
		return
	}
	start := time.Now()
	gds, _ := filepath.Abs(result.Files.GDS)
	lyrdb := ""
	if result.Lyrdb != "" {
		lyrdb, _ = filepath.Abs(result.Lyrdb)
	}

	client := klive.New(opts.ViewerAddr)
	client.Logger = opts.Logger
	reply, err := client.Show(ctx, klive.Request{GDS: gds, Lyrdb: lyrdb, Technology: opts.Tech.Name})
	result.Stats.PreviewTime = time.Since(start)
	result.Viewer = reply
	if err != nil {
		result.ViewerError = errors.UserMessage(err)
		opts.Logger.Warn("layout not shown", "reason", result.ViewerError)
		return
	}
	opts.Logger.Info("opened layout in viewer", "addr", client.Addr)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
