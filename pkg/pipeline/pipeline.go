// Package pipeline provides the build pipeline shared by the CLI and the
// HTTP API.
//
// # Architecture
//
// The pipeline runs five stages in order:
//
//  1. Version: check the layout engine against the design's minimum
//  2. Build: assemble the layout (see package design)
//  3. Export: write the GDS stream, optionally a screenshot and a netlist
//  4. Verify: check the layout and write the report database
//  5. Preview: hand the files to a running KLayout (optional)
//
// The exported stream is cached by a key derived from the options, so a
// repeated build with the same inputs reuses the bytes of the first.
// Verification never fails the run; its error count is part of the result.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Designer: "Alice",
//	    Dir:      "submissions/scripts",
//	})
//	fmt.Printf("Number of errors: %d\n", result.ErrorCount)
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picforge/pkg/buildinfo"
	"github.com/matzehuels/picforge/pkg/cache"
	"github.com/matzehuels/picforge/pkg/design"
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/export"
	"github.com/matzehuels/picforge/pkg/klive"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/verify"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDesigner names the top cell when no designer is given.
	DefaultDesigner = "Designer"

	// DefaultRelativePath places the GDS file in the parent of the output
	// directory, next to the other submissions.
	DefaultRelativePath = ".."

	// DefaultExportType writes static cells for fabrication.
	DefaultExportType = string(export.TypeStatic)
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Designer     string `json:"designer"`
	ExportType   string `json:"export_type,omitempty"`
	RelativePath string `json:"relative_path,omitempty"`
	Name         string `json:"name,omitempty"` // output base name, defaults to the top cell
	DelayLine    bool   `json:"delay_line,omitempty"`
	Screenshot   bool   `json:"screenshot,omitempty"`
	Netlist      bool   `json:"netlist,omitempty"`
	Engine       string `json:"engine,omitempty"` // layout engine version override
	Refresh      bool   `json:"refresh,omitempty"`

	// Config replaces the default design configuration. Designer and
	// DelayLine still apply on top of it.
	Config *design.Config `json:"config,omitempty"`

	// Runtime options (not serialized)
	Dir        string           `json:"-"` // output directory, defaults to "."
	Show       bool             `json:"-"` // send the result to KLayout
	ViewerAddr string           `json:"-"`
	InMemory   bool             `json:"-"` // skip all file output
	Time       time.Time        `json:"-"` // GDS timestamp
	Tech       *tech.Technology `json:"-"`
	Logger     *log.Logger      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Design is the built layout.
	Design *design.Design `json:"-"`

	// DesignHash identifies the design inputs.
	DesignHash string `json:"design_hash"`

	// GDS is the exported stream.
	GDS []byte `json:"-"`

	// Files lists the written files; nil for in-memory runs.
	Files *export.Result `json:"files,omitempty"`

	// Report is the verification report and Lyrdb its file.
	Report     *verify.Report `json:"report"`
	Lyrdb      string         `json:"lyrdb,omitempty"`
	ErrorCount int            `json:"error_count"`

	// Viewer is the KLayout reply, or ViewerError why none was shown.
	Viewer      *klive.Reply `json:"viewer,omitempty"`
	ViewerError string       `json:"viewer_error,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo `json:"cache"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Cells       int           `json:"cells"`
	Instances   int           `json:"instances"`
	Bytes       int           `json:"bytes"`
	BuildTime   time.Duration `json:"build_time"`
	ExportTime  time.Duration `json:"export_time"`
	VerifyTime  time.Duration `json:"verify_time"`
	PreviewTime time.Duration `json:"preview_time,omitempty"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ExportHit bool `json:"export_hit"` // Whether the GDS stream came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Designer == "" && o.Config != nil {
		o.Designer = o.Config.Designer
	}
	if o.Designer == "" {
		o.Designer = DefaultDesigner
	}
	if o.ExportType == "" {
		o.ExportType = DefaultExportType
	}
	if _, err := export.ParseType(o.ExportType); err != nil {
		return err
	}
	if o.RelativePath == "" {
		o.RelativePath = DefaultRelativePath
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.Engine == "" {
		o.Engine = buildinfo.EngineVersion
	}
	if o.Tech == nil {
		o.Tech = tech.Default()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	cfg := o.DesignConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.Name == "" {
		o.Name = cfg.TopCellName()
	} else if err := errors.ValidateOutputName(o.Name); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// DesignConfig returns the design configuration the options describe.
// A non-empty Designer takes precedence over the one in Config.
func (o *Options) DesignConfig() design.Config {
	cfg := design.DefaultConfig(o.Designer)
	if o.Config != nil {
		cfg = *o.Config
		if o.Designer != "" {
			cfg.Designer = o.Designer
		}
	}
	if o.DelayLine {
		cfg.Delay.Enabled = true
	}
	return cfg
}

// DesignKeyOpts returns cache key options for the design.
func (o *Options) DesignKeyOpts() cache.DesignKeyOpts {
	cfg := o.DesignConfig()
	data, _ := json.Marshal(cfg)
	techData, _ := json.Marshal(o.Tech)
	return cache.DesignKeyOpts{
		Designer:      cfg.Designer,
		DelayLine:     cfg.Delay.Enabled,
		ConfigHash:    cache.Hash(data),
		TechHash:      cache.Hash(techData),
		EngineVersion: o.Engine,
	}
}

// ArtifactKeyOpts returns cache key options for an output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, ExportType: o.ExportType}
}

// ExportOptions returns the file export options.
func (o *Options) ExportOptions() export.Options {
	return export.Options{
		Dir:          o.Dir,
		RelativePath: o.RelativePath,
		Name:         o.Name,
		Type:         export.Type(o.ExportType),
		Screenshot:   o.Screenshot,
		Netlist:      o.Netlist,
		Time:         o.Time,
		Logger:       o.Logger,
	}
}

// IsVersionError reports whether err is the engine version guard.
func IsVersionError(err error) bool {
	return errors.Is(err, errors.ErrCodeVersionUnsupported)
}
