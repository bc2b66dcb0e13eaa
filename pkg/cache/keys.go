package cache

// Keyer derives cache keys.
type Keyer interface {
	// DesignKey identifies a built design by everything that shapes it.
	DesignKey(opts DesignKeyOpts) string

	// ArtifactKey identifies one output file of a design.
	ArtifactKey(designHash string, opts ArtifactKeyOpts) string
}

// DesignKeyOpts are the inputs that determine a design's geometry.
type DesignKeyOpts struct {
	Designer      string `json:"designer"`
	DelayLine     bool   `json:"delay_line"`
	ConfigHash    string `json:"config_hash,omitempty"`
	TechHash      string `json:"tech_hash,omitempty"`
	EngineVersion string `json:"engine_version"`
}

// ArtifactKeyOpts select an output of a design.
type ArtifactKeyOpts struct {
	Format     string `json:"format"` // gds, lyrdb, png, svg
	ExportType string `json:"export_type,omitempty"`
}

// DefaultKeyer hashes the options into "design:<sha256>" and
// "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DesignKey implements Keyer.
func (DefaultKeyer) DesignKey(opts DesignKeyOpts) string {
	return hashKey("design", opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(designHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", designHash, opts)
}
