package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/picforge/pkg/buildinfo"
	"github.com/matzehuels/picforge/pkg/errors"
	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/pipeline"
	"github.com/matzehuels/picforge/pkg/tech"
	"github.com/matzehuels/picforge/pkg/verify"
)

// CellInfo describes a library cell.
type CellInfo struct {
	Library     string      `json:"library"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamInfo `json:"params,omitempty"`
}

// ParamInfo describes a cell parameter.
type ParamInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Description string `json:"description,omitempty"`
}

// BuildResponse is the result of POST /api/v1/build.
type BuildResponse struct {
	RunID      string             `json:"run_id"`
	Top        string             `json:"top"`
	DesignHash string             `json:"design_hash"`
	ErrorCount int                `json:"error_count"`
	Counts     map[string]int     `json:"counts,omitempty"`
	Report     *verify.Report     `json:"report"`
	GDS        []byte             `json:"gds"` // base64 in JSON
	Stats      pipeline.Stats     `json:"stats"`
	Cache      pipeline.CacheInfo `json:"cache"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	RunID string `json:"run_id,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"engine":  buildinfo.EngineVersion,
	})
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	var cells []CellInfo
	for _, lib := range pcell.Libraries() {
		for _, g := range lib.Cells {
			info := CellInfo{Library: lib.Name, Name: g.Name, Description: g.Description}
			for _, p := range g.Params {
				info.Params = append(info.Params, ParamInfo{
					Name:        p.Name,
					Type:        p.Type.String(),
					Default:     p.Default,
					Description: p.Description,
				})
			}
			cells = append(cells, info)
		}
	}
	writeJSON(w, http.StatusOK, cells)
}

func (s *Server) handleWaveguides(w http.ResponseWriter, r *http.Request) {
	wgs := make([]tech.Waveguide, 0, len(s.tech.Waveguides))
	for _, name := range s.tech.WaveguideNames() {
		wg, _ := s.tech.Waveguide(name)
		wgs = append(wgs, wg)
	}
	writeJSON(w, http.StatusOK, wgs)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := RunID(ctx)

	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, runID, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	opts.InMemory = true
	opts.Tech = s.tech
	opts.Logger = s.logger.With("run", runID)

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, runID, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildResponse{
		RunID:      runID,
		Top:        result.Design.Top.Name,
		DesignHash: result.DesignHash,
		ErrorCount: result.ErrorCount,
		Counts:     result.Report.Counts(),
		Report:     result.Report,
		GDS:        result.GDS,
		Stats:      result.Stats,
		Cache:      result.CacheInfo,
	})
}

func (s *Server) writeError(w http.ResponseWriter, runID string, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("build failed", "run", runID, "error", err)
	}
	writeJSON(w, status, ErrorResponse{RunID: runID, Code: string(code), Error: errors.UserMessage(err)})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeCellNotFound, errors.ErrCodeWaveguideNotFound, errors.ErrCodePinNotFound,
		errors.ErrCodeLayerNotFound, errors.ErrCodeRouteFailed, errors.ErrCodeVersionUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
