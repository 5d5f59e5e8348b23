package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/barcoder/internal/identity"
	"github.com/dgallion1/barcoder/internal/pipeline"
	"github.com/dgallion1/barcoder/internal/state"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStamp(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	category, err := identity.ParseCategory(r.FormValue("category"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	base, err := identity.BaseID(s.now(), category)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var start int
	if v := strings.TrimSpace(r.FormValue("start")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "start must be a non-negative integer", http.StatusBadRequest)
			return
		}
		start = n
	} else {
		last := state.LoadOrEmpty(r.Context(), s.orchestrator.Runner().Store(), s.log)
		start = identity.SuggestStart(last, base)
	}

	stamped, err := s.orchestrator.Stamp(r.Context(), filename, data, base, start)
	if err != nil {
		s.stampError(w, stamped.Run, err)
		return
	}

	res := stamped.Result
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.OutputPath(filename)))
	w.Header().Set("X-Run-ID", res.RunID)
	w.Header().Set("X-Barcode-First", res.FirstIdentity)
	w.Header().Set("X-Barcode-Last", res.LastIdentity)
	if res.StateWarning != nil {
		w.Header().Set("X-State-Warning", res.StateWarning.Error())
	}
	w.WriteHeader(http.StatusOK)
	w.Write(stamped.PDF)
}

// stampError maps a failed run to a status code. Problems with the uploaded
// document or the requested range are the client's; everything else is ours.
func (s *Server) stampError(w http.ResponseWriter, run *pipeline.Run, err error) {
	code := http.StatusInternalServerError
	body := map[string]any{"error": err.Error()}

	var se *pipeline.StepError
	if errors.As(err, &se) {
		body["step"] = se.Step
		if se.Page > 0 {
			body["page"] = se.Page
		}
		switch se.Step {
		case pipeline.StepRead, pipeline.StepLayout, pipeline.StepIdentity:
			code = http.StatusUnprocessableEntity
		case pipeline.StepCanceled:
			code = http.StatusServiceUnavailable
		}
	}
	if run != nil {
		body["run_id"] = run.ID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.orchestrator.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
