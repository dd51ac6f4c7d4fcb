package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docweave/internal/pipeline"
)

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	tmpl, data, req, err := s.decodeRenderRequest(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Format != "" && req.Format != "docx" {
		jsonError(w, "exports only produce docx", http.StatusBadRequest)
		return
	}

	filename := ""
	if req.Filename != "" {
		filename = sanitizeFilename(req.Filename)
	}
	job := pipeline.NewJob(filename, tmpl, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", fmt.Sprintf("/api/exports/%s", job.ID))
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       pipeline.StatusQueued,
		"poll_url":     fmt.Sprintf("/api/exports/%s", job.ID),
		"download_url": fmt.Sprintf("/api/exports/%s/download", job.ID),
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	job, err := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	data, err := job.Result()
	if errors.Is(err, pipeline.ErrNotReady) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap := job.Snapshot()
	etag := `"` + snap.ContentHash + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Filename))
	w.Header().Set("ETag", etag)
	w.Write(data)
}
