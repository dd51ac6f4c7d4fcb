package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/parser"
)

// handleImport converts an uploaded document (multipart field "file") to a
// template.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTemplateBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	imp, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxTemplateBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxTemplateBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxTemplateBytes), http.StatusRequestEntityTooLarge)
		return
	}

	tmpl, err := imp.Import(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "import failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if title := r.FormValue("title"); title != "" {
		tmpl.Properties.Title = title
	}
	s.writeTemplate(w, tmpl)
}

// handleImportMarkdown converts a raw markdown body. The optional filename
// query parameter supplies the title when the text has no level-1 heading.
func (s *Server) handleImportMarkdown(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTemplateBytes)

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "document.md"
	}
	tmpl, err := (&parser.MarkdownImporter{}).Import(r.Body, sanitizeFilename(filename))
	if err != nil {
		jsonError(w, "import failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.writeTemplate(w, tmpl)
}

func (s *Server) writeTemplate(w http.ResponseWriter, tmpl *content.Template) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tmpl); err != nil {
		s.log.Error("encode template", "error", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
