package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/builder"
	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/htmlsink"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// renderRequest is the body of the render, preview and export endpoints.
type renderRequest struct {
	Template json.RawMessage `json:"template"`
	Data     map[string]any  `json:"data"`
	Format   string          `json:"format"`
	Filename string          `json:"filename"`
}

// decodeRenderRequest reads and validates a render request. The returned
// message is safe to show to the client.
func (s *Server) decodeRenderRequest(w http.ResponseWriter, r *http.Request) (*content.Template, field.Map, renderRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTemplateBytes)

	var req renderRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, req, fmt.Errorf("request exceeds max size (%d bytes)", s.cfg.MaxTemplateBytes)
		}
		return nil, nil, req, fmt.Errorf("invalid json: %w", err)
	}
	if len(req.Template) == 0 || string(req.Template) == "null" {
		return nil, nil, req, fmt.Errorf("template is required")
	}

	tmpl, err := content.Decode(req.Template)
	if err != nil {
		return nil, nil, req, err
	}
	data := field.Map(req.Data)
	if data == nil {
		data = field.Map{}
	}
	return tmpl, data, req, nil
}

// newBuilder loads tmpl over the configured defaults and fetches remote
// images.
func (s *Server) newBuilder(ctx context.Context, tmpl *content.Template) (*builder.Builder, error) {
	b := builder.New(s.log).
		SetDefaultFont(s.cfg.DefaultFont).
		SetDefaultSize(s.cfg.DefaultSize).
		Load(tmpl)
	if s.fetcher == nil {
		return b, nil
	}
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	if err := b.Preload(ctx, s.fetcher); err != nil {
		return nil, err
	}
	return b, nil
}

// writeBuildError maps builder failures to status codes.
func writeBuildError(w http.ResponseWriter, err error) {
	var fetchErr *assets.FetchError
	if errors.As(err, &fetchErr) {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, err.Error(), http.StatusGatewayTimeout)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	tmpl, data, req, err := s.decodeRenderRequest(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.newBuilder(r.Context(), tmpl)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	switch strings.ToLower(req.Format) {
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, b.RenderPage(data))
	case "", "docx":
		var buf bytes.Buffer
		if err := b.RenderTo(&buf, data); err != nil {
			writeBuildError(w, err)
			return
		}
		filename := sanitizeFilename(req.Filename)
		if req.Filename == "" {
			filename = downloadName(tmpl.Properties.Title)
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(buf.Bytes())
	default:
		jsonError(w, fmt.Sprintf("unsupported format: %s", req.Format), http.StatusBadRequest)
	}
}

// handlePreview returns the document fragment with its stylesheet, ready to
// drop into a host page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	tmpl, data, _, err := s.decodeRenderRequest(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.newBuilder(r.Context(), tmpl)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	fragment := b.RenderHTML(data)
	if s.cfg.SanitizePreview {
		fragment = htmlsink.Sanitize(fragment)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<style id=%q>%s</style>%s", htmlsink.StyleID, htmlsink.Stylesheet, fragment)
}

func downloadName(title string) string {
	if title == "" {
		return "document.docx"
	}
	return sanitizeFilename(title) + ".docx"
}
