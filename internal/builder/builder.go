// Package builder is the document facade: configure once, then render any
// number of times against different data bags.
package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/docxsink"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/htmlsink"
	"github.com/dgallion1/docweave/internal/render"
	"github.com/dgallion1/docweave/internal/units"
)

// Builder holds document properties, defaults and sections. Rendering only
// reads it, so one Builder may serve concurrent renders once configured.
type Builder struct {
	props       content.Properties
	defaults    render.Defaults
	sections    []*content.Section
	flowHeaders bool
	log         *slog.Logger
}

// New returns an empty Builder. Headers and footers flow into the body by
// default; see SetFlowHeaders.
func New(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{flowHeaders: true, log: log.With("component", "builder")}
}

func (b *Builder) SetProperties(p content.Properties) *Builder {
	b.props = p
	return b
}

func (b *Builder) SetDefaultFont(font string) *Builder {
	b.defaults.Font = font
	return b
}

func (b *Builder) SetDefaultSize(size units.FontSize) *Builder {
	b.defaults.Size = size
	return b
}

// SetFlowHeaders controls whether header and footer content is written into
// the docx body around each section. go-docx has no header parts, so with
// this off they only appear in the HTML output.
func (b *Builder) SetFlowHeaders(on bool) *Builder {
	b.flowHeaders = on
	return b
}

// AddSection appends a section; nil is ignored.
func (b *Builder) AddSection(s *content.Section) *Builder {
	if s != nil {
		b.sections = append(b.sections, s)
	}
	return b
}

// Load applies a decoded template: its properties replace the current ones,
// its font and size override the defaults when set, and its sections are
// appended.
func (b *Builder) Load(t *content.Template) *Builder {
	b.props = t.Properties
	if t.Font != "" {
		b.defaults.Font = t.Font
	}
	if !t.Size.IsZero() {
		b.defaults.Size = t.Size
	}
	for _, s := range t.Sections {
		b.AddSection(s)
	}
	return b
}

func (b *Builder) Properties() content.Properties { return b.props }
func (b *Builder) Defaults() render.Defaults       { return b.defaults }
func (b *Builder) Sections() []*content.Section    { return b.sections }

// Preload fetches remote images once so later renders embed them.
func (b *Builder) Preload(ctx context.Context, f assets.Fetcher) error {
	sections, err := assets.Preload(ctx, f, b.sections)
	if err != nil {
		return fmt.Errorf("preload images: %w", err)
	}
	b.sections = sections
	return nil
}

// Render builds a new docx document. Zero sections yields an empty document.
func (b *Builder) Render(store field.Store) (*docx.Docx, error) {
	sections := assets.Prepare(b.sections, store, b.log)
	doc := withProperties(docx.New(), b.props)
	sink := docxsink.New(doc, b.log)
	render.Walker{Store: store, Defaults: b.defaults}.Sections(sink, sections)
	docxsink.Assemble(doc, sink.Sections(), b.flowHeaders)
	b.log.Debug("rendered docx", "sections", len(sections))
	return doc, nil
}

// RenderHTML renders the document div without page chrome.
func (b *Builder) RenderHTML(store field.Store) string {
	return htmlsink.Render(b.renderHTMLRoot(store))
}

// RenderPage renders a complete HTML page with the stylesheet injected and
// the document title.
func (b *Builder) RenderPage(store field.Store) string {
	return htmlsink.Render(htmlsink.Page(b.renderHTMLRoot(store), b.props.Title))
}

func (b *Builder) renderHTMLRoot(store field.Store) *html.Node {
	sink := htmlsink.New()
	render.Walker{Store: store, Defaults: b.defaults}.Sections(sink, assets.Prepare(b.sections, store, b.log))
	return sink.Root()
}

// Pack writes doc as a .docx archive. go-docx errors are returned as is.
func (b *Builder) Pack(w io.Writer, doc *docx.Docx) error {
	_, err := doc.WriteTo(w)
	return err
}

// RenderTo renders and packs in one step.
func (b *Builder) RenderTo(w io.Writer, store field.Store) error {
	doc, err := b.Render(store)
	if err != nil {
		return err
	}
	return b.Pack(w, doc)
}
