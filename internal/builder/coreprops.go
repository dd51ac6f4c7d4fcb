package builder

import (
	"bytes"
	"encoding/xml"
	"io/fs"
	"path"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docweave/internal/content"
)

const (
	templateName = "default"
	corePath     = "docProps/core.xml"
)

// withProperties points doc at the embedded default template, with
// docProps/core.xml replaced by one carrying props.
func withProperties(doc *docx.Docx, props content.Properties) *docx.Docx {
	fsys := overlayFS{
		base: docx.TemplateXMLFS,
		files: map[string][]byte{
			path.Join("xml", templateName, corePath): coreXML(props),
		},
	}
	return doc.UseTemplate(templateName, docx.DefaultTemplateFilesList, fsys)
}

func coreXML(p content.Properties) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	for _, el := range []struct{ tag, value string }{
		{"dc:title", p.Title},
		{"dc:subject", p.Subject},
		{"dc:creator", p.Creator},
		{"cp:keywords", p.Keywords},
		{"dc:description", p.Description},
		{"cp:lastModifiedBy", p.LastModifiedBy},
	} {
		if el.value == "" {
			continue
		}
		b.WriteString("<" + el.tag + ">")
		// Writes to a bytes.Buffer do not fail.
		_ = xml.EscapeText(&b, []byte(el.value))
		b.WriteString("</" + el.tag + ">")
	}
	b.WriteString(`</cp:coreProperties>`)
	return b.Bytes()
}

// overlayFS serves files from memory and falls back to base.
type overlayFS struct {
	base  fs.FS
	files map[string][]byte
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if data, ok := o.files[name]; ok {
		return &memFile{Reader: bytes.NewReader(data), name: path.Base(name)}, nil
	}
	return o.base.Open(name)
}

// memFile is both the open file and its FileInfo; Size comes from the
// embedded reader.
type memFile struct {
	*bytes.Reader
	name string
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Close() error               { return nil }

func (f *memFile) Name() string       { return f.name }
func (f *memFile) Mode() fs.FileMode  { return 0o444 }
func (f *memFile) ModTime() time.Time { return time.Time{} }
func (f *memFile) IsDir() bool        { return false }
func (f *memFile) Sys() any           { return nil }
