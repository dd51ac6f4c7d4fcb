package content

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docweave/internal/units"
)

// Node and inline type discriminators.
const (
	TypeParagraph = "paragraph"
	TypeEmpty     = "empty"
	TypeTable     = "table"
	TypeText      = "text"
	TypeImage     = "image"
)

// DecodeError reports where in a template decoding failed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Format is a template encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromName picks the format from a file extension.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(data, FormatFromName(path))
}

// LoadFS reads a template from fsys.
func LoadFS(fsys fs.FS, name string) (*Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(data, FormatFromName(name))
}

// Parse decodes a template in the given format.
func Parse(data []byte, format Format) (*Template, error) {
	if format == FormatYAML {
		var err error
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}
	return Decode(data)
}

// yamlToJSON re-encodes YAML so both formats share one decoder.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml template: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml template: %w", err)
	}
	return out, nil
}

type rawTemplate struct {
	Properties Properties     `json:"properties"`
	Font       string         `json:"font"`
	Size       units.FontSize `json:"size"`
	Sections   []rawSection   `json:"sections"`
}

type rawSection struct {
	Properties SectionProperties `json:"properties"`
	Headers    *rawHeaderFooter  `json:"headers"`
	Footers    *rawHeaderFooter  `json:"footers"`
	Children   []json.RawMessage `json:"children"`
}

type rawHeaderFooter struct {
	Default []json.RawMessage `json:"default"`
	First   []json.RawMessage `json:"first"`
	Even    []json.RawMessage `json:"even"`
}

type rawNode struct {
	Type     string            `json:"type"`
	Options  json.RawMessage   `json:"options"`
	Children []json.RawMessage `json:"children"`
	Rows     []rawRow          `json:"rows"`
}

type rawRow struct {
	Options RowOptions `json:"options"`
	Cells   []rawCell  `json:"cells"`
}

type rawCell struct {
	Options  CellOptions       `json:"options"`
	Children []json.RawMessage `json:"children"`
}

// Decode parses a JSON template.
func Decode(data []byte) (*Template, error) {
	var raw rawTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Path: "$", Err: err}
	}
	t := &Template{
		Properties: raw.Properties,
		Font:       raw.Font,
		Size:       raw.Size,
		Sections:   make([]*Section, 0, len(raw.Sections)),
	}
	for i, rs := range raw.Sections {
		s, err := decodeSection(fmt.Sprintf("sections[%d]", i), rs)
		if err != nil {
			return nil, err
		}
		t.Sections = append(t.Sections, s)
	}
	return t, nil
}

// DecodeSection parses a single JSON section.
func DecodeSection(data []byte) (*Section, error) {
	var rs rawSection
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, &DecodeError{Path: "$", Err: err}
	}
	return decodeSection("section", rs)
}

func decodeSection(path string, rs rawSection) (*Section, error) {
	s := &Section{Properties: rs.Properties}
	var err error
	if s.Children, err = decodeNodes(path+".children", rs.Children); err != nil {
		return nil, err
	}
	if s.Headers, err = decodeHeaderFooter(path+".headers", rs.Headers); err != nil {
		return nil, err
	}
	if s.Footers, err = decodeHeaderFooter(path+".footers", rs.Footers); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeHeaderFooter(path string, raw *rawHeaderFooter) (*HeaderFooter, error) {
	if raw == nil {
		return nil, nil
	}
	h := &HeaderFooter{}
	var err error
	if h.Default, err = decodeNodes(path+".default", raw.Default); err != nil {
		return nil, err
	}
	if h.First, err = decodeNodes(path+".first", raw.First); err != nil {
		return nil, err
	}
	if h.Even, err = decodeNodes(path+".even", raw.Even); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeNodes(path string, raws []json.RawMessage) ([]Node, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	nodes := make([]Node, 0, len(raws))
	for i, r := range raws {
		n, err := decodeNode(fmt.Sprintf("%s[%d]", path, i), r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeNode(path string, data json.RawMessage) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	typ := raw.Type
	if typ == "" {
		switch {
		case raw.Rows != nil:
			typ = TypeTable
		case raw.Children != nil:
			typ = TypeParagraph
		default:
			typ = TypeEmpty
		}
	}

	switch typ {
	case TypeEmpty:
		return &EmptyParagraph{}, nil
	case TypeParagraph:
		p := &Paragraph{}
		if err := decodeOptions(raw.Options, &p.Options); err != nil {
			return nil, &DecodeError{Path: path + ".options", Err: err}
		}
		for i, c := range raw.Children {
			in, err := decodeInline(fmt.Sprintf("%s.children[%d]", path, i), c)
			if err != nil {
				return nil, err
			}
			p.Children = append(p.Children, in)
		}
		return p, nil
	case TypeTable:
		t := &Table{}
		if err := decodeOptions(raw.Options, &t.Options); err != nil {
			return nil, &DecodeError{Path: path + ".options", Err: err}
		}
		for ri, rr := range raw.Rows {
			row := &Row{Options: rr.Options}
			for ci, rc := range rr.Cells {
				children, err := decodeNodes(fmt.Sprintf("%s.rows[%d].cells[%d].children", path, ri, ci), rc.Children)
				if err != nil {
					return nil, err
				}
				row.Cells = append(row.Cells, &Cell{Options: rc.Options, Children: children})
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil
	default:
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("unknown node type %q", raw.Type)}
	}
}

func decodeOptions(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func decodeInline(path string, data json.RawMessage) (Inline, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	switch head.Type {
	case TypeText, "":
		r := &TextRun{}
		if err := json.Unmarshal(data, r); err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		if err := validateHTMLConfig(r.HTMLConfig); err != nil {
			return nil, &DecodeError{Path: path + ".htmlConfig", Err: err}
		}
		return r, nil
	case TypeImage:
		r := &ImageRun{}
		if err := json.Unmarshal(data, r); err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		if r.Barcode != nil {
			switch r.Barcode.Format {
			case BarcodeQR, BarcodeCode128:
			default:
				return nil, &DecodeError{Path: path + ".barcode", Err: fmt.Errorf("unknown barcode format %q", r.Barcode.Format)}
			}
		}
		return r, nil
	default:
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("unknown run type %q", head.Type)}
	}
}

func validateHTMLConfig(c *HTMLConfig) error {
	if c == nil {
		return nil
	}
	switch c.Type {
	case "":
		c.Type = ControlInput
	case ControlInput, ControlTextarea, ControlSelect:
	default:
		return fmt.Errorf("unknown control type %q", c.Type)
	}
	return nil
}

// Underline is an underline style. It decodes from true ("single"), false
// (""), a style string, or {"type": style}. An empty style disables underline.
type Underline string

func (u *Underline) UnmarshalJSON(b []byte) error {
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		if flag {
			*u = "single"
		} else {
			*u = ""
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "none" {
			s = ""
		}
		*u = Underline(s)
		return nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.New("underline must be a bool, a string or {\"type\": ...}")
	}
	if obj.Type == "" {
		obj.Type = "single"
	}
	*u = Underline(obj.Type)
	return nil
}

// Payload is image bytes; JSON carries it as base64 or a data: URI.
type Payload []byte

func (p *Payload) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("image data must be a base64 string: %w", err)
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return errors.New("malformed data URI")
		}
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode image data: %w", err)
	}
	*p = data
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(p))
}

func (p *Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	return marshalTyped(TypeParagraph, (*alias)(p))
}

func (*EmptyParagraph) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"empty"}`), nil
}

func (t *Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return marshalTyped(TypeTable, (*alias)(t))
}

func (r *TextRun) MarshalJSON() ([]byte, error) {
	type alias TextRun
	return marshalTyped(TypeText, (*alias)(r))
}

func (r *ImageRun) MarshalJSON() ([]byte, error) {
	type alias ImageRun
	return marshalTyped(TypeImage, (*alias)(r))
}

// marshalTyped writes v with a leading "type" member.
func marshalTyped(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.WriteString(fmt.Sprintf("%q", typ))
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}
