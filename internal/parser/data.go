package parser

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docweave/internal/field"
)

// DataExtensions lists the data bag formats LoadData accepts.
var DataExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".csv":  true,
}

// LoadData decodes a data bag for rendering. The format follows the file
// extension; anything unknown is read as JSON.
//
// A JSON or YAML document whose top level is a list is exposed as "rows".
// CSV input becomes {"columns": [...], "rows": [{header: cell}], "count": n}.
func LoadData(r io.Reader, filename string) (field.Map, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return loadCSV(r)
	case ".yaml", ".yml":
		var v any
		if err := yaml.NewDecoder(r).Decode(&v); err != nil {
			if err == io.EOF {
				return field.Map{}, nil
			}
			return nil, fmt.Errorf("parse yaml data: %w", err)
		}
		return dataMap(v)
	default:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			if err == io.EOF {
				return field.Map{}, nil
			}
			return nil, fmt.Errorf("parse json data: %w", err)
		}
		return dataMap(v)
	}
}

func dataMap(v any) (field.Map, error) {
	switch x := v.(type) {
	case nil:
		return field.Map{}, nil
	case map[string]any:
		return field.Map(x), nil
	case []any:
		return field.Map{"rows": x}, nil
	default:
		return nil, fmt.Errorf("data must be an object or a list, got %T", v)
	}
}

func loadCSV(r io.Reader) (field.Map, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return field.Map{"columns": []any{}, "rows": []any{}, "count": 0}, nil
	}

	// First row is headers.
	headers := records[0]
	columns := make([]any, len(headers))
	for i, h := range headers {
		columns[i] = h
	}

	rows := make([]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(headers))
		for j, cell := range rec {
			if j < len(headers) {
				row[headers[j]] = cell
			}
		}
		rows = append(rows, row)
	}
	return field.Map{"columns": columns, "rows": rows, "count": len(rows)}, nil
}
