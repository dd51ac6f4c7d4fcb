package assets

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
)

// Barcode image sizes in pixels.
const (
	QRSize        = 256
	Code128Height = 80
	code128Module = 3
)

// Barcode renders spec as a PNG. The encoded text is the resolved Field, or
// Content when the field is missing. An empty value yields nil and no error:
// the image is left out like any other resolution miss.
func Barcode(spec *content.Barcode, store field.Store) ([]byte, error) {
	value := field.Resolve(store, spec.Field, spec.Content)
	if value == "" {
		return nil, nil
	}

	var (
		bc  barcode.Barcode
		err error
	)
	switch spec.Format {
	case content.BarcodeQR:
		bc, err = qr.Encode(value, qr.M, qr.Auto)
		if err == nil {
			bc, err = barcode.Scale(bc, QRSize, QRSize)
		}
	case content.BarcodeCode128:
		bc, err = code128.Encode(value)
		if err == nil {
			bc, err = barcode.Scale(bc, bc.Bounds().Dx()*code128Module, Code128Height)
		}
	default:
		return nil, fmt.Errorf("unsupported barcode format %q", spec.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s barcode: %w", spec.Format, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bc); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
