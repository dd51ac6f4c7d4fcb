package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return buf.Bytes()
}

func TestClientFetch(t *testing.T) {
	payload := pngBytes(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	c := NewClient(0)
	defer c.Close()

	got, err := c.Fetch(context.Background(), srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), len(got))
	}

	_, err = c.Fetch(context.Background(), srv.URL+"/missing.png")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound || fe.URL != srv.URL+"/missing.png" {
		t.Errorf("unexpected fetch error: %+v", fe)
	}
}

func TestClientFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	c := NewClient(0)
	c.maxBytes = 16
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected size error")
	}
}

func TestPreload(t *testing.T) {
	var calls atomic.Int32
	f := FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("img:" + url), nil
	})
	img := &content.ImageRun{Src: "https://example.test/a.png"}
	inline := &content.ImageRun{Src: "https://example.test/b.png", Data: content.Payload("kept")}
	sections := []*content.Section{{
		Headers: &content.HeaderFooter{Default: []content.Node{&content.Paragraph{Children: []content.Inline{img}}}},
		Children: []content.Node{
			&content.Paragraph{Children: []content.Inline{img, inline}},
		},
	}}

	out, err := Preload(context.Background(), f, sections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}
	body := out[0].Children[0].(*content.Paragraph).Children
	if got := string(body[0].(*content.ImageRun).Data); got != "img:https://example.test/a.png" {
		t.Errorf("unexpected payload %q", got)
	}
	if body[1] != inline {
		t.Error("expected image with data to be shared")
	}
	head := out[0].Headers.Default[0].(*content.Paragraph).Children[0].(*content.ImageRun)
	if len(head.Data) == 0 {
		t.Error("expected header image fetched")
	}
	if len(img.Data) != 0 {
		t.Error("expected input left unchanged")
	}
}

func TestPreloadPropagatesFetchError(t *testing.T) {
	f := FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		return nil, &FetchError{URL: url, StatusCode: 500, Status: "500 Internal Server Error"}
	})
	sections := []*content.Section{{Children: []content.Node{
		&content.Table{Rows: []*content.Row{{Cells: []*content.Cell{{Children: []content.Node{
			&content.Paragraph{Children: []content.Inline{&content.ImageRun{Src: "x"}}},
		}}}}}},
	}}}
	_, err := Preload(context.Background(), f, sections)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 500 {
		t.Fatalf("expected FetchError 500, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	native := pngBytes(t, 10, 5)
	got, err := Normalize(native)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, native) {
		t.Error("expected png to pass through")
	}

	for name, enc := range map[string]func(*bytes.Buffer) error{
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, testImage(10, 5)) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, testImage(10, 5), nil) },
	} {
		var buf bytes.Buffer
		if err := enc(&buf); err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		out, err := Normalize(buf.Bytes())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		w, h, format, err := Dimensions(out)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if format != "png" || w != 10 || h != 5 {
			t.Errorf("%s: expected 10x5 png, got %dx%d %s", name, w, h, format)
		}
	}

	if _, err := Normalize([]byte("not an image")); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestNormalizeDownscales(t *testing.T) {
	out, err := Normalize(pngBytes(t, MaxPixelWidth*2, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, h, _, err := Dimensions(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != MaxPixelWidth || h != 5 {
		t.Errorf("expected %dx5, got %dx%d", MaxPixelWidth, w, h)
	}
}

func TestBarcode(t *testing.T) {
	store := field.Map{"order": map[string]any{"id": "A-1001"}}

	qrPNG, err := Barcode(&content.Barcode{Format: content.BarcodeQR, Field: "order.id"}, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, h, format, err := Dimensions(qrPNG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != "png" || w != QRSize || h != QRSize {
		t.Errorf("expected %dx%d png, got %dx%d %s", QRSize, QRSize, w, h, format)
	}

	linear, err := Barcode(&content.Barcode{Format: content.BarcodeCode128, Content: "12345"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, h, _, _ := Dimensions(linear); h != Code128Height {
		t.Errorf("expected height %d, got %d", Code128Height, h)
	}

	empty, err := Barcode(&content.Barcode{Format: content.BarcodeQR, Field: "missing"}, store)
	if err != nil || empty != nil {
		t.Errorf("expected nil payload for empty value, got %d bytes, %v", len(empty), err)
	}

	if _, err := Barcode(&content.Barcode{Format: "ean13", Content: "1"}, nil); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestPrepare(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage(3, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code := &content.ImageRun{Barcode: &content.Barcode{Format: content.BarcodeQR, Field: "id"}}
	pic := &content.ImageRun{Data: content.Payload(buf.Bytes())}
	bad := &content.ImageRun{Data: content.Payload("junk")}
	sections := []*content.Section{{Children: []content.Node{
		&content.Paragraph{Children: []content.Inline{code, pic, bad}},
	}}}

	out := Prepare(sections, field.Map{"id": "X"}, nil)
	runs := out[0].Children[0].(*content.Paragraph).Children
	if _, _, format, err := Dimensions(runs[0].(*content.ImageRun).Data); err != nil || format != "png" {
		t.Errorf("expected barcode png, got %q %v", format, err)
	}
	if _, _, format, _ := Dimensions(runs[1].(*content.ImageRun).Data); format != "png" {
		t.Errorf("expected bmp converted to png, got %q", format)
	}
	if got := string(runs[2].(*content.ImageRun).Data); got != "junk" {
		t.Errorf("expected undecodable payload kept, got %q", got)
	}
	if len(code.Data) != 0 {
		t.Error("expected input left unchanged")
	}
}
