package assets

import (
	"context"
	"log/slog"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
)

// Preload fetches every image that has a Src but no Data and returns a copy
// of the sections with the payloads filled in. Each URL is fetched once.
// The first failure is returned unchanged, so a *FetchError can be matched
// with errors.As.
func Preload(ctx context.Context, f Fetcher, sections []*content.Section) ([]*content.Section, error) {
	seen := map[string][]byte{}
	return content.MapImages(sections, func(img *content.ImageRun) (*content.ImageRun, error) {
		if img.Src == "" || len(img.Data) > 0 {
			return img, nil
		}
		data, ok := seen[img.Src]
		if !ok {
			var err error
			data, err = f.Fetch(ctx, img.Src)
			if err != nil {
				return nil, err
			}
			seen[img.Src] = data
		}
		cp := *img
		cp.Data = data
		return &cp, nil
	})
}

// Prepare resolves barcodes against store and normalises image payloads.
// It returns a copy; the input sections are shared by every render and are
// not modified. Barcodes that cannot be encoded and payloads that cannot be
// decoded are logged and left for the renderer to skip.
func Prepare(sections []*content.Section, store field.Store, log *slog.Logger) []*content.Section {
	if log == nil {
		log = slog.Default()
	}
	out, _ := content.MapImages(sections, func(img *content.ImageRun) (*content.ImageRun, error) {
		data := []byte(img.Data)
		if len(data) == 0 && img.Barcode != nil {
			var err error
			data, err = Barcode(img.Barcode, store)
			if err != nil {
				log.Warn("barcode skipped", "format", img.Barcode.Format, "error", err)
				return img, nil
			}
		}
		if len(data) == 0 {
			return img, nil
		}
		if norm, err := Normalize(data); err != nil {
			log.Warn("image not normalised", "src", img.Src, "error", err)
		} else {
			data = norm
		}
		cp := *img
		cp.Data = data
		return &cp, nil
	})
	return out
}
