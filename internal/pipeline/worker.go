package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/builder"
	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/units"
)

// Worker renders export jobs to docx bytes.
type Worker struct {
	fetcher      assets.Fetcher
	log          *slog.Logger
	defaultFont  string
	defaultSize  units.FontSize
	fetchTimeout time.Duration
	stats        *ExportStats
}

func NewWorker(fetcher assets.Fetcher, log *slog.Logger, font string, size units.FontSize, fetchTimeout time.Duration) *Worker {
	return &Worker{
		fetcher:      fetcher,
		log:          log,
		defaultFont:  font,
		defaultSize:  size,
		fetchTimeout: fetchTimeout,
	}
}

// Process runs the fetch, render and pack phases for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	if w.stats != nil {
		defer func() {
			w.stats.Record(time.Since(start), job.Snapshot().Status == StatusFailed)
		}()
	}

	tmpl, data := job.inputs()
	if tmpl == nil {
		job.Fail("queued", fmt.Errorf("job has no template"))
		return
	}
	job.SetCounts(len(tmpl.Sections), countImages(tmpl.Sections))

	b := builder.New(log).
		SetDefaultFont(w.defaultFont).
		SetDefaultSize(w.defaultSize).
		Load(tmpl)

	// Phase 1: Fetch remote images
	if w.fetcher != nil {
		job.SetStatus(StatusFetching, "fetching")
		fetchCtx := ctx
		if w.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, w.fetchTimeout)
			defer cancel()
		}
		if err := b.Preload(fetchCtx, w.fetcher); err != nil {
			log.Error("image fetch failed", "error", err)
			job.Fail("fetching", err)
			return
		}
	}

	// Phase 2: Render
	job.SetStatus(StatusRendering, "rendering")
	var store field.Store = field.Map{}
	if data != nil {
		store = data
	}
	doc, err := b.Render(store)
	if err != nil {
		log.Error("render failed", "error", err)
		job.Fail("rendering", err)
		return
	}

	// Phase 3: Pack
	job.SetStatus(StatusPacking, "packing")
	var buf bytes.Buffer
	if err := b.Pack(&buf, doc); err != nil {
		log.Error("pack failed", "error", err)
		job.Fail("packing", err)
		return
	}

	job.Complete(buf.Bytes())
	log.Info("export complete", "bytes", buf.Len(), "duration", time.Since(start))
}

// countImages counts image runs across bodies, headers and footers.
func countImages(sections []*content.Section) int {
	n := 0
	var nodes func([]content.Node)
	nodes = func(list []content.Node) {
		for _, node := range list {
			switch x := node.(type) {
			case *content.Paragraph:
				for _, in := range x.Children {
					if _, ok := in.(*content.ImageRun); ok {
						n++
					}
				}
			case *content.Table:
				for _, row := range x.Rows {
					for _, cell := range row.Cells {
						nodes(cell.Children)
					}
				}
			}
		}
	}
	for _, sec := range sections {
		if sec == nil {
			continue
		}
		nodes(sec.Children)
		for _, slot := range content.Slots {
			nodes(sec.Headers.Get(slot))
			nodes(sec.Footers.Get(slot))
		}
	}
	return n
}
