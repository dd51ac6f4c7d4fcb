package content

// Inlines calls fn for every run in nodes, depth first in document order,
// descending into table cells. It stops at the first error.
func Inlines(nodes []Node, fn func(Inline) error) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Paragraph:
			for _, in := range n.Children {
				if err := fn(in); err != nil {
					return err
				}
			}
		case *EmptyParagraph:
		case *Table:
			for _, row := range n.Rows {
				for _, cell := range row.Cells {
					if err := Inlines(cell.Children, fn); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// SectionInlines visits the header, footer and body runs of a section.
func SectionInlines(s *Section, fn func(Inline) error) error {
	for _, hf := range []*HeaderFooter{s.Headers, s.Footers} {
		for _, slot := range Slots {
			if err := Inlines(hf.Get(slot), fn); err != nil {
				return err
			}
		}
	}
	return Inlines(s.Children, fn)
}

// MapImages returns a copy of the sections in which every image run has been
// replaced by fn's result. Sections, paragraphs, tables, rows and cells are
// copied; text runs and unchanged images are shared with the input, which is
// never modified.
func MapImages(sections []*Section, fn func(*ImageRun) (*ImageRun, error)) ([]*Section, error) {
	out := make([]*Section, len(sections))
	for i, s := range sections {
		cp := *s
		var err error
		if cp.Children, err = mapNodes(s.Children, fn); err != nil {
			return nil, err
		}
		if cp.Headers, err = mapHeaderFooter(s.Headers, fn); err != nil {
			return nil, err
		}
		if cp.Footers, err = mapHeaderFooter(s.Footers, fn); err != nil {
			return nil, err
		}
		out[i] = &cp
	}
	return out, nil
}

func mapHeaderFooter(h *HeaderFooter, fn func(*ImageRun) (*ImageRun, error)) (*HeaderFooter, error) {
	if h == nil {
		return nil, nil
	}
	cp := &HeaderFooter{}
	var err error
	if cp.Default, err = mapNodes(h.Default, fn); err != nil {
		return nil, err
	}
	if cp.First, err = mapNodes(h.First, fn); err != nil {
		return nil, err
	}
	if cp.Even, err = mapNodes(h.Even, fn); err != nil {
		return nil, err
	}
	return cp, nil
}

func mapNodes(nodes []Node, fn func(*ImageRun) (*ImageRun, error)) ([]Node, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch n := n.(type) {
		case *Paragraph:
			p := &Paragraph{Options: n.Options, Children: make([]Inline, len(n.Children))}
			for j, in := range n.Children {
				img, ok := in.(*ImageRun)
				if !ok {
					p.Children[j] = in
					continue
				}
				repl, err := fn(img)
				if err != nil {
					return nil, err
				}
				p.Children[j] = repl
			}
			out[i] = p
		case *EmptyParagraph:
			out[i] = n
		case *Table:
			t := &Table{Options: n.Options, Rows: make([]*Row, len(n.Rows))}
			for ri, row := range n.Rows {
				r := &Row{Options: row.Options, Cells: make([]*Cell, len(row.Cells))}
				for ci, cell := range row.Cells {
					children, err := mapNodes(cell.Children, fn)
					if err != nil {
						return nil, err
					}
					r.Cells[ci] = &Cell{Options: cell.Options, Children: children}
				}
				t.Rows[ri] = r
			}
			out[i] = t
		}
	}
	return out, nil
}
