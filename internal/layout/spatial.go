package layout

// Rect is an item's on-screen rectangle in caller-provided
// coordinates. The layout engine never measures geometry itself; rects
// flow in from whatever owns the render surface.
type Rect struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// RectOf resolves the current rectangle of an item by its original
// index. The second return is false when no geometry is known.
type RectOf func(index int) (Rect, bool)

// position locates an original index inside the column structure.
type position struct {
	col int
	row int
}

// Index answers "which item is above/below/left/right of index i" over
// a column layout. Every query is total: it returns a valid original
// index, or i itself at a boundary or on any lookup miss.
type Index struct {
	columns []Column
	pos     map[int]position
}

// NewIndex builds a spatial index from a column layout.
func NewIndex(columns []Column) *Index {
	pos := make(map[int]position)
	for c, column := range columns {
		for r, entry := range column.Entries {
			pos[entry.OriginalIndex] = position{col: c, row: r}
		}
	}
	return &Index{columns: columns, pos: pos}
}

// Above returns the index of the item directly above i in its column,
// or i when already at the top.
func (x *Index) Above(i int) int {
	p, ok := x.pos[i]
	if !ok || p.row == 0 {
		return i
	}
	return x.columns[p.col].Entries[p.row-1].OriginalIndex
}

// Below returns the index of the item directly below i in its column,
// or i when already at the bottom.
func (x *Index) Below(i int) int {
	p, ok := x.pos[i]
	if !ok {
		return i
	}
	entries := x.columns[p.col].Entries
	if p.row+1 >= len(entries) {
		return i
	}
	return entries[p.row+1].OriginalIndex
}

// LeftByRow returns the item at the same row ordinal in the column to
// the left, or i when there is no such column or row.
func (x *Index) LeftByRow(i int) int {
	return x.byRow(i, -1)
}

// RightByRow returns the item at the same row ordinal in the column to
// the right, or i when there is no such column or row.
func (x *Index) RightByRow(i int) int {
	return x.byRow(i, +1)
}

func (x *Index) byRow(i, dir int) int {
	p, ok := x.pos[i]
	if !ok {
		return i
	}
	c := p.col + dir
	if c < 0 || c >= len(x.columns) {
		return i
	}
	entries := x.columns[c].Entries
	if p.row >= len(entries) {
		return i
	}
	return entries[p.row].OriginalIndex
}

// LeftClosest returns the item in the column to the left whose
// rectangle overlaps i's the most vertically. Columns drift out of row
// sync as card heights vary, so geometric overlap tracks the visually
// adjacent card better than the shared row ordinal. It falls back to
// LeftByRow when geometry is incomplete.
func (x *Index) LeftClosest(i int, rectOf RectOf) int {
	return x.closest(i, -1, rectOf)
}

// RightClosest is LeftClosest mirrored to the right.
func (x *Index) RightClosest(i int, rectOf RectOf) int {
	return x.closest(i, +1, rectOf)
}

func (x *Index) closest(i, dir int, rectOf RectOf) int {
	p, ok := x.pos[i]
	if !ok {
		return i
	}
	c := p.col + dir
	if c < 0 || c >= len(x.columns) {
		return i
	}
	entries := x.columns[c].Entries
	if len(entries) == 0 {
		return i
	}
	if rectOf == nil {
		return x.byRow(i, dir)
	}
	cur, ok := rectOf(i)
	if !ok {
		return x.byRow(i, dir)
	}

	best := -1
	var bestOverlap float64
	for _, entry := range entries {
		r, ok := rectOf(entry.OriginalIndex)
		if !ok {
			// Geometry is incomplete for this column; the row
			// fallback is better than comparing a partial set.
			return x.byRow(i, dir)
		}
		overlap := verticalOverlap(cur, r)
		if best == -1 || overlap > bestOverlap {
			best = entry.OriginalIndex
			bestOverlap = overlap
		}
	}
	return best
}

func verticalOverlap(a, b Rect) float64 {
	top := a.Top
	if b.Top > top {
		top = b.Top
	}
	bottom := a.Bottom
	if b.Bottom < bottom {
		bottom = b.Bottom
	}
	if bottom < top {
		return 0
	}
	return bottom - top
}
