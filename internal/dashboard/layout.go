package dashboard

// Row places components side by side; Weights split the width.
type Row struct {
	Components []string
	Weights    []int
	MinHeight  int
	Grow       bool // receives leftover height
}

// Cell is a positioned component.
type Cell struct {
	ID   string
	X, Y int
	W, H int
}

type LayoutResult struct {
	Cells   []Cell
	Warning string
}

type Layout struct {
	rows     []Row
	registry *Registry
}

func NewLayout(rows []Row, registry *Registry) *Layout {
	return &Layout{rows: rows, registry: registry}
}

// Compute assigns every row its MinHeight, hands the remaining height to
// Grow rows, and splits each row's width by weight. A row whose minimum
// widths do not fit keeps only its first component.
func (l *Layout) Compute(width, height int) LayoutResult {
	var res LayoutResult
	heights := make([]int, len(l.rows))
	total, growers := 0, 0
	for i, r := range l.rows {
		heights[i] = r.MinHeight
		total += r.MinHeight
		if r.Grow {
			growers++
		}
	}
	if slack := height - total; slack > 0 && growers > 0 {
		per, rem := slack/growers, slack%growers
		for i, r := range l.rows {
			if !r.Grow {
				continue
			}
			heights[i] += per
			if rem > 0 {
				heights[i]++
				rem--
			}
		}
	}

	y := 0
	for i, r := range l.rows {
		ids, widths, warn := l.rowWidths(r, width)
		if warn != "" {
			res.Warning = warn
		}
		x := 0
		for j, id := range ids {
			res.Cells = append(res.Cells, Cell{ID: id, X: x, Y: y, W: widths[j], H: heights[i]})
			x += widths[j]
		}
		y += heights[i]
	}
	return res
}

func (l *Layout) rowWidths(r Row, width int) ([]string, []int, string) {
	if len(r.Components) == 0 {
		return nil, nil, ""
	}
	need := 0
	for _, id := range r.Components {
		need += l.minWidth(id)
	}
	if need > width {
		return r.Components[:1], []int{max(width, 1)}, "Some panels hidden (terminal too narrow)"
	}

	weights := r.Weights
	if len(weights) != len(r.Components) {
		weights = make([]int, len(r.Components))
		for i := range weights {
			weights[i] = 1
		}
	}
	sum := 0
	for _, w := range weights {
		sum += w
	}
	widths := make([]int, len(r.Components))
	used := 0
	for i, w := range weights {
		widths[i] = width * w / sum
		used += widths[i]
	}
	// rounding leftovers go to the last column
	widths[len(widths)-1] += width - used

	// raise columns below their minimum by borrowing from the widest
	for i, id := range r.Components {
		for widths[i] < l.minWidth(id) {
			j := widest(widths, i)
			if j < 0 || widths[j]-1 < l.minWidth(r.Components[j]) {
				break
			}
			widths[j]--
			widths[i]++
		}
	}
	return r.Components, widths, ""
}

func (l *Layout) minWidth(id string) int {
	if c := l.registry.Get(id); c != nil {
		return c.MinWidth()
	}
	return 20
}

func widest(widths []int, skip int) int {
	best := -1
	for i, w := range widths {
		if i != skip && (best < 0 || w > widths[best]) {
			best = i
		}
	}
	return best
}
