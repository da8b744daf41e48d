package widgets

import (
	"math"
	"strings"
)

// VStack splits the height between its children.
type VStack struct {
	Widgets []Widget
	Spacing int
	Ratios  []float64
}

func (v VStack) Render(width, height int) string {
	if len(v.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	spacing := max(0, v.Spacing*(len(v.Widgets)-1))
	heights := Split(max(1, height-spacing), len(v.Widgets), v.Ratios)
	parts := make([]string, 0, len(v.Widgets)*2)
	for i, w := range v.Widgets {
		parts = append(parts, Fit(w.Render(width, max(1, heights[i])), width, max(1, heights[i])))
		if i < len(v.Widgets)-1 {
			for s := 0; s < v.Spacing; s++ {
				parts = append(parts, strings.Repeat(" ", width))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// HStack splits the width between its children. A child with a Fixed width
// gets exactly that many cells; the rest share what remains by ratio.
type HStack struct {
	Widgets []Widget
	Ratios  []float64
	Fixed   []int
	Gap     int
}

func (h HStack) Render(width, height int) string {
	if len(h.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	widths := h.widths(width)
	cols := make([][]string, len(h.Widgets))
	for i, w := range h.Widgets {
		if widths[i] <= 0 {
			continue
		}
		cols[i] = strings.Split(Fit(w.Render(widths[i], height), widths[i], height), "\n")
	}
	gap := strings.Repeat(" ", max(0, h.Gap))
	out := make([]string, height)
	for line := 0; line < height; line++ {
		row := make([]string, 0, len(cols))
		for i := range cols {
			if widths[i] <= 0 {
				continue
			}
			row = append(row, cols[i][line])
		}
		out[line] = strings.Join(row, gap)
	}
	return strings.Join(out, "\n")
}

func (h HStack) widths(total int) []int {
	n := len(h.Widgets)
	out := make([]int, n)
	visible := 0
	for i := 0; i < n; i++ {
		if i < len(h.Fixed) && h.Fixed[i] < 0 {
			continue
		}
		visible++
	}
	usable := max(0, total-max(0, h.Gap*(visible-1)))

	var flex []int
	var ratios []float64
	for i := 0; i < n; i++ {
		if i < len(h.Fixed) && h.Fixed[i] != 0 {
			out[i] = min(max(0, h.Fixed[i]), usable)
			usable -= out[i]
			continue
		}
		flex = append(flex, i)
		if i < len(h.Ratios) {
			ratios = append(ratios, h.Ratios[i])
		}
	}
	if len(ratios) != len(flex) {
		ratios = nil
	}
	for j, w := range Split(max(0, usable), len(flex), ratios) {
		out[flex[j]] = w
	}
	return out
}

// Split divides total into n parts following ratios, or evenly when ratios
// do not match n. Rounding leftovers go to the first parts.
func Split(total, n int, ratios []float64) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	if len(ratios) != n {
		for i := range out {
			out[i] = total / n
		}
		for i := 0; i < total%n; i++ {
			out[i]++
		}
		return out
	}
	sum := 0.0
	for _, r := range ratios {
		sum += math.Max(r, 0)
	}
	if sum == 0 {
		return Split(total, n, nil)
	}
	used := 0
	for i, r := range ratios {
		out[i] = int(math.Floor(math.Max(r, 0) / sum * float64(total)))
		used += out[i]
	}
	for i := 0; used < total; i = (i + 1) % n {
		out[i]++
		used++
	}
	return out
}
