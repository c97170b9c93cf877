// ABOUTME: Terminal report charts for contact counts by state and city
// ABOUTME: Renders proportional pie-style bars with a percentage legend
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/ringbook/models"
)

// ChartColors is the report palette, applied in order.
var ChartColors = []string{"#2715b0", "#180d6e", "#bdb5f4", "#7e6fea", "#5946e4"}

// Chart is report data shaped for rendering.
type Chart struct {
	Labels []string
	Counts []int
	Colors []string
	Total  int
}

// ChartData flattens buckets into parallel slices. Colors holds at most
// maxColors entries and never more than there are buckets.
func ChartData(buckets []models.ReportBucket, maxColors int) Chart {
	c := Chart{
		Labels: make([]string, 0, len(buckets)),
		Counts: make([]int, 0, len(buckets)),
	}
	for _, b := range buckets {
		c.Labels = append(c.Labels, b.Label)
		c.Counts = append(c.Counts, b.Count)
		if b.Count > 0 {
			c.Total += b.Count
		}
	}

	n := len(buckets)
	if maxColors < n {
		n = maxColors
	}
	if len(ChartColors) < n {
		n = len(ChartColors)
	}
	if n < 0 {
		n = 0
	}
	c.Colors = append([]string(nil), ChartColors[:n]...)
	return c
}

// colorAt cycles through the palette when there are more slices than colors.
func (c Chart) colorAt(i int) string {
	if len(c.Colors) == 0 {
		return ChartColors[i%len(ChartColors)]
	}
	return c.Colors[i%len(c.Colors)]
}

// Percent formats count/total with one decimal place.
func Percent(count, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
}

// Legend returns one "label: NN.N%" line per bucket.
func Legend(buckets []models.ReportBucket) []string {
	chart := ChartData(buckets, len(ChartColors))
	lines := make([]string, 0, len(buckets))
	for i, label := range chart.Labels {
		lines = append(lines, fmt.Sprintf("%s: %s", label, Percent(chart.Counts[i], chart.Total)))
	}
	return lines
}

// cells splits width into per-slice segment lengths using largest remainder,
// so the segments always add up to width.
func cells(counts []int, total, width int) []int {
	out := make([]int, len(counts))
	if total <= 0 || width <= 0 {
		return out
	}

	type rem struct {
		idx  int
		frac float64
	}
	var rems []rem
	used := 0
	for i, n := range counts {
		if n <= 0 {
			continue
		}
		exact := float64(n) * float64(width) / float64(total)
		out[i] = int(exact)
		used += out[i]
		rems = append(rems, rem{i, exact - float64(out[i])})
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; used < width && len(rems) > 0; i++ {
		out[rems[i%len(rems)].idx]++
		used++
	}
	return out
}

// RenderPie draws a titled proportional bar and legend for buckets.
func RenderPie(title string, buckets []models.ReportBucket, width int) string {
	var out strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ChartColors[0]))
	out.WriteString(titleStyle.Render(strings.ToUpper(title)))
	out.WriteString("\n")

	chart := ChartData(buckets, len(ChartColors))
	if chart.Total == 0 {
		out.WriteString("  No data\n")
		return out.String()
	}

	if width < 10 {
		width = 10
	}

	out.WriteString("  ")
	for i, n := range cells(chart.Counts, chart.Total, width) {
		if n == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(chart.colorAt(i)))
		out.WriteString(style.Render(strings.Repeat("█", n)))
	}
	out.WriteString("\n\n")

	for i, label := range chart.Labels {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(chart.colorAt(i))).Render("■")
		out.WriteString(fmt.Sprintf("  %s %s: %s (%d)\n",
			swatch, label, Percent(chart.Counts[i], chart.Total), chart.Counts[i]))
	}
	return out.String()
}

// RenderReport draws both reports one above the other.
func RenderReport(byState, byCity []models.ReportBucket, width int) string {
	var out strings.Builder
	out.WriteString(RenderPie("Contacts by state", byState, width))
	out.WriteString("\n")
	out.WriteString(RenderPie("Contacts by city", byCity, width))
	return out.String()
}
