package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxBarWidth = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render produces a terminal rendering of the visualization. Bar charts and
// tables render fully; other kinds render as a one-line summary.
func Render(v Visualization) string {
	switch v.Kind {
	case KindBar:
		return renderBar(v.Bar)
	case KindTable:
		return renderTable(v.Table)
	case KindLine:
		return summarize("line chart", v.Line.Title, len(v.Line.Series))
	case KindPie:
		return summarize("pie chart", v.Pie.Title, len(v.Pie.Values))
	case KindScatter:
		return summarize("scatter plot", v.Scatter.Title, len(v.Scatter.X))
	default:
		return dimStyle.Render("[chart attached]")
	}
}

func summarize(kind, title string, n int) string {
	if title == "" {
		title = "untitled"
	}
	return dimStyle.Render(fmt.Sprintf("[%s: %s, %d series]", kind, title, n))
}

// renderBar draws horizontal bars scaled to the largest value.
func renderBar(c *BarChart) string {
	var lines []string
	if c.Title != "" {
		lines = append(lines, titleStyle.Render(c.Title))
	}

	maxVal := 0.0
	labelWidth := 0
	for i, label := range c.Labels {
		if i < len(c.Values) && c.Values[i] > maxVal {
			maxVal = c.Values[i]
		}
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
	}

	for i, label := range c.Labels {
		if i >= len(c.Values) {
			break
		}
		width := 0
		if maxVal > 0 {
			width = int(c.Values[i] / maxVal * maxBarWidth)
		}
		if width < 1 && c.Values[i] > 0 {
			width = 1
		}
		bar := barStyle.Render(strings.Repeat("█", width))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			labelStyle.Render(fmt.Sprintf("%*s", labelWidth, label)),
			bar,
			dimStyle.Render(formatValue(c.Values[i])),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderTable draws a column-aligned table.
func renderTable(t *Table) string {
	var lines []string
	if t.Title != "" {
		lines = append(lines, titleStyle.Render(t.Title))
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header []string
	for i, col := range t.Columns {
		header = append(header, fmt.Sprintf("%-*s", widths[i], col))
	}
	lines = append(lines, headerStyle.Render(strings.Join(header, "  ")))

	for _, row := range t.Rows {
		var cells []string
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		lines = append(lines, strings.Join(cells, "  "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
