package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/food3d/curator/internal/diagnostics"
	"github.com/food3d/curator/internal/ui"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: "+m.errorMessage))
	}
	statusStyle := ui.StatusStyle
	if m.statusOK {
		statusStyle = ui.SuccessStyle
	}
	sections = append(sections, statusStyle.Render(m.statusText))
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	c := m.sess.Cursor()
	title := ui.TitleStyle.Render("food3d")
	class := fmt.Sprintf("class %d/%d %s", c.Class+1, m.sess.ClassCount(), ui.ValueStyle.Render(m.sess.ClassName()))

	pair := ui.DimStyle.Render("no pairs")
	if n := m.sess.PairCount(); n > 0 {
		pair = fmt.Sprintf("pair %d/%d", c.Pair+1, n)
	}
	return title + "  " + class + "  " + pair
}

func (m Model) renderMainContent() string {
	if m.frame == nil {
		return ui.DimStyle.Render(m.loadErr)
	}

	previewWidth := (m.width - 2) / 2
	if previewWidth > 64 {
		previewWidth = 64
	}

	rgb := lipgloss.JoinVertical(lipgloss.Left,
		ui.PanelTitleStyle.Render("RGB"),
		renderRGB(m.frame.RGB, previewWidth))
	depth := lipgloss.JoinVertical(lipgloss.Left,
		ui.PanelTitleStyle.Render("Depth"),
		renderDepth(m.frame.Depth, previewWidth))
	previews := lipgloss.JoinHorizontal(lipgloss.Top, rgb, "  ", depth)

	return strings.Join([]string{
		ui.DimStyle.Render(m.frame.Pair.ID()),
		previews,
		renderReport(m.frame.Report, m.width),
	}, "\n")
}

func renderReport(r diagnostics.Report, width int) string {
	field := func(label, value string) string {
		return ui.LabelStyle.Render(label) + " " + ui.ValueStyle.Render(value)
	}

	stats := strings.Join([]string{
		field("sharpness", fmt.Sprintf("%.2f", r.Sharpness)),
		field("depth min", fmt.Sprintf("%.3fm", r.Depth.Min)),
		field("max", fmt.Sprintf("%.3fm", r.Depth.Max)),
		field("mean", fmt.Sprintf("%.3fm", r.Depth.Mean)),
		field("valid", fmt.Sprintf("%.1f%%", r.Depth.ValidRatio*100)),
	}, "  ")

	cols := width - 2
	if cols > diagnostics.HistogramBins {
		cols = diagnostics.HistogramBins
	}
	hist := ui.HistogramStyle.Render(sparkline(r.Histogram.Rebin(cols)))
	axis := ui.DimStyle.Render(fmt.Sprintf("%.3fm … %.3fm", r.Histogram.Min, r.Histogram.Max))

	return strings.Join([]string{stats, hist, axis}, "\n")
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline draws one rune per count, scaled to the largest count
func sparkline(counts []int) string {
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}

	var b strings.Builder
	for _, c := range counts {
		if peak == 0 || c == 0 {
			b.WriteRune(' ')
			continue
		}
		i := c * (len(sparkLevels) - 1) / peak
		b.WriteRune(sparkLevels[i])
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var parts []string

	parts = append(parts, ui.FooterKeyStyle.Render("←/→")+ui.FooterDescStyle.Render(" Image"))
	parts = append(parts, ui.FooterKeyStyle.Render("↑/↓")+ui.FooterDescStyle.Render(" Class"))
	parts = append(parts, ui.FooterKeyStyle.Render("d")+ui.FooterDescStyle.Render(" Delete"))
	parts = append(parts, ui.FooterKeyStyle.Render("c")+ui.FooterDescStyle.Render(" Snapshot"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}
