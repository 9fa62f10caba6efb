package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/httprelay/relaypoll/internal/view"
)

func (m RootModel) View() string {
	if m.showSettings {
		return AppStyle.Render(m.viewSettings())
	}

	width := m.width - HeaderWidthOffset*2
	if width < MinBoxWidth {
		width = MinBoxWidth
	}

	target := m.coord.Target()
	if target == "" {
		target = "(no target)"
	}
	sections := []string{
		HeaderStyle.Width(width).Render("relaypoll"),
		StatsStyle.Render(truncateString(target, MaxURLDisplay)),
	}

	// Only visible regions are drawn
	if m.view.Region(view.RegionPending).Visible {
		sections = append(sections, m.renderPending(width))
	}
	if m.view.Region(view.RegionBusy).Visible {
		sections = append(sections, m.renderBusy(width))
	}
	if m.view.Region(view.RegionFinal).Visible {
		sections = append(sections, m.renderFinal(width))
	}

	if m.status != "" {
		sections = append(sections, StatusStyle.Render(m.status))
	}
	sections = append(sections, lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys)))

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m RootModel) renderPending(width int) string {
	var content string
	switch {
	case m.coord.Target() == "":
		content = PendingStyle.Render("Nothing to poll yet.") + "\n" +
			lipgloss.NewStyle().Foreground(ColorLightGray).Render("Pass a URL or --message to start.")
	case m.view.Mode() == view.Idle:
		content = PendingStyle.Render("Not checked yet.") + "\n" +
			lipgloss.NewStyle().Foreground(ColorLightGray).Render("Press r to check the relay.")
	default:
		content = PendingStyle.Render("The relay is still working on it.") + "\n" +
			lipgloss.NewStyle().Foreground(ColorLightGray).Render("Press r to check again.")
	}
	return renderBtopBox("Pending", content, width, StatusBoxHeight-1, ColorWarning)
}

func (m RootModel) renderBusy(width int) string {
	bar := m.view.Region(view.RegionProgress)
	content := BusyStyle.Render(fmt.Sprintf("Waiting for the relay... %s", bar.Width))
	if bar.Visible {
		p := m.progress
		p.Width = width - ProgressBarWidthOffset
		content += "\n" + p.ViewAs(percent(bar.Width))
	}
	return renderBtopBox("Working", content, width, StatusBoxHeight-1, ColorNeonCyan)
}

func (m RootModel) renderFinal(width int) string {
	var lines []string
	if u := m.view.Region(view.RegionFinalURL).Content; u != "" {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			LabelStyle.Render("Result:"),
			FinalURLStyle.Render(truncateString(u, width-14)),
		))
	}
	if m.view.Failed() {
		lines = append(lines, OutcomeStyle.Bold(true).Render("The relay returned an error:"))
	}
	lines = append(lines, "", m.body.View())

	content := strings.Join(lines, "\n")
	color := ColorSuccess
	if m.view.Failed() {
		color = ColorError
	}
	return renderBtopBox("Result", content, width, lipgloss.Height(content)+2, color)
}

func truncateString(s string, i int) string {
	if i < 4 {
		i = 4
	}
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i-3]) + "..."
	}
	return s
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// ╭─ TITLE ─────────────────────────────────╮
// Boxes grow to fit their content when height is too small.
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.Color) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	border := lipgloss.NewStyle().Foreground(borderColor)
	titleText := lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true).Render(fmt.Sprintf(" %s ", title))
	remainingWidth := innerWidth - lipgloss.Width(titleText) - 1
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topBorder := border.Render(topLeft+horizontal) + titleText + border.Render(strings.Repeat(horizontal, remainingWidth)+topRight)
	bottomBorder := border.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	contentLines := strings.Split(content, "\n")
	innerHeight := height - 2
	if innerHeight < len(contentLines) {
		innerHeight = len(contentLines)
	}

	wrapped := make([]string, 0, innerHeight)
	for i := 0; i < innerHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		// Pad or truncate to the inner width
		if w := lipgloss.Width(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		} else if w > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		wrapped = append(wrapped, border.Render(vertical)+line+border.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		topBorder,
		strings.Join(wrapped, "\n"),
		bottomBorder,
	)
}
