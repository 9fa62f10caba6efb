package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/httprelay/relaypoll/internal/config"
)

// viewSettings renders the read-only settings page
func (m RootModel) viewSettings() string {
	width := 70
	height := 14
	if m.width > 0 && m.width < width+4 {
		width = m.width - 4
	}

	categories := config.CategoryOrder()
	metadata := config.GetSettingsMetadata()

	// === TAB BAR ===
	var tabItems []string
	for i, cat := range categories {
		label := fmt.Sprintf("[%d] %s", i+1, cat)
		if i == m.settingsTab {
			tabItems = append(tabItems, ActiveTabStyle.Render(label))
		} else {
			tabItems = append(tabItems, TabStyle.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabItems...)

	currentCategory := categories[m.settingsTab]
	settingsMeta := metadata[currentCategory]
	values := settingsValues(m.settings, currentCategory)

	leftWidth := 22
	rightWidth := width - leftWidth - 5

	// === LEFT COLUMN: names ===
	var listLines []string
	for i, meta := range settingsMeta {
		if i == m.settingsRow {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorNeonPink).Bold(true).Render("> "+meta.Label))
		} else {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorLightGray).Render("  "+meta.Label))
		}
	}
	listBox := lipgloss.NewStyle().Width(leftWidth).Render(lipgloss.JoinVertical(lipgloss.Left, listLines...))

	separator := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Render(strings.TrimSuffix(strings.Repeat("│\n", len(settingsMeta)), "\n"))

	// === RIGHT COLUMN: value and description ===
	var rightContent string
	if m.settingsRow < len(settingsMeta) {
		meta := settingsMeta[m.settingsRow]
		valueDisplay := lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			Render("Value: " + formatSettingValue(values[meta.Key], meta.Type))
		descDisplay := lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Width(rightWidth - 2).
			Render(meta.Description)
		rightContent = valueDisplay + "\n\n" + descDisplay
	}
	rightBox := lipgloss.NewStyle().Width(rightWidth).PaddingLeft(1).Render(rightContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listBox, separator, rightBox)

	helpText := lipgloss.NewStyle().
		Foreground(ColorLightGray).
		Render("[1-3] Tab  [↑/↓] Select  [Esc] Close   " + truncateString(config.GetSettingsPath(), 30))

	fullContent := lipgloss.JoinVertical(lipgloss.Left, tabBar, "", content, "", helpText)
	return renderBtopBox("Settings", fullContent, width, height, ColorNeonPink)
}

// settingsValues returns setting key -> value for a category
func settingsValues(s *config.Settings, category string) map[string]any {
	values := make(map[string]any)
	if s == nil {
		return values
	}

	switch category {
	case "General":
		values["target_location"] = s.General.TargetLocation
		values["response_marker"] = s.General.ResponseMarker
		values["tick_interval"] = s.General.TickInterval
		values["theme"] = s.General.Theme
		values["log_retention_count"] = s.General.LogRetentionCount
	case "Network":
		values["server_url"] = s.Network.ServerURL
		values["user_agent"] = s.Network.UserAgent
		values["request_timeout"] = s.Network.RequestTimeout
	case "Server":
		values["port"] = s.Server.Port
		values["echo_delay"] = s.Server.EchoDelay
		values["max_body"] = s.Server.MaxBody
	}
	return values
}

// settingsCount returns the number of settings in the current category
func (m RootModel) settingsCount() int {
	return len(config.GetSettingsMetadata()[config.CategoryOrder()[m.settingsTab]])
}

// formatSettingValue formats a setting value for display
func formatSettingValue(value any, typ string) string {
	if value == nil {
		return "-"
	}

	switch typ {
	case "duration":
		if d, ok := value.(time.Duration); ok {
			if d == 0 {
				return "off"
			}
			return d.String()
		}
	case "int64":
		if v, ok := value.(int64); ok {
			return humanize.IBytes(uint64(v))
		}
	case "string":
		if s, ok := value.(string); ok {
			if s == "" {
				return "(default)"
			}
			return truncateString(s, 30)
		}
	}
	return fmt.Sprintf("%v", value)
}
