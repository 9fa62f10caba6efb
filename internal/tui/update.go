package tui

import (
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/httprelay/relaypoll/internal/animator"
	"github.com/httprelay/relaypoll/internal/config"
	"github.com/httprelay/relaypoll/internal/messages"
	"github.com/httprelay/relaypoll/internal/relay"
	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
	"github.com/httprelay/relaypoll/internal/view"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case animator.TickMsg:
		return m, m.coord.Update(msg)

	case relay.DoneMsg:
		if _, ok := m.coord.Complete(msg); !ok {
			return m, nil
		}
		m.syncBody()
		if m.headless {
			return m, tea.Quit
		}
		return m, nil

	case messages.SubmittedMsg:
		utils.Debug("Submission accepted, polling %s", msg.PendingURL)
		m.status = "submitted, pending at " + msg.PendingURL
		m.coord.SetTarget(msg.PendingURL)
		return m, m.coord.Refresh()

	case messages.SubmitErrorMsg:
		utils.Debug("Submission failed: %v", msg.Err)
		m.err = msg.Err
		m.view.RenderFinal(types.NewServerError(msg.Err.Error()))
		if m.headless {
			return m, tea.Quit
		}
		return m, nil

	case messages.ClipboardMsg:
		if msg.Err != nil {
			m.status = "copy failed: " + msg.Err.Error()
		} else {
			m.status = "copied " + msg.Text
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - ProgressBarWidthOffset*2
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}
		m.body.Width = msg.Width - ProgressBarWidthOffset*2
		m.body.Height = m.bodyHeight()
		return m, nil

	case tea.KeyMsg:
		if m.showSettings {
			return m.updateSettings(msg), nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Settings):
			m.showSettings = true
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			if m.coord.Target() == "" {
				m.status = "no target to refresh"
				return m, nil
			}
			m.status = ""
			m.err = nil
			return m, m.coord.Refresh()

		case key.Matches(msg, m.keys.Copy):
			text := m.view.Region(view.RegionFinalURL).Content
			if m.view.Mode() != view.Final || text == "" {
				m.status = "nothing to copy"
				return m, nil
			}
			return m, copyCmd(text)
		}
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

// updateSettings handles keys while the settings page is open
func (m RootModel) updateSettings(msg tea.KeyMsg) RootModel {
	switch {
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Settings), key.Matches(msg, m.keys.Quit):
		m.showSettings = false
	case key.Matches(msg, m.keys.Up):
		if m.settingsRow > 0 {
			m.settingsRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.settingsRow < m.settingsCount()-1 {
			m.settingsRow++
		}
	default:
		if tab, err := strconv.Atoi(msg.String()); err == nil && tab >= 1 && tab <= len(config.CategoryOrder()) {
			m.settingsTab = tab - 1
			m.settingsRow = 0
		}
	}
	return m
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return messages.ClipboardMsg{Text: text, Err: clipboard.WriteAll(text)}
	}
}

// syncBody loads the response region into the scrollable body
func (m *RootModel) syncBody() {
	content := bodyText(m.view)
	m.body.SetContent(content)
	m.body.GotoTop()
}

func (m RootModel) bodyHeight() int {
	if m.height == 0 {
		return BodyBoxMinLines
	}
	h := m.height - StatusBoxHeight - 8
	if h < BodyBoxMinLines {
		h = BodyBoxMinLines
	}
	return h
}

// bodyText returns what the body box shows for the current final state
func bodyText(v *view.Controller) string {
	if v.Failed() {
		return view.DescribeAs(v.Region(view.RegionOutcome).Content, v.ContentType())
	}
	return view.DescribeAs(v.Region(view.RegionResponse).Content, v.ContentType())
}

// percent converts a region width like "37%" to a progress ratio
func percent(width string) float64 {
	p, err := strconv.ParseFloat(strings.TrimSuffix(width, "%"), 64)
	if err != nil {
		return 0
	}
	return p / 100
}
