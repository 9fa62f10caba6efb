package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/httprelay/relaypoll/internal/animator"
	"github.com/httprelay/relaypoll/internal/config"
	"github.com/httprelay/relaypoll/internal/messages"
	"github.com/httprelay/relaypoll/internal/relay"
	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/view"
)

// Options configure a RootModel
type Options struct {
	Target   string // location a refresh fetches
	Server   string // relay base URL for submissions
	Message  string // submitted before the first refresh when set
	Marker   string
	Interval time.Duration

	// Headless quits the program once a run reaches a terminal state
	Headless bool

	// Settings shown on the settings page
	Settings *config.Settings
}

type RootModel struct {
	view   *view.Controller
	coord  *relay.Coordinator
	client *relay.Client

	server   string
	message  string
	headless bool

	progress progress.Model
	body     viewport.Model
	help     help.Model
	keys     KeyMap

	width  int
	height int
	status string // transient status line
	err    error  // submission failure

	// Settings page
	settings     *config.Settings
	showSettings bool
	settingsTab  int
	settingsRow  int
}

// NewRootModel wires the view, animator and coordinator for one target
func NewRootModel(client *relay.Client, opts Options) RootModel {
	if opts.Marker == "" {
		opts.Marker = config.DefaultMarker
	}
	v := view.NewController()
	a := animator.New(v, opts.Interval)
	return RootModel{
		view:     v,
		coord:    relay.NewCoordinator(client, a, v, opts.Marker, opts.Target),
		client:   client,
		server:   opts.Server,
		message:  opts.Message,
		headless: opts.Headless,
		progress: progress.New(progress.WithDefaultGradient()),
		body:     viewport.New(DefaultWidth-ProgressBarWidthOffset, BodyBoxMinLines),
		help:     help.New(),
		keys:     Keys,
		width:    DefaultWidth,
		settings: opts.Settings,
	}
}

func (m RootModel) Init() tea.Cmd {
	if m.message != "" {
		return submitCmd(m.client, m.server, m.message)
	}
	if m.coord.Target() != "" {
		return m.coord.Refresh()
	}
	return nil
}

func submitCmd(client *relay.Client, server, msg string) tea.Cmd {
	return func() tea.Msg {
		pending, err := client.Submit(context.Background(), server, msg)
		if err != nil {
			return messages.SubmitErrorMsg{Err: err}
		}
		return messages.SubmittedMsg{PendingURL: pending}
	}
}

// Regions returns the region controller
func (m RootModel) Regions() *view.Controller {
	return m.view
}

// Outcome returns the outcome of the last completed run
func (m RootModel) Outcome() (types.Outcome, bool) {
	return m.coord.Last()
}

// Err returns the submission error, if any
func (m RootModel) Err() error {
	return m.err
}

// Target returns the location a refresh fetches
func (m RootModel) Target() string {
	return m.coord.Target()
}
