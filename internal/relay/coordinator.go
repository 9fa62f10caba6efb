package relay

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/httprelay/relaypoll/internal/animator"
	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
	"github.com/httprelay/relaypoll/internal/view"
)

// DoneMsg carries the single completion of a run's request.
type DoneMsg struct {
	Run      int
	Target   string
	Response types.Response
}

// Coordinator issues one request per run, keeps the progress animation going
// while it is outstanding, and hands the outcome to the view.
type Coordinator struct {
	client   Fetcher
	animator *animator.Animator
	view     *view.Controller
	marker   string
	target   string

	run      int
	inflight bool
	last     *types.Outcome
}

// NewCoordinator wires a coordinator. target is the ambient location Refresh fetches.
func NewCoordinator(client Fetcher, a *animator.Animator, v *view.Controller, marker, target string) *Coordinator {
	return &Coordinator{
		client:   client,
		animator: a,
		view:     v,
		marker:   marker,
		target:   target,
	}
}

// Target returns the location Refresh fetches.
func (c *Coordinator) Target() string {
	return c.target
}

// SetTarget changes the location Refresh fetches.
func (c *Coordinator) SetTarget(target string) {
	c.target = target
}

// Refresh starts a run against the ambient target.
func (c *Coordinator) Refresh() tea.Cmd {
	return c.Start(c.target)
}

// Start begins a run: the animation starts, then the request is issued.
// An outstanding run is superseded; its animation stops now and its
// completion is dropped when it arrives.
func (c *Coordinator) Start(target string) tea.Cmd {
	if c.inflight {
		utils.Debug("run %d superseded before completion", c.run)
	}
	c.run++
	c.inflight = true
	c.target = target
	c.last = nil

	anim := c.animator.Start()

	run, client := c.run, c.client
	fetch := func() tea.Msg {
		return DoneMsg{
			Run:      run,
			Target:   target,
			Response: client.Fetch(context.Background(), target),
		}
	}
	return tea.Batch(anim, fetch)
}

// Update routes animation ticks and request completions.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case animator.TickMsg:
		return c.animator.Update(msg)
	case DoneMsg:
		c.Complete(msg)
	}
	return nil
}

// Complete handles the completion of a run. It reports false for completions
// of superseded runs and duplicates, which change nothing.
func (c *Coordinator) Complete(msg DoneMsg) (types.Outcome, bool) {
	if msg.Run != c.run || !c.inflight {
		utils.Debug("dropping completion of run %d (current %d)", msg.Run, c.run)
		return types.Outcome{}, false
	}
	c.inflight = false

	// The bar must not keep animating behind the terminal view.
	c.animator.Stop()

	outcome := Classify(msg.Response, c.marker)
	utils.Debug("run %d finished: status=%d outcome=%s url=%s", msg.Run, msg.Response.StatusCode, outcome.Kind, msg.Response.FinalURL)

	switch outcome.Kind {
	case types.NetworkPending:
		c.view.SetMode(view.Pending)
	default:
		c.view.RenderFinal(outcome)
	}
	c.last = &outcome
	return outcome, true
}

// InFlight reports whether a request is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inflight
}

// Run returns the current run number.
func (c *Coordinator) Run() int {
	return c.run
}

// Last returns the outcome of the most recent completed run.
func (c *Coordinator) Last() (types.Outcome, bool) {
	if c.last == nil {
		return types.Outcome{}, false
	}
	return *c.last, true
}

// Animator returns the coordinator's animator.
func (c *Coordinator) Animator() *animator.Animator {
	return c.animator
}
