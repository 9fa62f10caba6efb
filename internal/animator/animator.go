// Package animator drives the cosmetic progress bar shown while a request is
// outstanding. The percentage it shows is simulated and never reports real
// completion; only the request coordinator ends a run early.
package animator

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/httprelay/relaypoll/internal/utils"
	"github.com/httprelay/relaypoll/internal/view"
)

// Step schedule.
const (
	InitialValue = 1.0
	InitialStep  = 8.0
	SlowStep     = 1.2 // once value passes SlowAfter
	CrawlStep    = 0.4 // once value passes CrawlAfter
	SlowAfter    = 80.0
	CrawlAfter   = 93.0
	ClampAfter   = 99.0
	Max          = 100.0

	DefaultInterval = time.Second
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// TickMsg advances a run. Ticks carrying a stale run number are dropped,
// which is how a stopped timer is cancelled.
type TickMsg struct {
	ID   int
	Run  int
	Time time.Time
}

// Counter is the simulated completion percentage of one run.
type Counter struct {
	Value float64
	Step  float64
}

// Advance applies one step and reports whether the counter reached its clamp.
func (c *Counter) Advance() (clamped bool) {
	c.Value += c.Step
	if c.Value > SlowAfter {
		if c.Value > CrawlAfter {
			c.Step = CrawlStep
		} else {
			c.Step = SlowStep
		}
	}
	if c.Value > ClampAfter {
		c.Value = Max
		return true
	}
	return false
}

// Width formats the counter the way the progress region displays it.
func (c Counter) Width() string {
	return fmt.Sprintf("%d%%", int(math.Round(c.Value)))
}

// Animator owns at most one running counter.
type Animator struct {
	id       int
	run      int
	running  bool
	counter  *Counter
	interval time.Duration
	view     *view.Controller
	ticks    int
}

// New returns a stopped animator writing into v. A non-positive interval means DefaultInterval.
func New(v *view.Controller, interval time.Duration) *Animator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Animator{
		id:       nextID(),
		interval: interval,
		view:     v,
	}
}

// ID identifies the animator's tick messages.
func (a *Animator) ID() int {
	return a.id
}

// Start begins a new run and returns the command for its first tick.
// Any prior run is stopped first.
func (a *Animator) Start() tea.Cmd {
	a.Stop()

	a.run++
	a.ticks = 0
	a.counter = &Counter{Value: InitialValue, Step: InitialStep}
	a.view.SetProgress(a.counter.Value, a.counter.Step, a.counter.Width())
	a.view.SetMode(view.Busy)
	a.running = true
	utils.Debug("animation run %d started", a.run)

	return a.tick()
}

// Update handles a tick for the current run and returns the next tick, if any.
func (a *Animator) Update(msg tea.Msg) tea.Cmd {
	t, ok := msg.(TickMsg)
	if !ok || t.ID != a.id || t.Run != a.run || !a.running {
		return nil
	}
	if a.Tick() {
		return nil
	}
	return a.tick()
}

// Tick advances the running counter once and reports whether the run ended.
func (a *Animator) Tick() (stopped bool) {
	if !a.running {
		return true
	}
	a.ticks++
	clamped := a.counter.Advance()
	a.view.SetProgress(a.counter.Value, a.counter.Step, a.counter.Width())
	if clamped {
		utils.Debug("animation run %d clamped after %d ticks", a.run, a.ticks)
		a.Stop()
		return true
	}
	return false
}

// Stop cancels the running tick. Safe to call when stopped or never started.
func (a *Animator) Stop() {
	if !a.running {
		return
	}
	a.running = false
	a.counter = nil
	utils.Debug("animation run %d stopped after %d ticks", a.run, a.ticks)
}

// Running reports whether a run is active.
func (a *Animator) Running() bool {
	return a.running
}

// Run returns the current run number.
func (a *Animator) Run() int {
	return a.run
}

// Ticks returns the number of ticks applied in the current or last run.
func (a *Animator) Ticks() int {
	return a.ticks
}

// Counter returns a copy of the running counter.
func (a *Animator) Counter() (Counter, bool) {
	if a.counter == nil {
		return Counter{}, false
	}
	return *a.counter, true
}

func (a *Animator) tick() tea.Cmd {
	id, run := a.id, a.run
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, Run: run, Time: t}
	})
}
