// Package view owns the named display regions and the mutually exclusive
// pending/busy/final modes.
package view

import (
	"fmt"

	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
)

// Mode is the visible top-level state.
type Mode int

const (
	Idle Mode = iota // before the first refresh; the pending region shows
	Pending
	Busy
	Final
)

func (m Mode) String() string {
	switch m {
	case Pending:
		return "pending"
	case Busy:
		return "busy"
	case Final:
		return "final"
	default:
		return "idle"
	}
}

// Region names.
const (
	RegionPending  = "pending"
	RegionBusy     = "busy"
	RegionFinal    = "final"
	RegionProgress = "progress"
	RegionFinalURL = "final_url"
	RegionResponse = "response"
	RegionOutcome  = "outcome"
)

// Region is one named area of the display.
type Region struct {
	Name    string
	Visible bool

	// progress only
	Width string
	N     float64
	Delta float64

	// final_url, response, outcome
	Content string
}

// Controller holds the fixed region set. It is not safe for concurrent use;
// all calls happen on the program's event loop.
type Controller struct {
	regions map[string]*Region
	mode    Mode
	failed  bool
	ctype   string
}

// NewController builds the region set in its initial state: pending shown,
// busy and final hidden.
func NewController() *Controller {
	c := &Controller{regions: make(map[string]*Region)}
	for _, name := range []string{RegionPending, RegionBusy, RegionFinal, RegionProgress, RegionFinalURL, RegionResponse, RegionOutcome} {
		c.regions[name] = &Region{Name: name}
	}
	c.regions[RegionPending].Visible = true
	c.regions[RegionProgress].Visible = true
	c.regions[RegionProgress].Width = "0%"
	return c
}

// Region returns the region called name. Unknown names panic.
func (c *Controller) Region(name string) *Region {
	r, ok := c.regions[name]
	if !ok {
		panic(fmt.Sprintf("view: no region %q", name))
	}
	return r
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// SetMode shows exactly one of pending, busy and final.
func (c *Controller) SetMode(mode Mode) {
	var target string
	switch mode {
	case Pending:
		target = RegionPending
	case Busy:
		target = RegionBusy
	case Final:
		target = RegionFinal
	default:
		panic(fmt.Sprintf("view: cannot set mode %v", mode))
	}

	if mode == Final {
		c.show(RegionPending, false)
		c.show(RegionBusy, false)
	} else {
		for _, other := range []string{RegionPending, RegionBusy, RegionFinal} {
			if other != target {
				c.show(other, false)
			}
		}
	}
	c.show(target, true)
	c.mode = mode
}

func (c *Controller) show(name string, display bool) {
	val := "none"
	if display {
		val = "inherit"
	}
	utils.Debug("Setting display of %s to: %s", name, val)
	c.Region(name).Visible = display
}

// RenderFinal writes the outcome into its region and switches to Final.
// NetworkPending is not terminal and switches to Pending instead.
func (c *Controller) RenderFinal(outcome types.Outcome) {
	switch outcome.Kind {
	case types.NetworkPending:
		c.SetMode(Pending)
		return
	case types.Redirected:
		c.Region(RegionFinalURL).Content = outcome.FinalURL
		c.Region(RegionResponse).Content = outcome.Body
		c.Region(RegionOutcome).Content = ""
		c.failed = false
	case types.ServerError:
		c.Region(RegionFinalURL).Content = ""
		c.Region(RegionResponse).Content = ""
		c.Region(RegionOutcome).Content = outcome.Body
		c.failed = true
	}
	c.ctype = outcome.ContentType
	c.SetMode(Final)
}

// Failed reports whether the last final render was a ServerError. The outcome
// region alone cannot tell, since an error may carry an empty body.
func (c *Controller) Failed() bool {
	return c.failed
}

// ContentType returns the declared media type of the last final render.
func (c *Controller) ContentType() string {
	return c.ctype
}

// SetProgress writes the progress bar's width and animation fields.
func (c *Controller) SetProgress(n, delta float64, width string) {
	p := c.Region(RegionProgress)
	p.N = n
	p.Delta = delta
	p.Width = width
}
