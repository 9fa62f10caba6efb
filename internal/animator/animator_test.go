package animator

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httprelay/relaypoll/internal/view"
)

func widthValue(t *testing.T, v *view.Controller) int {
	t.Helper()
	w := v.Region(view.RegionProgress).Width
	n, err := strconv.Atoi(strings.TrimSuffix(w, "%"))
	require.NoError(t, err, "width %q", w)
	return n
}

func TestStart_InitialisesRun(t *testing.T) {
	v := view.NewController()
	a := New(v, time.Millisecond)

	cmd := a.Start()

	require.NotNil(t, cmd)
	assert.True(t, a.Running())
	assert.Equal(t, view.Busy, v.Mode())
	assert.Equal(t, "1%", v.Region(view.RegionProgress).Width)
	c, ok := a.Counter()
	require.True(t, ok)
	assert.Equal(t, Counter{Value: 1, Step: 8}, c)
}

func TestTick_MonotonicAndBounded(t *testing.T) {
	v := view.NewController()
	a := New(v, time.Millisecond)
	a.Start()

	prev := widthValue(t, v)
	ticks := 0
	for a.Running() {
		a.Tick()
		ticks++
		cur := widthValue(t, v)
		require.GreaterOrEqual(t, cur, prev, "tick %d", ticks)
		require.LessOrEqual(t, cur, 100, "tick %d", ticks)
		prev = cur
		require.Less(t, ticks, 100, "animation never self-terminated")
	}

	assert.Equal(t, "100%", v.Region(view.RegionProgress).Width)
	assert.Equal(t, ticks, a.Ticks())
	// 10 fast steps, 11 slow steps, 14 crawling steps.
	assert.Equal(t, 35, ticks)
}

func TestCounter_StepSchedule(t *testing.T) {
	c := Counter{Value: InitialValue, Step: InitialStep}
	for i := 0; i < 9; i++ {
		require.False(t, c.Advance())
	}
	assert.InDelta(t, 73.0, c.Value, 1e-9)
	assert.Equal(t, InitialStep, c.Step)

	c.Advance() // 81
	assert.Equal(t, SlowStep, c.Step)

	for c.Value <= CrawlAfter {
		c.Advance()
	}
	assert.Equal(t, CrawlStep, c.Step)

	for !c.Advance() {
	}
	assert.Equal(t, Max, c.Value)
	assert.Equal(t, "100%", c.Width())
}

func TestCounter_WidthRounds(t *testing.T) {
	assert.Equal(t, "82%", Counter{Value: 82.2}.Width())
	assert.Equal(t, "95%", Counter{Value: 94.6}.Width())
	assert.Equal(t, "1%", Counter{Value: 1}.Width())
}

func TestStop_Idempotent(t *testing.T) {
	v := view.NewController()
	a := New(v, time.Millisecond)

	a.Stop() // never started
	assert.False(t, a.Running())

	a.Start()
	a.Stop()
	a.Stop()
	assert.False(t, a.Running())
	_, ok := a.Counter()
	assert.False(t, ok)
}

func TestUpdate_IgnoresStaleTicks(t *testing.T) {
	v := view.NewController()
	a := New(v, time.Millisecond)
	a.Start()
	staleRun := a.Run()

	a.Start() // implicitly stops the first run
	require.Equal(t, staleRun+1, a.Run())

	cmd := a.Update(TickMsg{ID: a.ID(), Run: staleRun})
	assert.Nil(t, cmd)
	assert.Equal(t, "1%", v.Region(view.RegionProgress).Width)

	cmd = a.Update(TickMsg{ID: a.ID() + 1000, Run: a.Run()})
	assert.Nil(t, cmd)
	assert.Equal(t, "1%", v.Region(view.RegionProgress).Width)

	cmd = a.Update(TickMsg{ID: a.ID(), Run: a.Run()})
	assert.NotNil(t, cmd)
	assert.Equal(t, "9%", v.Region(view.RegionProgress).Width)
}

func TestUpdate_AfterStopIsNoop(t *testing.T) {
	v := view.NewController()
	a := New(v, time.Millisecond)
	a.Start()
	a.Update(TickMsg{ID: a.ID(), Run: a.Run()})
	a.Stop()

	cmd := a.Update(TickMsg{ID: a.ID(), Run: a.Run()})
	assert.Nil(t, cmd)
	assert.Equal(t, "9%", v.Region(view.RegionProgress).Width)
}

func TestUpdate_IgnoresOtherMessages(t *testing.T) {
	a := New(view.NewController(), time.Millisecond)
	a.Start()
	assert.Nil(t, a.Update("not a tick"))
}

func TestTickCommandCarriesRun(t *testing.T) {
	a := New(view.NewController(), time.Millisecond)
	cmd := a.Start()

	msg := cmd()
	tick, ok := msg.(TickMsg)
	require.True(t, ok)
	assert.Equal(t, a.ID(), tick.ID)
	assert.Equal(t, a.Run(), tick.Run)
}

func TestNew_DefaultInterval(t *testing.T) {
	a := New(view.NewController(), 0)
	assert.Equal(t, DefaultInterval, a.interval)
}
