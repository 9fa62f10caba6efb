package relayserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/httprelay/relaypoll/internal/store"
)

// EchoPrefix starts every reply the echo responder writes.
const EchoPrefix = "echo: "

// Echo answers jobs itself after a fixed delay, standing in for an agent.
type Echo struct {
	store   *store.Store
	delay   time.Duration
	logger  zerolog.Logger
	onReply func()

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewEcho returns a responder replying after delay.
func NewEcho(st *store.Store, delay time.Duration, logger zerolog.Logger) *Echo {
	return &Echo{
		store:  st,
		delay:  delay,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arranges the reply for job id.
func (e *Echo) Schedule(id, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if _, ok := e.timers[id]; ok {
		return
	}
	e.wg.Add(1)
	e.timers[id] = time.AfterFunc(e.delay, func() {
		defer e.wg.Done()
		e.reply(id, msg)
	})
}

func (e *Echo) reply(id, msg string) {
	e.mu.Lock()
	delete(e.timers, id)
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}

	err := e.store.Reply(context.Background(), id, EchoPrefix+msg)
	switch {
	case err == nil:
		e.logger.Info().Str("id", id).Msg("echo reply stored")
		if e.onReply != nil {
			e.onReply()
		}
	case errors.Is(err, store.ErrAlreadyReplied):
		e.logger.Debug().Str("id", id).Msg("job answered before echo")
	default:
		e.logger.Error().Err(err).Str("id", id).Msg("echo reply failed")
	}
}

// Resume schedules replies for every job still waiting in the store.
func (e *Echo) Resume(ctx context.Context) error {
	ids, err := e.store.Pending(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		job, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		e.Schedule(job.ID, job.Message)
	}
	if len(ids) > 0 {
		e.logger.Info().Int("jobs", len(ids)).Msg("resumed pending jobs")
	}
	return nil
}

// Stop cancels scheduled replies and waits for running ones.
func (e *Echo) Stop() {
	e.mu.Lock()
	e.closed = true
	for id, t := range e.timers {
		if t.Stop() {
			e.wg.Done()
		}
		delete(e.timers, id)
	}
	e.mu.Unlock()
	e.wg.Wait()
}
