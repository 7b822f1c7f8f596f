// Package gate implements the lock decision engine: a two-state machine
// that combines wall-clock time, the configured daily window, and the
// assigned person's completion state into a locked/unlocked decision.
//
// All mutable state is owned by the engine's run loop (see loop.go);
// the methods in this file are the serialized core and must only be
// reached from that loop.
package gate

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mwhitt-dev/latchkey/internal/config"
	"github.com/mwhitt-dev/latchkey/internal/journal"
	"github.com/mwhitt-dev/latchkey/internal/roster"
)

// State is the gate's lock state.
type State string

const (
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// Locker is the side-effect surface the presentation adapter provides:
// make the device's interactive surfaces unavailable, or restore them.
// Both calls must be idempotent; the engine avoids redundant calls but
// does not guarantee their absence.
type Locker interface {
	Lock()
	Unlock()
}

// Store is the persistence surface the engine depends on. It is
// satisfied by *journal.Store; tests substitute fakes.
type Store interface {
	SaveEntries([]journal.Entry) error
	LoadEntries() ([]journal.Entry, error)
	AssignedPerson() (string, error)
	SetAssignedPerson(name string) error
	LaunchAtStartup() (bool, error)
	SetLaunchAtStartup(enabled bool) error
	CleanShutdown() (clean bool, present bool, err error)
	SetCleanShutdown(clean bool) error
}

// Engine is the lock decision engine. Construct with New, then drive it
// with Run; every other exported method posts onto the run loop.
type Engine struct {
	cfg    config.Config
	roster *roster.Roster
	store  Store // nil disables persistence (degraded, never fatal)
	locker Locker
	logger *slog.Logger

	log      *journal.Log
	assigned string
	state    State
	applied  bool // false until the first decision reaches the locker

	requests chan func()
	stopped  chan struct{} // closed when Run exits

	subMu sync.Mutex
	subs  []chan State

	windowWarned bool
}

// New builds an engine, restoring the journal, the assignment, and the
// crash flag from the store. Persistence failures degrade to defaults
// and are logged, never returned: the gate must come up regardless.
func New(cfg config.Config, r *roster.Roster, store Store, locker Locker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("configuration problem", "error", err)
	}

	e := &Engine{
		cfg:      cfg,
		roster:   r,
		store:    store,
		locker:   locker,
		logger:   logger,
		log:      journal.NewLog(nil),
		requests: make(chan func()),
		stopped:  make(chan struct{}),
	}

	now := timeNow()
	e.restoreJournal(now)
	e.detectCrash(now)
	e.restoreAssignment()

	if store != nil {
		if err := store.SetCleanShutdown(false); err != nil {
			logger.Warn("recording session start failed", "error", err)
		}
	}
	return e
}

// restoreJournal loads persisted entries and prunes them once.
func (e *Engine) restoreJournal(now time.Time) {
	if e.store == nil {
		return
	}
	entries, err := e.store.LoadEntries()
	if err != nil {
		e.logger.Warn("journal load failed, starting empty", "error", err)
		entries = nil
	}
	e.log = journal.NewLog(entries)
	e.log.Prune(now, e.cfg.Retention())
}

// detectCrash appends a synthetic entry when the previous session did
// not mark a clean shutdown. A first run (flag absent) is not a crash.
func (e *Engine) detectCrash(now time.Time) {
	if e.store == nil {
		return
	}
	clean, present, err := e.store.CleanShutdown()
	if err != nil {
		e.logger.Warn("reading shutdown flag failed", "error", err)
		return
	}
	if present && !clean {
		e.logger.Info("previous session ended unexpectedly")
		e.log.Append(journal.NewEntry(journal.SystemCrashName, now))
		e.log.Prune(now, e.cfg.Retention())
		e.persistAsync()
	}
}

// restoreAssignment picks up the persisted assignment, if any.
func (e *Engine) restoreAssignment() {
	if e.store == nil {
		return
	}
	name, err := e.store.AssignedPerson()
	if err != nil {
		e.logger.Warn("reading assignment failed", "error", err)
		return
	}
	e.assigned = name
}

// evaluate is the transition function. It refreshes time-dependent state
// first, then decides:
//
//	outside the window          -> unlocked, unconditionally
//	in window, nobody assigned  -> locked (fail safe)
//	in window, completed today  -> unlocked
//	in window, stale completion -> clear it, re-instantiate, locked
//	in window, not completed    -> locked
func (e *Engine) evaluate(now time.Time) State {
	e.roster.EnsureTodayTasks(now)

	if !e.inWindow(now) {
		return e.setState(StateUnlocked)
	}

	p := e.roster.FindByName(e.assigned)
	if p == nil {
		if e.assigned != "" {
			// Invariant violation: assignment names nobody we know.
			e.logger.Debug("assigned person not in roster", "name", e.assigned)
		}
		return e.setState(StateLocked)
	}

	if p.LastCompletedDate != nil {
		if roster.SameDay(*p.LastCompletedDate, now) {
			return e.setState(StateUnlocked)
		}
		// Stale marker from an earlier day, e.g. the window was
		// re-entered before any rollover was observed.
		p.ClearCompletion()
		e.roster.EnsureTodayTasks(now)
		return e.setState(StateLocked)
	}

	return e.setState(StateLocked)
}

// inWindow applies the half-open [StartHour, EndHour) hour comparison.
// A misconfigured window never matches; that is a configuration error,
// logged once, not a crash.
func (e *Engine) inWindow(now time.Time) bool {
	if !e.cfg.WindowValid() {
		if !e.windowWarned {
			e.logger.Warn("lock window never matches",
				"start_hour", e.cfg.StartHour, "end_hour", e.cfg.EndHour)
			e.windowWarned = true
		}
		return false
	}
	h := now.Hour()
	return e.cfg.StartHour <= h && h < e.cfg.EndHour
}

// setState records a decision, applies the lock side effect on change,
// and notifies subscribers. Redundant decisions are absorbed here.
func (e *Engine) setState(s State) State {
	if e.applied && s == e.state {
		return s
	}
	e.state = s
	e.applied = true

	if e.locker != nil {
		switch s {
		case StateLocked:
			e.locker.Lock()
		case StateUnlocked:
			e.locker.Unlock()
		}
	}
	e.logger.Info("gate state changed", "state", string(s))
	e.notify(s)
	return s
}

// notify pushes the new state to every subscriber without blocking the
// loop; a subscriber that has fallen behind misses intermediate states.
func (e *Engine) notify(s State) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// markCurrentPersonDone records a completion for the assigned person.
// Whether every task is actually checked off is the caller's contract;
// the engine only records and re-decides.
func (e *Engine) markCurrentPersonDone(now time.Time) error {
	p := e.roster.FindByName(e.assigned)
	if p == nil {
		return fmt.Errorf("no person assigned")
	}

	done := now
	p.LastCompletedDate = &done
	e.log.Append(journal.NewEntry(p.Name, now))
	e.log.Prune(now, e.cfg.Retention())
	e.persistAsync()
	e.evaluate(now)
	return nil
}

// assign changes the device's current person and re-decides. An empty
// name clears the assignment.
func (e *Engine) assign(name string, now time.Time) {
	e.assigned = name
	if e.store != nil {
		if err := e.store.SetAssignedPerson(name); err != nil {
			e.logger.Warn("persisting assignment failed", "error", err)
		}
	}
	e.evaluate(now)
}

// setTask toggles one of today's tasks and re-decides.
func (e *Engine) setTask(personName, taskID string, done bool, now time.Time) error {
	e.roster.EnsureTodayTasks(now)
	p := e.roster.FindByName(personName)
	if p == nil {
		return fmt.Errorf("unknown person %q", personName)
	}
	if !p.SetTask(taskID, done) {
		return fmt.Errorf("unknown task %q for %q", taskID, personName)
	}
	e.evaluate(now)
	return nil
}

// setTemplates applies an admin edit; the next instantiation pass inside
// evaluate notices the divergence and rebuilds today's checklist.
func (e *Engine) setTemplates(personName string, weekday, weekend []string, now time.Time) error {
	p := e.roster.FindByName(personName)
	if p == nil {
		return fmt.Errorf("unknown person %q", personName)
	}
	p.SetTemplates(weekday, weekend)
	e.evaluate(now)
	return nil
}

// persistAsync mirrors the in-memory journal to the store without ever
// blocking a lock decision. Failures are logged and swallowed.
func (e *Engine) persistAsync() {
	if e.store == nil {
		return
	}
	entries := e.log.Entries()
	go func() {
		if err := e.store.SaveEntries(entries); err != nil {
			e.logger.Warn("journal persist failed", "error", err)
		}
	}()
}

// shutdown marks the session cleanly ended.
func (e *Engine) shutdown() {
	if e.store != nil {
		if err := e.store.SetCleanShutdown(true); err != nil {
			e.logger.Warn("recording clean shutdown failed", "error", err)
		}
	}
	e.logger.Info("gate engine stopped")
}
