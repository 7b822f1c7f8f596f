package gate

import (
	"context"
	"errors"
	"time"

	"github.com/mwhitt-dev/latchkey/internal/journal"
)

// ErrStopped is returned by mutating methods called after Run has
// exited.
var ErrStopped = errors.New("engine stopped")

// Run owns the engine's mutable state for the life of ctx. The periodic
// tick and every exported method funnel through one request channel, so
// a timer firing and a user action can never interleave mid-decision.
// Run must be called exactly once; once it returns, exported methods
// return zero values (or ErrStopped) instead of blocking.
//
// Run evaluates once immediately, then at least once per TickInterval
// (at most a minute) to catch hour-boundary crossings.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.stopped)

	e.evaluate(timeNow())

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case <-ticker.C:
			e.evaluate(timeNow())
		case req := <-e.requests:
			req()
		}
	}
}

// do posts fn onto the run loop and waits for it to complete. Callers
// block briefly; every core operation is a bounded in-memory scan. Once
// the loop has exited, do reports false without running fn so callers
// return zero values rather than blocking on a channel nobody drains.
// Calls made before Run starts wait for it.
func (e *Engine) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case e.requests <- func() {
		fn()
		close(done)
	}:
		<-done
		return true
	case <-e.stopped:
		return false
	}
}

// Reevaluate forces a decision pass outside the periodic tick. Hook it
// to ad-hoc triggers such as the host waking from sleep.
func (e *Engine) Reevaluate() State {
	var s State
	e.do(func() { s = e.evaluate(timeNow()) })
	return s
}

// Assign selects the device's current person and re-decides.
func (e *Engine) Assign(name string) {
	e.do(func() { e.assign(name, timeNow()) })
}

// ClearAssignment removes the current person; during the window the
// gate then fails safe to locked.
func (e *Engine) ClearAssignment() {
	e.do(func() { e.assign("", timeNow()) })
}

// MarkCurrentPersonDone records that the assigned person satisfied
// today's checklist. The presentation adapter is responsible for only
// calling this once every task is checked off.
func (e *Engine) MarkCurrentPersonDone() error {
	var err error
	if !e.do(func() { err = e.markCurrentPersonDone(timeNow()) }) {
		return ErrStopped
	}
	return err
}

// SetTask toggles the completion flag on one of a person's tasks.
func (e *Engine) SetTask(personName, taskID string, done bool) error {
	var err error
	if !e.do(func() { err = e.setTask(personName, taskID, done, timeNow()) }) {
		return ErrStopped
	}
	return err
}

// SetTemplates replaces a person's weekday and weekend checklists.
func (e *Engine) SetTemplates(personName string, weekday, weekend []string) error {
	var err error
	if !e.do(func() { err = e.setTemplates(personName, weekday, weekend, timeNow()) }) {
		return ErrStopped
	}
	return err
}

// SetLaunchAtStartup persists the launch preference. Registering with
// the OS is the presentation adapter's job.
func (e *Engine) SetLaunchAtStartup(enabled bool) {
	e.do(func() {
		if e.store == nil {
			return
		}
		if err := e.store.SetLaunchAtStartup(enabled); err != nil {
			e.logger.Warn("persisting launch preference failed", "error", err)
		}
	})
}

// LaunchAtStartup reads the persisted launch preference.
func (e *Engine) LaunchAtStartup() bool {
	var enabled bool
	e.do(func() {
		if e.store == nil {
			return
		}
		v, err := e.store.LaunchAtStartup()
		if err != nil {
			e.logger.Warn("reading launch preference failed", "error", err)
			return
		}
		enabled = v
	})
	return enabled
}

// Subscribe returns a channel that receives every state change. The
// channel is buffered; a subscriber that stops draining misses updates
// rather than stalling the engine. Safe to call before Run.
func (e *Engine) Subscribe() <-chan State {
	ch := make(chan State, 8)
	e.subMu.Lock()
	e.subs = append(e.subs, ch)
	e.subMu.Unlock()
	return ch
}

// TaskView is one checklist item as rendered.
type TaskView struct {
	ID    string
	Title string
	Done  bool
}

// PersonView is one person's visible state.
type PersonView struct {
	ID             string
	Name           string
	Tasks          []TaskView
	AllTasksDone   bool
	CompletedToday bool
}

// Snapshot is an immutable copy of everything the presentation adapter
// renders from.
type Snapshot struct {
	State          State
	AssignedPerson string
	Persons        []PersonView
	Journal        []journal.Entry
}

// Snapshot captures the current engine state for rendering.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	e.do(func() { snap = e.snapshotAt(timeNow()) })
	return snap
}

func (e *Engine) snapshotAt(now time.Time) Snapshot {
	snap := Snapshot{
		State:          e.state,
		AssignedPerson: e.assigned,
		Journal:        e.log.Entries(),
	}
	for _, p := range e.roster.Persons {
		view := PersonView{
			ID:             p.ID,
			Name:           p.Name,
			AllTasksDone:   p.AllTasksDone(),
			CompletedToday: p.CompletedOn(now),
		}
		for _, task := range p.TodayTasks {
			view.Tasks = append(view.Tasks, TaskView{ID: task.ID, Title: task.Title, Done: task.Done})
		}
		snap.Persons = append(snap.Persons, view)
	}
	return snap
}
