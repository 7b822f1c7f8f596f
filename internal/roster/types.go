// Package roster holds the persons managed by the gatekeeper, their
// weekday/weekend task templates, and the live checklist derived from
// those templates for the current calendar day.
//
// Templates are the admin-editable source of truth; TodayTasks is the
// mutable working copy the person checks off. The package owns the rules
// for when TodayTasks must be rebuilt (date rollover, day-type change,
// template edits) and when in-progress completion state is preserved.
package roster

import (
	"time"

	"github.com/google/uuid"
)

// TaskDef is a template entry: a title, nothing more.
type TaskDef struct {
	ID    string `yaml:"-"`
	Title string `yaml:"title"`
}

// TaskInstance is one live checklist item for the current day.
type TaskInstance struct {
	ID    string
	Title string
	Done  bool
}

// Person is one managed user of the device.
//
// Name doubles as the external correlation key (assignment, journal
// entries). Every person also carries a stable unique ID; see the design
// notes on why name-keying is kept despite its ambiguity.
type Person struct {
	ID   string
	Name string

	WeekdayTemplate []TaskDef
	WeekendTemplate []TaskDef

	// TodayTasks is the live checklist for the current calendar day.
	TodayTasks []TaskInstance

	// LastCompletedDate is the day this person last satisfied the full
	// checklist; nil means not yet completed today (or reset).
	LastCompletedDate *time.Time

	// lastInstantiatedDay is the midnight for which TodayTasks was last
	// derived from a template. Zero until the first instantiation.
	lastInstantiatedDay time.Time
}

// NewPerson creates a person with templates built from plain titles.
func NewPerson(name string, weekday, weekend []string) *Person {
	return &Person{
		ID:              uuid.NewString(),
		Name:            name,
		WeekdayTemplate: NewTemplate(weekday),
		WeekendTemplate: NewTemplate(weekend),
	}
}

// NewTemplate builds a template from ordered titles.
func NewTemplate(titles []string) []TaskDef {
	defs := make([]TaskDef, len(titles))
	for i, title := range titles {
		defs[i] = TaskDef{ID: uuid.NewString(), Title: title}
	}
	return defs
}

// SetTemplates replaces both templates. The next EnsureTodayTasks call
// notices the divergence and rebuilds the day's checklist.
func (p *Person) SetTemplates(weekday, weekend []string) {
	p.WeekdayTemplate = NewTemplate(weekday)
	p.WeekendTemplate = NewTemplate(weekend)
}

// SetTask flips the completion flag on one of today's tasks.
// Returns false if no task with that ID exists.
func (p *Person) SetTask(taskID string, done bool) bool {
	for i := range p.TodayTasks {
		if p.TodayTasks[i].ID == taskID {
			p.TodayTasks[i].Done = done
			return true
		}
	}
	return false
}

// AllTasksDone reports whether every task in today's checklist is complete.
// An empty checklist counts as done.
func (p *Person) AllTasksDone() bool {
	for _, task := range p.TodayTasks {
		if !task.Done {
			return false
		}
	}
	return true
}

// CompletedOn reports whether the person satisfied the checklist on the
// calendar day containing now.
func (p *Person) CompletedOn(now time.Time) bool {
	return p.LastCompletedDate != nil && SameDay(*p.LastCompletedDate, now)
}

// ClearCompletion resets the completion marker (stale-date recovery).
func (p *Person) ClearCompletion() {
	p.LastCompletedDate = nil
}

// Roster is the full set of managed persons, in display order.
type Roster struct {
	Persons []*Person
}

// FindByName returns the first person with the given name, or nil.
func (r *Roster) FindByName(name string) *Person {
	for _, p := range r.Persons {
		if p.Name == name {
			return p
		}
	}
	return nil
}
