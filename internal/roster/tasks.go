package roster

import (
	"time"

	"github.com/google/uuid"
)

// EnsureTodayTasks brings every person's checklist up to date for the
// calendar day containing now. It is idempotent: repeated calls with the
// same now and unchanged templates are no-ops after the first.
func (r *Roster) EnsureTodayTasks(now time.Time) {
	for _, p := range r.Persons {
		p.ensureToday(now)
	}
}

// ensureToday applies the instantiation rules for one person:
//
//   - New calendar day: rebuild the checklist from the day-type template,
//     record the day, and reset the completion marker.
//   - Same day but the checklist titles no longer match the template
//     (admin edit, or a day-type boundary observed late): rebuild,
//     discarding in-progress completion flags.
//   - Otherwise leave the checklist alone so progress survives.
func (p *Person) ensureToday(now time.Time) {
	todayStart := StartOfDay(now)
	tmpl := p.template(now)

	if !p.lastInstantiatedDay.Equal(todayStart) {
		p.TodayTasks = instantiate(tmpl)
		p.lastInstantiatedDay = todayStart
		p.LastCompletedDate = nil
		return
	}

	if !titlesMatch(p.TodayTasks, tmpl) {
		p.TodayTasks = instantiate(tmpl)
	}
}

// template picks the day-type-matching template for now.
func (p *Person) template(now time.Time) []TaskDef {
	if IsWeekend(now) {
		return p.WeekendTemplate
	}
	return p.WeekdayTemplate
}

// instantiate clones a template into fresh, incomplete task instances.
func instantiate(tmpl []TaskDef) []TaskInstance {
	tasks := make([]TaskInstance, len(tmpl))
	for i, def := range tmpl {
		tasks[i] = TaskInstance{ID: uuid.NewString(), Title: def.Title}
	}
	return tasks
}

// titlesMatch reports whether the checklist titles, in order, equal the
// template titles.
func titlesMatch(tasks []TaskInstance, tmpl []TaskDef) bool {
	if len(tasks) != len(tmpl) {
		return false
	}
	for i := range tasks {
		if tasks[i].Title != tmpl[i].Title {
			return false
		}
	}
	return true
}
