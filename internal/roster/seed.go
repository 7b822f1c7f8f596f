package roster

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RosterFile is the filename looked up inside the data directory.
const RosterFile = "roster.yaml"

// defaultRosterYAML seeds the data directory on first run. Admins edit
// this file to change names and checklists; the engine picks template
// changes up on the next evaluation after a reload or restart.
const defaultRosterYAML = `# latchkey roster
# One entry per managed person. "weekday" and "weekend" are ordered
# checklists; the right one is instantiated each morning.
persons:
  - name: Micah
    weekday:
      - Make your bed
      - Feed the dog
      - Pack your school bag
    weekend:
      - Make your bed
      - Feed the dog
  - name: Nora
    weekday:
      - Make your bed
      - Empty the dishwasher
      - Practice piano
    weekend:
      - Make your bed
      - Tidy your room
`

// personSpec mirrors one roster file entry.
type personSpec struct {
	Name    string   `yaml:"name"`
	Weekday []string `yaml:"weekday"`
	Weekend []string `yaml:"weekend"`
}

// rosterSpec mirrors the roster file.
type rosterSpec struct {
	Persons []personSpec `yaml:"persons"`
}

// Load parses a roster file into live persons.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	return parse(data)
}

// Seed writes the built-in default roster to path, creating parent
// directories. It refuses to overwrite an existing file.
func Seed(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("roster file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating roster directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultRosterYAML), 0o644); err != nil {
		return fmt.Errorf("writing roster file: %w", err)
	}
	return nil
}

// LoadOrSeed loads the roster file, seeding it with the built-in default
// on first run. A malformed or unreadable file degrades to the built-in
// roster; the returned error reports what went wrong so callers can log
// it, but the roster is always usable.
func LoadOrSeed(path string) (*Roster, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if seedErr := Seed(path); seedErr != nil {
			return builtin(), seedErr
		}
	}

	r, err := Load(path)
	if err != nil {
		return builtin(), err
	}
	return r, nil
}

// builtin returns the compiled-in default roster.
func builtin() *Roster {
	r, err := parse([]byte(defaultRosterYAML))
	if err != nil {
		// The embedded default is covered by tests; an empty roster is
		// still safe (fail-safe locked during the window).
		return &Roster{}
	}
	return r
}

// parse decodes roster YAML and builds persons with fresh IDs.
func parse(data []byte) (*Roster, error) {
	var spec rosterSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing roster file: %w", err)
	}

	r := &Roster{}
	for _, ps := range spec.Persons {
		if ps.Name == "" {
			continue
		}
		r.Persons = append(r.Persons, NewPerson(ps.Name, ps.Weekday, ps.Weekend))
	}
	return r, nil
}
