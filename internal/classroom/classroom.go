// Package classroom provides the directory of known classrooms.
package classroom

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a classroom id is not in the directory.
var ErrNotFound = errors.New("classroom not found")

// Classroom is the static context of a classroom.
type Classroom struct {
	ID      string
	Title   string
	Subject string
}

// Label returns "Title (ID)", or the id alone when there is no title.
func (c Classroom) Label() string {
	if c.Title == "" {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Title, c.ID)
}

// Directory is an in-memory, read-only classroom lookup.
type Directory struct {
	byID map[string]Classroom
}

// NewDirectory builds a directory. Ids are trimmed; blank or repeated ids are rejected.
func NewDirectory(classrooms []Classroom) (*Directory, error) {
	d := &Directory{byID: make(map[string]Classroom, len(classrooms))}
	for _, c := range classrooms {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, errors.New("classroom id cannot be empty")
		}
		if _, dup := d.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate classroom id %q", c.ID)
		}
		d.byID[c.ID] = c
	}
	return d, nil
}

// Lookup returns the classroom with id.
func (d *Directory) Lookup(id string) (Classroom, error) {
	c, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return Classroom{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return c, nil
}

// LookupOrBare returns the classroom with id, or a classroom carrying only
// the id when the directory does not know it. Schedules can exist for
// classrooms that were never configured.
func (d *Directory) LookupOrBare(id string) Classroom {
	if c, err := d.Lookup(id); err == nil {
		return c
	}
	return Classroom{ID: strings.TrimSpace(id)}
}

// All returns every classroom sorted by id.
func (d *Directory) All() []Classroom {
	out := make([]Classroom, 0, len(d.byID))
	for _, c := range d.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
