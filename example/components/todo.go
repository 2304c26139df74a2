// Package components holds the todo example's custom tags.
//
// Every component is a Go render function. Routes are declared next to the
// component that calls them, and the render function reaches them through
// its API.
package components

import (
	"time"

	"github.com/pthm/hxtag"
)

// Status is the completion state of a todo.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Tag labels a todo.
type Tag string

const (
	TagWork     Tag = "work"
	TagPersonal Tag = "personal"
	TagUrgent   Tag = "urgent"
	TagLater    Tag = "later"
)

// Todo is one task.
type Todo struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Done reports whether the todo is completed.
func (t *Todo) Done() bool { return t.Status == StatusCompleted }

// HasTag reports whether the todo carries tag.
func (t *Todo) HasTag(tag Tag) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// TodoStats summarises the store.
type TodoStats struct {
	Total     int
	Completed int
	Pending   int
	ByTag     map[Tag]int
}

// TodoStore is the data the components need.
type TodoStore interface {
	Add(title, description string, tags []Tag) string
	Get(id string) *Todo
	Update(id, title, description string, tags []Tag) bool
	Toggle(id string) bool
	Delete(id string) bool
	List(status *Status, tags []Tag) []*Todo
	Stats() TodoStats
}

// Register adds every todo component to reg.
func Register(reg *hxtag.Registry, store TodoStore) {
	reg.MustRegister(
		todoList(store),
		todoItem(store),
		addTodo(store),
		todoStats(store),
		taskDetail(store),
	)
}
