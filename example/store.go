package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/pthm/hxtag/example/components"
)

// Store is an in-memory todo store that implements components.TodoStore.
// It is safe for concurrent use: sibling components render in parallel.
type Store struct {
	mu     sync.RWMutex
	todos  map[string]*components.Todo
	order  []string // newest first
	nextID int
}

// NewStore creates a store with sample data.
func NewStore() *Store {
	s := &Store{todos: make(map[string]*components.Todo), nextID: 1}

	s.Add("Buy groceries", "Milk, eggs, bread", []components.Tag{components.TagPersonal})
	s.Add("Review PR #123", "Check the authentication changes", []components.Tag{components.TagWork, components.TagUrgent})
	s.Add("Write documentation", "Update API docs for v2", []components.Tag{components.TagWork})
	s.Add("Call dentist", "Schedule annual checkup", []components.Tag{components.TagPersonal, components.TagLater})
	return s
}

// Add creates a todo and returns its ID.
func (s *Store) Add(title, description string, tags []components.Tag) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("todo-%d", s.nextID)
	s.nextID++

	now := time.Now()
	s.todos[id] = &components.Todo{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      components.StatusPending,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.order = append([]string{id}, s.order...)
	return id
}

// Get returns a copy of the todo, or nil.
func (s *Store) Get(id string) *components.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	todo, ok := s.todos[id]
	if !ok {
		return nil
	}
	cp := *todo
	return &cp
}

func (s *Store) modify(id string, fn func(*components.Todo)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok {
		return false
	}
	fn(todo)
	todo.UpdatedAt = time.Now()
	return true
}

// Update replaces the non-empty fields.
func (s *Store) Update(id, title, description string, tags []components.Tag) bool {
	return s.modify(id, func(t *components.Todo) {
		if title != "" {
			t.Title = title
		}
		if description != "" {
			t.Description = description
		}
		if tags != nil {
			t.Tags = tags
		}
	})
}

// Toggle flips the completed status.
func (s *Store) Toggle(id string) bool {
	return s.modify(id, func(t *components.Todo) {
		if t.Done() {
			t.Status = components.StatusPending
		} else {
			t.Status = components.StatusCompleted
		}
	})
}

// Delete removes a todo.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return false
	}
	delete(s.todos, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns matching todos, newest first. A todo must carry every tag.
func (s *Store) List(status *components.Status, tags []components.Tag) []*components.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*components.Todo
next:
	for _, id := range s.order {
		todo := s.todos[id]
		if status != nil && todo.Status != *status {
			continue
		}
		for _, tag := range tags {
			if !todo.HasTag(tag) {
				continue next
			}
		}
		cp := *todo
		result = append(result, &cp)
	}
	return result
}

// Stats counts todos by status and tag.
func (s *Store) Stats() components.TodoStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := components.TodoStats{ByTag: make(map[components.Tag]int)}
	for _, todo := range s.todos {
		stats.Total++
		if todo.Done() {
			stats.Completed++
		} else {
			stats.Pending++
		}
		for _, tag := range todo.Tags {
			stats.ByTag[tag]++
		}
	}
	return stats
}
