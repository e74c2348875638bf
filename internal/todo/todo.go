// Package todo is the local checklist shown on the landing screen. It has no
// connection to plan generation and keeps nothing across runs.
package todo

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Task is one checklist entry.
type Task struct {
	ID        string
	Text      string
	Completed bool
}

// List is an ordered, in-memory checklist. It is safe for concurrent use.
type List struct {
	mu    sync.Mutex
	tasks []Task
}

// NewList returns a list with the starter tasks.
func NewList() *List {
	return &List{tasks: []Task{
		{ID: uuid.NewString(), Text: "Define my primary focus for the month", Completed: true},
		{ID: uuid.NewString(), Text: "Generate AI personalized blueprint"},
		{ID: uuid.NewString(), Text: "Review daily actionable steps"},
	}}
}

// Add appends an incomplete task. Blank text is ignored and reported as false.
func (l *List) Add(text string) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}

	task := Task{ID: uuid.NewString(), Text: text}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, task)
	return task, true
}

// Toggle flips the completion of the task with id.
func (l *List) Toggle(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.tasks {
		if l.tasks[i].ID == id {
			l.tasks[i].Completed = !l.tasks[i].Completed
			return true
		}
	}
	return false
}

// Delete removes the task with id.
func (l *List) Delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, t := range l.tasks {
		if t.ID == id {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Tasks returns a copy of the tasks in order.
func (l *List) Tasks() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Task(nil), l.tasks...)
}

// Remaining counts the tasks not yet completed.
func (l *List) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, t := range l.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
