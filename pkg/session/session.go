// Package session holds the per-user context of an annotation session: the
// task type being worked on, the current task, its state and the terms the
// user has picked so far.
//
// A Session is passed explicitly to whoever needs it. Ranking never reads it.
package session

import (
	"encoding/json"
	"slices"
	"sync"
)

// Task is a unit of work handed out by the task service. Data is opaque.
type Task struct {
	ID     string          `json:"id"`
	Closed bool            `json:"closed"`
	Data   json.RawMessage `json:"data"`
}

// Snapshot is a point-in-time copy of a Session.
type Snapshot struct {
	TaskType  string
	TaskTitle string
	Task      *Task
	InitState json.RawMessage
	State     json.RawMessage
	Selected  []string
}

// Session is safe for concurrent use.
type Session struct {
	taskType  string
	taskTitle string
	task      *Task
	initState json.RawMessage
	state     json.RawMessage
	selected  []string
	mu        sync.RWMutex
}

// New creates an empty session.
func New() *Session {
	return &Session{}
}

func (s *Session) TaskType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskType
}

// SetTaskType switches the task type. The title defaults to the type name.
func (s *Session) SetTaskType(taskType, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if title == "" {
		title = taskType
	}
	s.taskType, s.taskTitle = taskType, title
}

func (s *Session) TaskTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskTitle
}

// Task returns a copy of the current task, or nil.
func (s *Session) Task() *Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTask(s.task)
}

// SetTask makes task current. Its data becomes both the initial and the
// current state, and the selection is cleared. A nil task clears all three.
func (s *Session) SetTask(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = copyTask(task)
	s.selected = nil
	if s.task == nil {
		s.initState, s.state = nil, nil
		return
	}
	s.initState = slices.Clone(s.task.Data)
	s.state = slices.Clone(s.task.Data)
}

// TaskID returns the current task id, or "" without a task.
func (s *Session) TaskID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.task == nil {
		return ""
	}
	return s.task.ID
}

func (s *Session) State() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state)
}

func (s *Session) SetState(raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = slices.Clone(raw)
}

// ResetState restores the state the current task was loaded with.
func (s *Session) ResetState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = slices.Clone(s.initState)
}

// SelectTerm adds term to the selection. It reports false if it was already there.
func (s *Session) SelectTerm(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.selected, term) {
		return false
	}
	s.selected = append(s.selected, term)
	return true
}

// UnselectTerm removes term from the selection. It reports whether it was there.
func (s *Session) UnselectTerm(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.selected, term)
	if i < 0 {
		return false
	}
	s.selected = slices.Delete(s.selected, i, i+1)
	return true
}

// SelectedTerms returns the selection in pick order.
func (s *Session) SelectedTerms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		TaskType:  s.taskType,
		TaskTitle: s.taskTitle,
		Task:      copyTask(s.task),
		InitState: slices.Clone(s.initState),
		State:     slices.Clone(s.state),
		Selected:  slices.Clone(s.selected),
	}
}

func copyTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Data = slices.Clone(t.Data)
	return &c
}
