package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultStatus = "pending"

type PriorityLevel int

const (
	PriorityHigh PriorityLevel = iota + 1
	PriorityMediumHigh
	PriorityMedium
	PriorityMediumLow
	PriorityLow
)

var priorityNames = map[PriorityLevel]string{
	PriorityHigh:       "HIGH",
	PriorityMediumHigh: "MEDIUM_HIGH",
	PriorityMedium:     "MEDIUM",
	PriorityMediumLow:  "MEDIUM_LOW",
	PriorityLow:        "LOW",
}

func (p PriorityLevel) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p PriorityLevel) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PriorityLevel(%d)", int(p))
}

// ParsePriority accepts either the numeric level ("3") or its name ("MEDIUM").
func ParsePriority(s string) (PriorityLevel, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := PriorityLevel(n)
		if !p.Valid() {
			return 0, NewValidationError("priority", fmt.Sprintf("must be between %d and %d, got %d", PriorityHigh, PriorityLow, n))
		}
		return p, nil
	}
	for p, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, NewValidationError("priority", fmt.Sprintf("unknown priority level %q", s))
}

func (p *PriorityLevel) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return NewValidationError("priority", "must be an integer")
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return NewValidationError("priority", "must be an integer")
	}
	level := PriorityLevel(int64(f))
	if !level.Valid() {
		return NewValidationError("priority", fmt.Sprintf("must be between %d and %d, got %s", PriorityHigh, PriorityLow, n))
	}
	*p = level
	return nil
}

type Todo struct {
	ID        int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	Content   string        `json:"content" gorm:"type:text;not null;index"`
	Status    string        `json:"status" gorm:"type:text;not null;index"`
	Priority  PriorityLevel `json:"priority" gorm:"not null;index"`
	DueDate   *time.Time    `json:"due_date"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt *time.Time    `json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (Todo) TableName() string {
	return "todos"
}

// TodoFilter narrows a listing. Zero values match everything.
type TodoFilter struct {
	Status   string
	Priority PriorityLevel
}

// TodoCreate is the payload accepted when creating a todo.
type TodoCreate struct {
	Content  Optional[string]        `json:"content"`
	Status   Optional[string]        `json:"status"`
	Priority Optional[PriorityLevel] `json:"priority"`
	DueDate  Optional[Timestamp]     `json:"due_date"`
}

func (in TodoCreate) Validate() error {
	if !in.Content.Present() {
		return NewValidationError("content", "field required")
	}
	if in.Priority.Present() && !in.Priority.Value.Valid() {
		return NewValidationError("priority", fmt.Sprintf("must be between %d and %d", PriorityHigh, PriorityLow))
	}
	return nil
}

// NewTodo applies defaults. ID is left for the database to assign.
func (in TodoCreate) NewTodo(now time.Time) Todo {
	todo := Todo{
		Content:   in.Content.Value,
		Status:    in.Status.Or(DefaultStatus),
		Priority:  in.Priority.Or(PriorityMedium),
		CreatedAt: now,
	}
	if in.DueDate.Present() {
		due := in.DueDate.Value.UTC()
		todo.DueDate = &due
	}
	return todo
}

// TodoUpdate is the partial-update payload. Absent fields leave the stored
// value alone; a null due_date clears it.
type TodoUpdate struct {
	Content  Optional[string]        `json:"content"`
	Status   Optional[string]        `json:"status"`
	Priority Optional[PriorityLevel] `json:"priority"`
	DueDate  Optional[Timestamp]     `json:"due_date"`
}

func (in TodoUpdate) Validate() error {
	if in.Priority.Present() && !in.Priority.Value.Valid() {
		return NewValidationError("priority", fmt.Sprintf("must be between %d and %d", PriorityHigh, PriorityLow))
	}
	return nil
}

func (in TodoUpdate) Apply(todo *Todo, now time.Time) {
	if in.Content.Present() {
		todo.Content = in.Content.Value
	}
	if in.Status.Present() {
		todo.Status = in.Status.Value
	}
	if in.Priority.Present() {
		todo.Priority = in.Priority.Value
	}
	if in.DueDate.Set {
		if in.DueDate.Null {
			todo.DueDate = nil
		} else {
			due := in.DueDate.Value.UTC()
			todo.DueDate = &due
		}
	}
	todo.UpdatedAt = &now
}
