package services

import (
	"errors"
	"fmt"
	"time"

	"todo-gpt/backend/internal/models"

	"gorm.io/gorm"
)

var ErrTodoNotFound = errors.New("todo not found")

// TodoService runs a single persistence operation against the handle it is
// given. Callers own the session the handle belongs to.
type TodoService interface {
	ListTodos(db *gorm.DB, filter models.TodoFilter) ([]models.Todo, error)
	GetTodo(db *gorm.DB, id int64) (models.Todo, error)
	CreateTodo(db *gorm.DB, input models.TodoCreate) (models.Todo, error)
	UpdateTodo(db *gorm.DB, id int64, input models.TodoUpdate) (models.Todo, error)
	DeleteTodo(db *gorm.DB, id int64) error
}

type TodoServiceImpl struct {
	now func() time.Time
}

func NewTodoService() *TodoServiceImpl {
	return NewTodoServiceWithClock(time.Now)
}

func NewTodoServiceWithClock(now func() time.Time) *TodoServiceImpl {
	return &TodoServiceImpl{now: now}
}

// timestamp matches the microsecond precision postgres stores.
func (s *TodoServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TodoServiceImpl) ListTodos(db *gorm.DB, filter models.TodoFilter) ([]models.Todo, error) {
	query := db.Model(&models.Todo{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != 0 {
		query = query.Where("priority = ?", filter.Priority)
	}

	todos := []models.Todo{}
	if err := query.Order("id").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoServiceImpl) GetTodo(db *gorm.DB, id int64) (models.Todo, error) {
	var todo models.Todo
	if err := db.First(&todo, id).Error; err != nil {
		return models.Todo{}, wrapLookupError(id, err)
	}
	return todo, nil
}

func (s *TodoServiceImpl) CreateTodo(db *gorm.DB, input models.TodoCreate) (models.Todo, error) {
	if err := input.Validate(); err != nil {
		return models.Todo{}, err
	}

	todo := input.NewTodo(s.timestamp())
	if err := db.Create(&todo).Error; err != nil {
		return models.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	var persisted models.Todo
	if err := db.First(&persisted, todo.ID).Error; err != nil {
		return models.Todo{}, fmt.Errorf("reload todo %d: %w", todo.ID, err)
	}
	return persisted, nil
}

func (s *TodoServiceImpl) UpdateTodo(db *gorm.DB, id int64, input models.TodoUpdate) (models.Todo, error) {
	if err := input.Validate(); err != nil {
		return models.Todo{}, err
	}

	var todo models.Todo
	if err := db.First(&todo, id).Error; err != nil {
		return models.Todo{}, wrapLookupError(id, err)
	}

	input.Apply(&todo, s.timestamp())

	result := db.Model(&models.Todo{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    todo.Content,
		"status":     todo.Status,
		"priority":   todo.Priority,
		"due_date":   todo.DueDate,
		"updated_at": todo.UpdatedAt,
	})
	if result.Error != nil {
		return models.Todo{}, fmt.Errorf("update todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Todo{}, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}

	var persisted models.Todo
	if err := db.First(&persisted, id).Error; err != nil {
		return models.Todo{}, wrapLookupError(id, err)
	}
	return persisted, nil
}

func (s *TodoServiceImpl) DeleteTodo(db *gorm.DB, id int64) error {
	result := db.Delete(&models.Todo{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}
	return nil
}

func wrapLookupError(id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}
	return fmt.Errorf("load todo %d: %w", id, err)
}
