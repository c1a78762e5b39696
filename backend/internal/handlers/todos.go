package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"todo-gpt/backend/internal/models"
	"todo-gpt/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

// SessionProvider hands out a request-scoped database handle and releases it
// when fn returns.
type SessionProvider interface {
	WithSession(ctx context.Context, fn func(db *gorm.DB) error) error
}

type TodoHandler struct {
	sessions    SessionProvider
	todoService services.TodoService
}

func NewTodoHandler(sessions SessionProvider, todoService services.TodoService) *TodoHandler {
	return &TodoHandler{sessions: sessions, todoService: todoService}
}

func (h *TodoHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Message": "Todo GPT"})
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	var filter models.TodoFilter
	filter.Status = c.Query("status")
	if raw := c.Query("priority"); raw != "" {
		priority, err := models.ParsePriority(raw)
		if err != nil {
			handleTodoError(c, err)
			return
		}
		filter.Priority = priority
	}

	var todos []models.Todo
	err := h.sessions.WithSession(c.Request.Context(), func(db *gorm.DB) error {
		var err error
		todos, err = h.todoService.ListTodos(db, filter)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) GetTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var todo models.Todo
	err := h.sessions.WithSession(c.Request.Context(), func(db *gorm.DB) error {
		var err error
		todo, err = h.todoService.GetTodo(db, id)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var input models.TodoCreate
	if !bindPayload(c, models.CheckCreatePayload, &input) {
		return
	}

	var todo models.Todo
	err := h.sessions.WithSession(c.Request.Context(), func(db *gorm.DB) error {
		var err error
		todo, err = h.todoService.CreateTodo(db, input)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var input models.TodoUpdate
	if !bindPayload(c, models.CheckUpdatePayload, &input) {
		return
	}

	var todo models.Todo
	err := h.sessions.WithSession(c.Request.Context(), func(db *gorm.DB) error {
		var err error
		todo, err = h.todoService.UpdateTodo(db, id, input)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	err := h.sessions.WithSession(c.Request.Context(), func(db *gorm.DB) error {
		return h.todoService.DeleteTodo(db, id)
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo successfully deleted"})
}

// todoID parses the path id. Integers too large for a row id cannot match
// any todo and are reported as not found rather than malformed.
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		handleTodoError(c, fmt.Errorf("todo %s: %w", c.Param("id"), services.ErrTodoNotFound))
		return 0, false
	}
	if err != nil {
		handleTodoError(c, models.NewValidationError("todo_id", "must be an integer"))
		return 0, false
	}
	return id, true
}

// bindPayload checks the raw body against its schema before decoding it, so
// type errors come back with the field that caused them.
func bindPayload(c *gin.Context, check func([]byte) error, dest interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		handleTodoError(c, models.NewValidationError("body", err.Error()))
		return false
	}
	if err := check(raw); err != nil {
		handleTodoError(c, err)
		return false
	}
	if err := binding.JSON.BindBody(raw, dest); err != nil {
		if !models.IsValidationError(err) {
			err = models.NewValidationError("body", err.Error())
		}
		handleTodoError(c, err)
		return false
	}
	return true
}

func handleTodoError(c *gin.Context, err error) {
	switch {
	case models.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
	case errors.Is(err, services.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Todo not found"})
	default:
		log.Printf("❌ todo request %s %s failed (request_id=%s): %v",
			c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to process todo request"})
	}
}
