package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the todo API on r.
func RegisterRoutes(r gin.IRouter, todoHandler *TodoHandler) {
	r.GET("/", todoHandler.Root)

	todoRoutes := r.Group("/todos")
	{
		todoRoutes.GET("/", todoHandler.ListTodos)
		todoRoutes.POST("/", todoHandler.CreateTodo)
		todoRoutes.GET("/:id", todoHandler.GetTodo)
		todoRoutes.PUT("/:id", todoHandler.UpdateTodo)
		todoRoutes.DELETE("/:id", todoHandler.DeleteTodo)
	}
}
