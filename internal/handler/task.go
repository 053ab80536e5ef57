package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"llama-arcade/internal/model"
)

// Tasks is the daily-task surface the handlers need.
type Tasks interface {
	List(ctx context.Context, userID string) ([]*model.DailyTask, error)
	Complete(ctx context.Context, userID, taskType string) (*model.DailyTask, *model.Balance, error)
}

// TaskHandler handles daily task endpoints.
type TaskHandler struct {
	tasks Tasks
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks Tasks) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type completeTaskResponse struct {
	Message    string           `json:"message"`
	Task       *model.DailyTask `json:"task"`
	NewBalance *model.Balance   `json:"newBalance"`
}

// HandleList handles GET /api/tasks. Today's tasks are created on first read.
func (h *TaskHandler) HandleList(c echo.Context) error {
	tasks, err := h.tasks.List(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(tasks))
}

// HandleComplete handles POST /api/tasks/:taskType/complete.
func (h *TaskHandler) HandleComplete(c echo.Context) error {
	task, balance, err := h.tasks.Complete(c.Request().Context(), UserID(c), c.Param("taskType"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, completeTaskResponse{
		Message:    "Task completed",
		Task:       task,
		NewBalance: balance,
	})
}
