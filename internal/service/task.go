package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
)

// taskDateLayout is the calendar date format stored on daily tasks.
const taskDateLayout = "2006-01-02"

// TaskService handles the daily task board.
type TaskService struct {
	store       *repository.Store
	catalog     map[string]decimal.Decimal
	location    *time.Location
	userLock    *lock.UserLock
	lockTimeout time.Duration
	now         func() time.Time
}

// NewTaskService creates a new TaskService. The task date is the calendar day
// of the current time in loc.
func NewTaskService(store *repository.Store, catalog map[string]decimal.Decimal, loc *time.Location, userLock *lock.UserLock, lockTimeout time.Duration) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		store:       store,
		catalog:     catalog,
		location:    loc,
		userLock:    userLock,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// Today returns the date string used for the current task board.
func (s *TaskService) Today() string {
	return s.now().In(s.location).Format(taskDateLayout)
}

// List seeds today's board if needed and returns it.
func (s *TaskService) List(ctx context.Context, userID string) ([]*model.DailyTask, error) {
	today := s.Today()
	if err := s.store.Tasks.Seed(ctx, userID, today, s.catalog); err != nil {
		return nil, fmt.Errorf("failed to prepare daily tasks: %w", err)
	}
	return s.store.Tasks.ListForDate(ctx, userID, today)
}

// Complete completes one of today's tasks and pays its reward. Today's board
// is seeded first, so listing beforehand is optional. A task pays at most once
// per day; repeats return ErrTaskNotAvailable.
func (s *TaskService) Complete(ctx context.Context, userID, taskType string) (*model.DailyTask, *model.Balance, error) {
	if _, ok := s.catalog[taskType]; !ok {
		return nil, nil, ErrInvalidTaskType
	}

	var (
		task    *model.DailyTask
		balance *model.Balance
	)
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		today := s.Today()
		if err := s.store.Tasks.Seed(ctx, userID, today, s.catalog); err != nil {
			return fmt.Errorf("failed to prepare daily tasks: %w", err)
		}
		var err error
		task, balance, err = s.store.CompleteTask(ctx, userID, taskType, today)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return task, balance, nil
}
