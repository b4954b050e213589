package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/store"
	storetest "github.com/hrygo/taskpilot/store/test"
)

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	observation, err := tools.CreateTask(ctx, 1, "Buy groceries", "Milk, eggs, bread")
	require.NoError(t, err)
	require.Equal(t, "Successfully created task: Buy groceries", observation)

	observation, err = tools.CreateTask(ctx, 1, "   ", "")
	require.NoError(t, err)
	require.Equal(t, "Task title cannot be empty.", observation)
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	observation, err := tools.ListTasks(ctx, 1, "all")
	require.NoError(t, err)
	require.Equal(t, "You don't have any tasks yet.", observation)

	_, err = tools.CreateTask(ctx, 1, "Buy groceries", "")
	require.NoError(t, err)
	_, err = tools.CreateTask(ctx, 1, "Call dentist", "")
	require.NoError(t, err)

	observation, err = tools.ListTasks(ctx, 1, "pending")
	require.NoError(t, err)
	require.Contains(t, observation, "You have 2 pending tasks:")
	require.Contains(t, observation, "1. Buy groceries")
	require.Contains(t, observation, "2. Call dentist")

	observation, err = tools.ListTasks(ctx, 1, "completed")
	require.NoError(t, err)
	require.Equal(t, "You don't have any completed tasks.", observation)

	// Another user's listing never sees these tasks.
	observation, err = tools.ListTasks(ctx, 2, "all")
	require.NoError(t, err)
	require.Equal(t, "You don't have any tasks yet.", observation)
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	_, err := tools.CreateTask(ctx, 1, "Buy groceries", "")
	require.NoError(t, err)

	title := "groceries"
	observation, err := tools.CompleteTask(ctx, 1, nil, &title)
	require.NoError(t, err)
	require.Equal(t, "Successfully marked task 'Buy groceries' as completed.", observation)

	// Completing again is reported, not re-applied.
	observation, err = tools.CompleteTask(ctx, 1, nil, &title)
	require.NoError(t, err)
	require.Equal(t, "Task 'Buy groceries' is already completed.", observation)

	missing := "laundry"
	observation, err = tools.CompleteTask(ctx, 1, nil, &missing)
	require.NoError(t, err)
	require.Equal(t, "I couldn't find a task with the title 'laundry'.", observation)

	observation, err = tools.CompleteTask(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Please provide either a task_id or title to complete.", observation)
}

func TestCompleteTaskAmbiguousTitle(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	_, err := tools.CreateTask(ctx, 1, "Buy milk", "")
	require.NoError(t, err)
	_, err = tools.CreateTask(ctx, 1, "Order milk delivery", "")
	require.NoError(t, err)

	title := "milk"
	observation, err := tools.CompleteTask(ctx, 1, nil, &title)
	require.NoError(t, err)
	require.Contains(t, observation, "Multiple tasks found:")
	require.Contains(t, observation, "Buy milk")
	require.Contains(t, observation, "Order milk delivery")
	require.Contains(t, observation, "Please provide the specific ID to complete.")

	// Disambiguation performed no mutation.
	creator := int32(1)
	pending := store.TaskStatusPending
	list, err := ts.ListTasks(ctx, &store.FindTask{CreatorID: &creator, Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	_, err := tools.CreateTask(ctx, 1, "Buy groceries", "")
	require.NoError(t, err)

	creator := int32(1)
	task, err := ts.GetTask(ctx, &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)
	require.NotNil(t, task)

	observation, err := tools.DeleteTask(ctx, 1, &task.ID, nil)
	require.NoError(t, err)
	require.Contains(t, observation, "Successfully deleted task with ID")

	observation, err = tools.DeleteTask(ctx, 1, &task.ID, nil)
	require.NoError(t, err)
	require.Contains(t, observation, "not found")
}

func TestDeleteTaskCrossTenant(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	_, err := tools.CreateTask(ctx, 1, "Private task", "")
	require.NoError(t, err)

	creator := int32(1)
	task, err := ts.GetTask(ctx, &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)

	// Another user resolving by the victim's id sees "not found".
	observation, err := tools.DeleteTask(ctx, 2, &task.ID, nil)
	require.NoError(t, err)
	require.Contains(t, observation, "not found")

	remaining, err := ts.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: &creator})
	require.NoError(t, err)
	require.NotNil(t, remaining)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewTaskTools(ts)

	_, err := tools.CreateTask(ctx, 1, "Buy groceries", "")
	require.NoError(t, err)

	creator := int32(1)
	task, err := ts.GetTask(ctx, &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)

	title := "Buy groceries and cook dinner"
	observation, err := tools.UpdateTask(ctx, 1, task.ID, &title, nil)
	require.NoError(t, err)
	require.Equal(t, "Successfully updated task 'Buy groceries and cook dinner'", observation)

	observation, err = tools.UpdateTask(ctx, 1, task.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Please provide a new title or description to update.", observation)

	missingID := task.ID + 100
	observation, err = tools.UpdateTask(ctx, 1, missingID, &title, nil)
	require.NoError(t, err)
	require.Contains(t, observation, "not found")
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	// Transient failures are retried with backoff until the call succeeds.
	attempts := 0
	start := time.Now()
	err := withRetry(ctx, "create_task", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errString("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

	// Non-transient failures fail fast.
	attempts = 0
	err = withRetry(ctx, "create_task", func(context.Context) error {
		attempts++
		return errString("syntax error")
	})
	require.EqualError(t, err, "syntax error")
	require.Equal(t, 1, attempts)

	// Exhaustion surfaces the original error unwrapped.
	attempts = 0
	err = withRetry(ctx, "create_task", func(context.Context) error {
		attempts++
		return errString("network down")
	})
	require.EqualError(t, err, "network down")
	require.Equal(t, 3, attempts)
}

func TestIsTransient(t *testing.T) {
	require.False(t, isTransient(nil))
	require.False(t, isTransient(store.ErrNotFound))
	require.True(t, isTransient(context.DeadlineExceeded))

	err := errString("database is locked")
	require.True(t, isTransient(err))
	require.True(t, isTransient(errString("connection refused")))
	require.False(t, isTransient(errString("syntax error")))
}

type errString string

func (e errString) Error() string { return string(e) }
