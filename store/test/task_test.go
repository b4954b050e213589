package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/store"
)

func TestTaskStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	task, err := ts.CreateTask(ctx, &store.Task{
		CreatorID:   1,
		Title:       "Buy groceries",
		Description: "milk, eggs, bread",
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.UID)
	require.Equal(t, store.TaskStatusPending, task.Status)

	completed := store.TaskStatusCompleted
	updated, err := ts.UpdateTask(ctx, &store.UpdateTask{
		ID:        task.ID,
		CreatorID: task.CreatorID,
		Status:    &completed,
	})
	require.NoError(t, err)
	require.Equal(t, store.TaskStatusCompleted, updated.Status)
	require.Equal(t, "Buy groceries", updated.Title)

	err = ts.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: task.CreatorID})
	require.NoError(t, err)

	found, err := ts.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: &task.CreatorID})
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestTaskTenantIsolation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	mine, err := ts.CreateTask(ctx, &store.Task{CreatorID: 1, Title: "mine"})
	require.NoError(t, err)
	_, err = ts.CreateTask(ctx, &store.Task{CreatorID: 2, Title: "theirs"})
	require.NoError(t, err)

	creator := int32(1)
	list, err := ts.ListTasks(ctx, &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "mine", list[0].Title)

	// Cross-tenant update and delete behave as if the row does not exist.
	otherCreator := int32(2)
	title := "hijacked"
	_, err = ts.UpdateTask(ctx, &store.UpdateTask{
		ID:        mine.ID,
		CreatorID: otherCreator,
		Title:     &title,
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	err = ts.DeleteTask(ctx, &store.DeleteTask{ID: mine.ID, CreatorID: otherCreator})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskFilters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	creator := int32(1)
	_, err := ts.CreateTask(ctx, &store.Task{CreatorID: creator, Title: "Walk the dog", CreatedTs: 100})
	require.NoError(t, err)
	laundry, err := ts.CreateTask(ctx, &store.Task{CreatorID: creator, Title: "Do the Laundry", CreatedTs: 200})
	require.NoError(t, err)

	completed := store.TaskStatusCompleted
	_, err = ts.UpdateTask(ctx, &store.UpdateTask{ID: laundry.ID, CreatorID: creator, Status: &completed})
	require.NoError(t, err)

	pending := store.TaskStatusPending
	list, err := ts.ListTasks(ctx, &store.FindTask{CreatorID: &creator, Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Walk the dog", list[0].Title)

	// Title matching is case-insensitive substring.
	needle := "laundry"
	list, err = ts.ListTasks(ctx, &store.FindTask{CreatorID: &creator, TitleContains: &needle})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, laundry.ID, list[0].ID)

	// Listing is oldest first.
	list, err = ts.ListTasks(ctx, &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Walk the dog", list[0].Title)
}
