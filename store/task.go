package store

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is a todo item. Status transitions one way only, pending to completed.
type Task struct {
	ID          int32
	UID         string
	CreatorID   int32
	Title       string
	Description string
	Status      TaskStatus
	CreatedTs   int64
	UpdatedTs   int64
}

type FindTask struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Status    *TaskStatus
	// TitleContains matches case-insensitively on a substring of the title.
	TitleContains *string
}

type UpdateTask struct {
	ID          int32
	CreatorID   int32
	Title       *string
	Description *string
	Status      *TaskStatus
	UpdatedTs   *int64
}

type DeleteTask struct {
	ID        int32
	CreatorID int32
}
