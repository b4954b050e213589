// Package stats provides simple per-user usage statistics. This is a
// lightweight alternative to an external monitoring stack for a personal
// assistant deployment.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/taskpilot/store"
)

// Stats represents one user's usage statistics at collection time.
type Stats struct {
	TotalTasks     int64
	PendingTasks   int64
	CompletedTasks int64

	TotalConversations int64
	TotalMessages      int64

	TasksCreatedLastWeek int64

	LastUpdated time.Time
}

// Collector computes usage statistics from the store.
type Collector struct {
	store *store.Store
}

// NewCollector creates a new statistics collector.
func NewCollector(st *store.Store) *Collector {
	return &Collector{store: st}
}

// Collect computes the statistics for one user.
func (c *Collector) Collect(ctx context.Context, userID int32) (*Stats, error) {
	stats := &Stats{LastUpdated: time.Now()}

	tasks, err := c.store.ListTasks(ctx, &store.FindTask{CreatorID: &userID})
	if err != nil {
		return nil, err
	}
	weekAgo := time.Now().AddDate(0, 0, -7).Unix()
	for _, task := range tasks {
		stats.TotalTasks++
		switch task.Status {
		case store.TaskStatusPending:
			stats.PendingTasks++
		case store.TaskStatusCompleted:
			stats.CompletedTasks++
		}
		if task.CreatedTs >= weekAgo {
			stats.TasksCreatedLastWeek++
		}
	}

	conversations, err := c.store.ListConversations(ctx, &store.FindConversation{CreatorID: &userID})
	if err != nil {
		return nil, err
	}
	stats.TotalConversations = int64(len(conversations))

	for _, conversation := range conversations {
		messages, err := c.store.ListMessages(ctx, &store.FindMessage{
			ConversationID: &conversation.ID,
			CreatorID:      &userID,
		})
		if err != nil {
			return nil, err
		}
		stats.TotalMessages += int64(len(messages))
	}

	return stats, nil
}

// GetSummary returns a human-readable summary of the statistics.
func (s *Stats) GetSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tasks: %d total, %d pending, %d completed\n",
		s.TotalTasks, s.PendingTasks, s.CompletedTasks)
	fmt.Fprintf(&b, "Created last week: %d\n", s.TasksCreatedLastWeek)
	fmt.Fprintf(&b, "Conversations: %d (%d messages)\n",
		s.TotalConversations, s.TotalMessages)
	fmt.Fprintf(&b, "Updated: %s", s.LastUpdated.Format(time.RFC3339))
	return b.String()
}
