package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/taskpilot/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"uid", "creator_id", "version", "created_ts", "updated_ts"}
	args := []any{create.UID, create.CreatorID, create.Version, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO conversation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, creator_id, version, created_ts, updated_ts FROM conversation
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC, id DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Conversation, 0)
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.UID, &c.CreatorID, &c.Version, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return list, nil
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	fields := []string{"uid", "conversation_id", "creator_id", "role", "content", "tool_calls", "created_ts"}
	args := []any{create.UID, create.ConversationID, create.CreatorID, string(create.Role), create.Content, create.ToolCalls, create.CreatedTs}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	order := "ORDER BY created_ts ASC, id ASC"
	if find.OrderByCreatedTsDesc {
		order = "ORDER BY created_ts DESC, id DESC"
	}

	query := `SELECT id, uid, conversation_id, creator_id, role, content, tool_calls, created_ts FROM message
		WHERE ` + strings.Join(where, " AND ") + ` ` + order
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		var role string
		if err := rows.Scan(&m.ID, &m.UID, &m.ConversationID, &m.CreatorID, &role, &m.Content, &m.ToolCalls, &m.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = store.MessageRole(role)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}

func (d *DB) CompleteExchange(ctx context.Context, msg *store.Message, expectedVersion int32) (*store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Conditional compare-and-increment on the version loaded at the start
	// of the exchange. Zero affected rows means a concurrent exchange
	// committed first.
	result, err := tx.ExecContext(ctx,
		`UPDATE conversation SET version = version + 1, updated_ts = ? WHERE id = ? AND creator_id = ? AND version = ?`,
		msg.CreatedTs, msg.ConversationID, msg.CreatorID, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to advance conversation version: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return nil, store.ErrVersionConflict
	}

	stmt := `INSERT INTO message (uid, conversation_id, creator_id, role, content, tool_calls, created_ts)
		VALUES (` + placeholders(7) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, stmt,
		msg.UID, msg.ConversationID, msg.CreatorID, string(msg.Role), msg.Content, msg.ToolCalls, msg.CreatedTs,
	).Scan(&msg.ID); err != nil {
		return nil, fmt.Errorf("failed to create assistant message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exchange: %w", err)
	}
	return msg, nil
}
