package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/comment"
	"taskboard/pkg/platform/sentinel"
	txcontext "taskboard/pkg/platform/tx"
)

// PostgresStore implements Store over the comments table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, c *comment.Comment) error {
	query := `
		INSERT INTO comments (task_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		c.TaskID, c.UserID, c.Content, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (comment.Comment, error) {
	var c comment.Comment
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, task_id, user_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1 AND is_deleted = FALSE
	`, id).Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return comment.Comment{}, sentinel.ErrNotFound
	}
	if err != nil {
		return comment.Comment{}, fmt.Errorf("query comment: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByTask(ctx context.Context, taskID int64) ([]comment.Comment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, task_id, user_id, content, created_at, updated_at
		FROM comments
		WHERE task_id = $1 AND is_deleted = FALSE
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []comment.Comment
	for rows.Next() {
		var c comment.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE, updated_at = now() WHERE id = $1 AND is_deleted = FALSE`, id,
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
