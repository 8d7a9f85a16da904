package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"taskboard/internal/task"
	"taskboard/pkg/platform/sentinel"
	txcontext "taskboard/pkg/platform/tx"
)

// PostgresStore implements Store over the tasks table.
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

const taskColumns = `id, title, description, status, priority, due_date, assigned_to,
	project_id, created_by, updated_by, created_at, updated_at, is_deleted`

func (s *PostgresStore) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (title, description, status, priority, due_date, assigned_to,
			project_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssignedTo,
		t.ProjectID, t.CreatedBy, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (task.Task, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND is_deleted = FALSE`, id,
	)
	t, err := scanTaskRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, sentinel.ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) List(ctx context.Context, q ListQuery) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE is_deleted = FALSE`
	var args []any
	switch {
	case q.ProjectID != nil:
		args = append(args, *q.ProjectID)
		query += ` AND project_id = $1`
	case q.ProjectIDs != nil:
		args = append(args, pq.Array(q.ProjectIDs))
		query += ` AND project_id = ANY($1)`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) Update(ctx context.Context, t task.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
			assigned_to = $7, updated_by = $8, updated_at = $9, is_deleted = $10
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		t.AssignedTo, t.UpdatedBy, t.UpdatedAt, t.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE title = $1 AND id <> $2 AND is_deleted = FALSE)`,
		title, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query task title: %w", err)
	}
	return exists, nil
}

func scanTaskRow(scan func(dest ...any) error) (task.Task, error) {
	var t task.Task
	var due sql.Null[task.Date]
	err := scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &due, &t.AssignedTo,
		&t.ProjectID, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted,
	)
	if err != nil {
		return task.Task{}, err
	}
	if due.Valid {
		d := due.V
		t.DueDate = &d
	}
	return t, nil
}
