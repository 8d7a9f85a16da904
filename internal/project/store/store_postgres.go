package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"taskboard/internal/project"
	"taskboard/pkg/platform/sentinel"
	txcontext "taskboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore implements ProjectStore and MemberStore over the projects and
// project_members tables.
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

const projectColumns = `id, title, description, created_by, created_at, updated_at, is_deleted`

func (s *PostgresStore) Create(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (title, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		p.Title, p.Description, p.CreatedBy, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (project.Project, error) {
	var p project.Project
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND is_deleted = FALSE`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, sentinel.ErrNotFound
	}
	if err != nil {
		return project.Project{}, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE is_deleted = FALSE ORDER BY created_at DESC, id DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) Update(ctx context.Context, p project.Project) error {
	query := `
		UPDATE projects
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1 AND is_deleted = FALSE
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, p.ID, p.Title, p.Description, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE projects SET is_deleted = TRUE, updated_at = now() WHERE id = $1 AND is_deleted = FALSE`, id,
	)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IDsCreatedBy(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id FROM projects WHERE created_by = $1 AND is_deleted = FALSE`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query created projects: %w", err)
	}
	return scanIDs(rows)
}

func (s *PostgresStore) Add(ctx context.Context, m *project.Member) error {
	query := `
		INSERT INTO project_members (project_id, user_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query, m.ProjectID, m.UserID, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, projectID, userID int64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID int64) ([]project.Member, error) {
	query := `
		SELECT id, project_id, user_id, created_at
		FROM project_members
		WHERE project_id = $1
		ORDER BY id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []project.Member
	for rows.Next() {
		var m project.Member
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) ProjectIDsFor(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT project_id FROM project_members WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	return scanIDs(rows)
}

func (s *PostgresStore) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return exists, nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
