package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"taskboard/internal/identity"
	"taskboard/pkg/platform/sentinel"
	txcontext "taskboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore implements UserStore and RoleStore over the users, roles, and
// user_roles tables.
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

const userColumns = `id, username, email, password, created_at, updated_at, is_deleted`

func (s *PostgresStore) Create(ctx context.Context, user *identity.User) error {
	query := `
		INSERT INTO users (username, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		user.Username, user.Email, user.Password, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (identity.User, error) {
	return s.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_deleted = FALSE`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (identity.User, error) {
	return s.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND is_deleted = FALSE`, email)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (identity.User, error) {
	return s.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 AND is_deleted = FALSE`, username)
}

func (s *PostgresStore) findUser(ctx context.Context, query string, arg any) (identity.User, error) {
	var user identity.User
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password,
		&user.CreatedAt, &user.UpdatedAt, &user.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user identity.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password = $4, updated_at = $5, is_deleted = $6
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Password, user.UpdatedAt, user.IsDeleted,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]identity.Profile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_deleted = FALSE ORDER BY username`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []identity.Profile
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, identity.ProfileOf(user))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// FindProfiles resolves user IDs to profiles with a single query; soft-deleted
// and unknown users are simply absent from the result.
func (s *PostgresStore) FindProfiles(ctx context.Context, ids []int64) (map[int64]identity.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) AND is_deleted = FALSE`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[int64]identity.Profile, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		profiles[user.ID] = identity.ProfileOf(user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (identity.Role, error) {
	var role identity.Role
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Role{}, sentinel.ErrNotFound
	}
	if err != nil {
		return identity.Role{}, fmt.Errorf("query role: %w", err)
	}
	return role, nil
}

func (s *PostgresStore) RoleOf(ctx context.Context, userID int64) (string, error) {
	var name string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
	`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.RoleUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("query user role: %w", err)
	}
	return name, nil
}

func (s *PostgresStore) Assign(ctx context.Context, userID, roleID int64) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func scanUser(rows *sql.Rows) (identity.User, error) {
	var user identity.User
	if err := rows.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password,
		&user.CreatedAt, &user.UpdatedAt, &user.IsDeleted,
	); err != nil {
		return identity.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
