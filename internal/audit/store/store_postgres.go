package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taskboard/internal/audit"
	txcontext "taskboard/pkg/platform/tx"
)

// PostgresStore persists audit records in the audit_logs table. Appends join
// the caller's transaction when one is in context, so an audit row commits or
// rolls back atomically with the entity mutation it describes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, record *audit.Record) error {
	changed, err := json.Marshal(record.Changes)
	if err != nil {
		return fmt.Errorf("marshal changed fields: %w", err)
	}

	query := `
		INSERT INTO audit_logs (table_name, record_id, operation, changed_data, changed_at, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = s.querier(ctx).QueryRowContext(ctx, query,
		record.EntityTable,
		record.EntityID,
		string(record.Operation),
		changed,
		record.OccurredAt,
		record.ActorID,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]audit.Record, error) {
	query := `
		SELECT id, table_name, record_id, operation, changed_data, changed_at, changed_by
		FROM audit_logs
	`
	args := []any{}
	if q.EntityID != nil {
		query += ` WHERE table_name = $1 AND record_id = $2`
		args = append(args, q.EntityTable, *q.EntityID)
	}
	query += fmt.Sprintf(` ORDER BY changed_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit)

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	var records []audit.Record
	for rows.Next() {
		var (
			rec       audit.Record
			operation string
			changed   []byte
			actorID   sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.EntityTable, &rec.EntityID, &operation, &changed, &rec.OccurredAt, &actorID); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		rec.Operation = audit.Operation(operation)
		if len(changed) > 0 {
			if err := json.Unmarshal(changed, &rec.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changed fields: %w", err)
			}
		}
		if actorID.Valid {
			rec.ActorID = &actorID.Int64
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return records, nil
}
