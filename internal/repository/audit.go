package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.AuditEntry) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO audit_log (table_name, record_id, operation, old_values, new_values, user_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING log_id, timestamp`,
		e.TableName, e.RecordID, e.Operation, nullableJSON(e.OldValues), nullableJSON(e.NewValues), e.Actor,
	).Scan(&e.ID, &e.Timestamp)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByRecord(ctx context.Context, table string, recordID int64) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT log_id, table_name, record_id, operation, old_values, new_values, user_name, timestamp
		FROM audit_log WHERE table_name = $1 AND record_id = $2 ORDER BY log_id`,
		table, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByRecord: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var oldValues, newValues []byte
		err := rows.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Operation, &oldValues, &newValues, &e.Actor, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("ListByRecord: scan: %w", err)
		}
		e.OldValues = oldValues
		e.NewValues = newValues
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRecord: rows: %w", err)
	}
	return out, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
