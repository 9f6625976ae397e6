package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/auth"
	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// AuditLog appends one row per entity mutation.
type AuditLog struct {
	store auditStore
}

func NewAuditLog(store auditStore) *AuditLog {
	return &AuditLog{store: store}
}

// Record snapshots oldValue and newValue as JSON. Either may be nil.
func (a *AuditLog) Record(ctx context.Context, tx *sql.Tx, table string, recordID int64, op domain.AuditOperation, oldValue, newValue any) error {
	oldJSON, err := snapshot(oldValue)
	if err != nil {
		return fmt.Errorf("Record: old value: %w", err)
	}
	newJSON, err := snapshot(newValue)
	if err != nil {
		return fmt.Errorf("Record: new value: %w", err)
	}

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		actor = domain.SystemActor
	}

	entry := &domain.AuditEntry{
		TableName: table,
		RecordID:  recordID,
		Operation: op,
		OldValues: oldJSON,
		NewValues: newJSON,
		Actor:     actor,
	}
	if err := a.store.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
