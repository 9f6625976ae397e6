package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// Journal is the append-only store of postings grouped by transaction ref.
type Journal struct {
	entries journalStore
}

func NewJournal(entries journalStore) *Journal {
	return &Journal{entries: entries}
}

func (j *Journal) Post(ctx context.Context, tx *sql.Tx, e *domain.JournalEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("Post: %w", err)
	}
	if err := j.entries.Create(ctx, tx, e); err != nil {
		return fmt.Errorf("Post: %w", err)
	}
	return nil
}

func (j *Journal) EntriesFor(ctx context.Context, tx *sql.Tx, ref string) ([]domain.JournalEntry, error) {
	entries, err := j.entries.GetByRef(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("EntriesFor: %w", err)
	}
	return entries, nil
}

func (j *Journal) DeleteEntriesFor(ctx context.Context, tx *sql.Tx, ref string) (int64, error) {
	n, err := j.entries.DeleteByRef(ctx, tx, ref)
	if err != nil {
		return 0, fmt.Errorf("DeleteEntriesFor: %w", err)
	}
	return n, nil
}
