package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const contactColumns = `contact_id, name, phone, address, is_supplier, is_customer, is_active, created_at`

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Contact) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO contacts (name, phone, address, is_supplier, is_customer, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING contact_id, is_active, created_at`,
		c.Name, c.Phone, c.Address, c.IsSupplier, c.IsCustomer,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = $1`, id,
	)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "contact", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// GetForShare reads the contact under a share lock so it cannot be
// deactivated while a transaction references it.
func (r *ContactRepository) GetForShare(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contact, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = $1 FOR SHARE`, id,
	)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForShare: %w", &domain.NotFoundError{Entity: "contact", ID: id})
		}
		return nil, fmt.Errorf("GetForShare: %w", err)
	}
	return c, nil
}

func (r *ContactRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contact, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = $1 FOR UPDATE`, id,
	)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "contact", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *ContactRepository) List(ctx context.Context, includeInactive bool) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE is_active OR $1 ORDER BY name`, includeInactive,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

// CountDependents counts purchases, sales and payments naming the contact.
func (r *ContactRepository) CountDependents(ctx context.Context, tx *sql.Tx, id int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM purchases WHERE supplier_id = $1) +
			(SELECT COUNT(*) FROM sales WHERE customer_id = $1) +
			(SELECT COUNT(*) FROM payments WHERE contact_id = $1)`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountDependents: %w", err)
	}
	return n, nil
}

func (r *ContactRepository) Deactivate(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE contacts SET is_active = FALSE WHERE contact_id = $1`, id); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func scanContact(s scanner) (*domain.Contact, error) {
	var c domain.Contact
	err := s.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.IsSupplier, &c.IsCustomer, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
