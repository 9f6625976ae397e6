package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const paymentColumns = `payment_id, contact_id, payment_date, amount, payment_type,
	payment_account_id, reference_number, notes, created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO payments (
			contact_id, payment_date, amount, payment_type, payment_account_id,
			reference_number, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING payment_id, created_at`,
		p.ContactID, p.PaymentDate, p.Amount, p.PaymentType, p.PaymentAccountID,
		p.ReferenceNumber, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "payment", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1 FOR UPDATE`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "payment", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "payments", "payment_id", "payment", id)
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.ContactID, &p.PaymentDate, &p.Amount, &p.PaymentType,
		&p.PaymentAccountID, &p.ReferenceNumber, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
