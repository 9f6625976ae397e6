package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

const tableContacts = "contacts"

type CreateContactRequest struct {
	Name       string
	Phone      *string
	Address    *string
	IsSupplier bool
	IsCustomer bool
}

type ContactService struct {
	db       txRunner
	contacts contactRepository
	audit    auditor
}

func NewContactService(db txRunner, contacts contactRepository, audit auditor) *ContactService {
	return &ContactService{db: db, contacts: contacts, audit: audit}
}

func (s *ContactService) CreateContact(ctx context.Context, req CreateContactRequest) (*domain.Contact, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("CreateContact: %w", domain.NewValidationError(nil, "contact name is required"))
	}
	if !req.IsSupplier && !req.IsCustomer {
		return nil, fmt.Errorf("CreateContact: %w", domain.NewValidationError(nil, "contact must be a supplier, a customer or both"))
	}

	contact := &domain.Contact{
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Address:    req.Address,
		IsSupplier: req.IsSupplier,
		IsCustomer: req.IsCustomer,
	}
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.contacts.Create(ctx, tx, contact); err != nil {
			return err
		}
		return s.audit.Audit(ctx, tx, tableContacts, contact.ID, domain.AuditInsert, nil, contact)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateContact: %w", err)
	}

	logging.FromContext(ctx).Info("contact created", "contact_id", contact.ID)
	return contact, nil
}

// DeactivateContact soft-deletes a contact nothing has traded with, so the
// ledger history stays intact.
func (s *ContactService) DeactivateContact(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		contact, err := s.contacts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !contact.IsActive {
			return nil
		}

		n, err := s.contacts.CountDependents(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewValidationError(domain.ErrHasDependents, "contact %d has %d transactions", id, n)
		}

		if err := s.contacts.Deactivate(ctx, tx, id); err != nil {
			return err
		}
		updated := *contact
		updated.IsActive = false
		return s.audit.Audit(ctx, tx, tableContacts, id, domain.AuditUpdate, contact, &updated)
	})
	if err != nil {
		return fmt.Errorf("DeactivateContact: %w", err)
	}

	logging.FromContext(ctx).Info("contact deactivated", "contact_id", id)
	return nil
}

func (s *ContactService) ListContacts(ctx context.Context, includeInactive bool) ([]domain.Contact, error) {
	contacts, err := s.contacts.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("ListContacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetContact: %w", err)
	}
	return contact, nil
}
