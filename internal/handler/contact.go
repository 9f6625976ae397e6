package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
)

type contactService interface {
	CreateContact(ctx context.Context, req service.CreateContactRequest) (*domain.Contact, error)
	DeactivateContact(ctx context.Context, id int64) error
	ListContacts(ctx context.Context, includeInactive bool) ([]domain.Contact, error)
	GetContact(ctx context.Context, id int64) (*domain.Contact, error)
}

type ContactHandler struct {
	contacts contactService
}

func NewContactHandler(contacts contactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

type createContactRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	IsSupplier bool    `json:"is_supplier"`
	IsCustomer bool    `json:"is_customer"`
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if !decodeValid(w, r, &req) {
		return
	}

	c, err := h.contacts.CreateContact(r.Context(), service.CreateContactRequest{
		Name:       req.Name,
		Phone:      req.Phone,
		Address:    req.Address,
		IsSupplier: req.IsSupplier,
		IsCustomer: req.IsCustomer,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("contact creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/contacts/%d", c.ID))
	RespondSuccess(w, http.StatusCreated, c)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.ListContacts(r.Context(), includeInactive(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	c, err := h.contacts.GetContact(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

func (h *ContactHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.contacts.DeactivateContact(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("contact deactivation failed", "error", err, "contact_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
