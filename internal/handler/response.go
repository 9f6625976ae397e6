package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// validationCauses picks the most specific code for a ValidationError. Order
// matters only when a cause wraps another.
var validationCauses = []struct {
	cause  error
	appErr *AppError
}{
	{domain.ErrInsufficientStock, ErrInsufficientStock},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidQuantity, ErrInvalidQuantity},
	{domain.ErrUnbalancedEntry, ErrUnbalancedEntry},
	{domain.ErrHasDependents, ErrHasDependents},
	{domain.ErrReturnExceedsOriginal, ErrReturnExceeds},
	{domain.ErrInactive, ErrInactiveRecord},
	{domain.ErrInvalidAccount, ErrInvalidAccount},
	{domain.ErrInvalidPricingUnit, ErrInvalidPricingUnit},
}

// RespondDomainError maps the domain error taxonomy onto HTTP. Validation and
// not-found errors carry their message, since it names the offending input.
func RespondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		appErr := ErrBusinessRule
		for _, c := range validationCauses {
			if errors.Is(err, c.cause) {
				appErr = c.appErr
				break
			}
		}
		RespondAppError(w, withMessage(appErr, err), nil)
	case errors.Is(err, domain.ErrNotFound):
		RespondAppError(w, withMessage(ErrResourceNotFound, err), nil)
	case errors.Is(err, domain.ErrConsistency):
		slog.Error("ledger inconsistency", "error", err)
		RespondAppError(w, ErrLedgerInconsistency, nil)
	case errors.Is(err, domain.ErrPersistence):
		slog.Error("persistence failure", "error", err)
		RespondAppError(w, ErrPersistenceFailure, nil)
	default:
		slog.Error("unhandled domain error", "error", err)
		RespondAppError(w, ErrInternalError, nil)
	}
}

func withMessage(appErr *AppError, err error) *AppError {
	return &AppError{Status: appErr.Status, Code: appErr.Code, Message: innermostMessage(err)}
}

// innermostMessage strips the "Op: " prefixes that service layers add.
func innermostMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return err.Error()
}
