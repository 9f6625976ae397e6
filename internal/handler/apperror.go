package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken          = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken          = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest        = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed      = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound      = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError         = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}

	ErrBusinessRule        = &AppError{http.StatusUnprocessableEntity, "BUSINESS_RULE_VIOLATION", "Request violates a business rule"}
	ErrInsufficientStock   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Not enough stock on hand"}
	ErrInvalidAmount       = &AppError{http.StatusUnprocessableEntity, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidQuantity     = &AppError{http.StatusUnprocessableEntity, "INVALID_QUANTITY", "Quantity must be greater than zero"}
	ErrUnbalancedEntry     = &AppError{http.StatusUnprocessableEntity, "UNBALANCED_ENTRY", "Debits and credits do not balance"}
	ErrHasDependents       = &AppError{http.StatusUnprocessableEntity, "HAS_DEPENDENTS", "Record has dependent transactions"}
	ErrReturnExceeds       = &AppError{http.StatusUnprocessableEntity, "RETURN_EXCEEDS_ORIGINAL", "Return exceeds the original transaction"}
	ErrInactiveRecord      = &AppError{http.StatusUnprocessableEntity, "RECORD_INACTIVE", "Record is inactive"}
	ErrInvalidAccount      = &AppError{http.StatusUnprocessableEntity, "INVALID_ACCOUNT", "Account cannot be used here"}
	ErrInvalidPricingUnit  = &AppError{http.StatusUnprocessableEntity, "INVALID_PRICING_UNIT", "Invalid pricing unit"}
	ErrLedgerInconsistency = &AppError{http.StatusConflict, "LEDGER_INCONSISTENCY", "The ledger does not match the record"}
	ErrPersistenceFailure  = &AppError{http.StatusInternalServerError, "PERSISTENCE_FAILURE", "The change could not be stored"}
)
