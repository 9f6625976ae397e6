package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
)

type fakePurchaseService struct {
	added   *trading.PurchaseRequest
	addErr  error
	deleted int64
}

func (f *fakePurchaseService) AddPurchase(_ context.Context, req trading.PurchaseRequest) (*domain.Purchase, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = &req
	return &domain.Purchase{ID: 7, CropID: req.CropID, SupplierID: req.SupplierID, QuantityKg: req.QuantityKg}, nil
}

func (f *fakePurchaseService) UpdatePurchase(_ context.Context, id int64, req trading.PurchaseRequest) (*trading.PurchaseUpdate, error) {
	return &trading.PurchaseUpdate{PreviousID: id, Purchase: &domain.Purchase{ID: id + 1, QuantityKg: req.QuantityKg}}, nil
}

func (f *fakePurchaseService) DeletePurchase(_ context.Context, id int64) error {
	if id == 99 {
		return &domain.NotFoundError{Entity: "purchase", ID: id}
	}
	f.deleted = id
	return nil
}

func (f *fakePurchaseService) GetPurchase(_ context.Context, id int64) (*domain.Purchase, error) {
	return &domain.Purchase{ID: id}, nil
}

func (f *fakePurchaseService) AddPurchaseReturn(_ context.Context, req trading.PurchaseReturnRequest) (*domain.PurchaseReturn, error) {
	return &domain.PurchaseReturn{ID: 3, OriginalPurchaseID: req.PurchaseID, QuantityKg: req.QuantityKg}, nil
}

func (f *fakePurchaseService) DeletePurchaseReturn(context.Context, int64) error { return nil }

func (f *fakePurchaseService) GetPurchaseReturn(_ context.Context, id int64) (*domain.PurchaseReturn, error) {
	return &domain.PurchaseReturn{ID: id}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string       `json:"code"`
		Message string       `json:"message"`
		Details []FieldError `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serve(h http.HandlerFunc, method, pattern, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPurchaseHandler_Create(t *testing.T) {
	svc := &fakePurchaseService{}
	h := NewPurchaseHandler(svc)

	rec := serve(h.Create, http.MethodPost, "/api/v1/purchases", "/api/v1/purchases",
		`{"crop_id":1,"supplier_id":2,"purchase_date":"2026-03-01","quantity_kg":"100","unit_price":"2.5","amount_paid":"50","payment_account_id":10101}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/purchases/7", rec.Header().Get("Location"))
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"purchase_id":7`)

	require.NotNil(t, svc.added)
	assert.True(t, decimal.NewFromInt(100).Equal(svc.added.QuantityKg))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), svc.added.PurchaseDate)
	require.NotNil(t, svc.added.PaymentAccountID)
	assert.Equal(t, int64(10101), *svc.added.PaymentAccountID)
}

func TestPurchaseHandler_CreateRejectsBadInput(t *testing.T) {
	h := NewPurchaseHandler(&fakePurchaseService{})

	t.Run("malformed json", func(t *testing.T) {
		rec := serve(h.Create, http.MethodPost, "/api/v1/purchases", "/api/v1/purchases", `{"crop_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("field validation", func(t *testing.T) {
		rec := serve(h.Create, http.MethodPost, "/api/v1/purchases", "/api/v1/purchases",
			`{"crop_id":1,"supplier_id":0,"quantity_kg":"-5","unit_price":"3","purchase_date":"01/03/2026"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
		var fields []string
		for _, fe := range env.Error.Details {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"supplier_id", "quantity_kg", "purchase_date"}, fields)
	})
}

func TestPurchaseHandler_CreateNegativeAmountPaid(t *testing.T) {
	svc := &fakePurchaseService{}
	h := NewPurchaseHandler(svc)

	rec := serve(h.Create, http.MethodPost, "/api/v1/purchases", "/api/v1/purchases",
		`{"crop_id":1,"supplier_id":2,"quantity_kg":"100","unit_price":"2.5","amount_paid":"-10","payment_account_id":10101}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.added)
	assert.Equal(t, "-10", svc.added.AmountPaid.String())
}

func TestRequestDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := requestDate(rec, "sale_date", "2026-03-01")
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("malformed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := requestDate(rec, "sale_date", "2026-02-30")
		assert.False(t, ok)
		assert.True(t, got.IsZero())
		require.Equal(t, http.StatusBadRequest, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "sale_date", env.Error.Details[0].Field)
	})

	_, err := parseDate("14/03/2026")
	assert.Error(t, err)
}

func TestPurchaseHandler_DomainFailures(t *testing.T) {
	svc := &fakePurchaseService{
		addErr: fmt.Errorf("AddPurchase: %w",
			domain.NewValidationError(domain.ErrInactive, "crop 1 is inactive")),
	}
	h := NewPurchaseHandler(svc)

	rec := serve(h.Create, http.MethodPost, "/api/v1/purchases", "/api/v1/purchases",
		`{"crop_id":1,"supplier_id":2,"quantity_kg":"1","unit_price":"1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "RECORD_INACTIVE", env.Error.Code)
	assert.Contains(t, env.Error.Message, "crop 1 is inactive")
	assert.NotContains(t, env.Error.Message, "AddPurchase")

	rec = serve(h.Delete, http.MethodDelete, "/api/v1/purchases/{id}", "/api/v1/purchases/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseHandler_UpdateAndDelete(t *testing.T) {
	svc := &fakePurchaseService{}
	h := NewPurchaseHandler(svc)

	rec := serve(h.Update, http.MethodPut, "/api/v1/purchases/{id}", "/api/v1/purchases/4",
		`{"crop_id":1,"supplier_id":2,"quantity_kg":"12","unit_price":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/purchases/5", rec.Header().Get("Location"))

	var upd struct {
		PreviousID int64 `json:"previous_id"`
		Purchase   struct {
			ID int64 `json:"purchase_id"`
		} `json:"purchase"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &upd))
	assert.Equal(t, int64(4), upd.PreviousID)
	assert.Equal(t, int64(5), upd.Purchase.ID)

	rec = serve(h.Delete, http.MethodDelete, "/api/v1/purchases/{id}", "/api/v1/purchases/4", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(4), svc.deleted)

	rec = serve(h.Delete, http.MethodDelete, "/api/v1/purchases/{id}", "/api/v1/purchases/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseHandler_CreateReturn(t *testing.T) {
	h := NewPurchaseHandler(&fakePurchaseService{})

	rec := serve(h.CreateReturn, http.MethodPost, "/api/v1/purchases/{id}/returns", "/api/v1/purchases/8/returns",
		`{"quantity_kg":"2.5","reason":"moldy"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/purchase-returns/3", rec.Header().Get("Location"))
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"original_purchase_id":8`)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient stock", domain.NewValidationError(domain.ErrInsufficientStock, "only 3 kg"), 422, "INSUFFICIENT_STOCK"},
		{"has dependents", domain.NewValidationError(domain.ErrHasDependents, "sale has returns"), 422, "HAS_DEPENDENTS"},
		{"return exceeds", domain.NewValidationError(domain.ErrReturnExceedsOriginal, "too much"), 422, "RETURN_EXCEEDS_ORIGINAL"},
		{"plain validation", domain.NewValidationError(nil, "bad"), 422, "BUSINESS_RULE_VIOLATION"},
		{"not found", fmt.Errorf("GetSale: %w", &domain.NotFoundError{Entity: "sale", ID: 4}), 404, "RESOURCE_NOT_FOUND"},
		{"consistency", &domain.ConsistencyError{Ref: "PUR-1", Reason: "no entries"}, 409, "LEDGER_INCONSISTENCY"},
		{"persistence", &domain.PersistenceError{Err: errors.New("conn reset")}, 500, "PERSISTENCE_FAILURE"},
		{"unknown", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeEnvelope(t, rec).Error.Code)
		})
	}
}

type fakeCropService struct {
	created *service.CreateCropRequest
}

func (f *fakeCropService) CreateCrop(_ context.Context, req service.CreateCropRequest) (*domain.Crop, error) {
	f.created = &req
	return &domain.Crop{ID: 1, Name: req.Name, PricingUnits: req.PricingUnits, IsActive: true}, nil
}

func (f *fakeCropService) DeactivateCrop(context.Context, int64) error { return nil }

func (f *fakeCropService) ListCrops(_ context.Context, includeInactive bool) ([]domain.Crop, error) {
	crops := []domain.Crop{{ID: 1, IsActive: true}}
	if includeInactive {
		crops = append(crops, domain.Crop{ID: 2})
	}
	return crops, nil
}

func (f *fakeCropService) GetCrop(_ context.Context, id int64) (*domain.Crop, error) {
	return &domain.Crop{ID: id}, nil
}

func TestCropHandler(t *testing.T) {
	svc := &fakeCropService{}
	h := NewCropHandler(svc)

	rec := serve(h.Create, http.MethodPost, "/api/v1/crops", "/api/v1/crops",
		`{"crop_name":"Maize","allowed_pricing_units":[{"name":"bag","factors":[50,100]}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	require.Len(t, svc.created.PricingUnits, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(svc.created.PricingUnits[0].Factors[1]))

	rec = serve(h.Create, http.MethodPost, "/api/v1/crops", "/api/v1/crops",
		`{"crop_name":"Maize","allowed_pricing_units":[{"name":"bag","factors":[0]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h.List, http.MethodGet, "/api/v1/crops", "/api/v1/crops?include_inactive=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var crops []domain.Crop
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &crops))
	assert.Len(t, crops, 2)
}

type fakeJournalService struct{}

func (fakeJournalService) AddManualEntry(_ context.Context, req trading.ManualEntryRequest) (*trading.Posting, error) {
	return &trading.Posting{Ref: "MAN-abc"}, nil
}

func (fakeJournalService) AddExpense(context.Context, trading.ExpenseRequest) (*trading.Posting, error) {
	return &trading.Posting{Ref: "EXP-abc"}, nil
}

func (fakeJournalService) DeleteJournalEntry(_ context.Context, ref string) error {
	if !strings.HasPrefix(ref, "MAN-") && !strings.HasPrefix(ref, "EXP-") {
		return domain.NewValidationError(nil, "%s belongs to a record", ref)
	}
	return nil
}

func (fakeJournalService) EntriesFor(_ context.Context, ref string) ([]domain.JournalEntry, error) {
	return []domain.JournalEntry{{TransactionRef: ref}}, nil
}

type fakeIntegrity struct{ report service.IntegrityReport }

func (f fakeIntegrity) Check(context.Context) (*service.IntegrityReport, error) {
	return &f.report, nil
}

func TestJournalHandler(t *testing.T) {
	h := NewJournalHandler(fakeJournalService{}, fakeIntegrity{})

	rec := serve(h.CreateManual, http.MethodPost, "/api/v1/journal/manual", "/api/v1/journal/manual",
		`{"debit_account_id":10101,"credit_account_id":10101,"amount":"5","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "same account on both sides")

	rec = serve(h.CreateManual, http.MethodPost, "/api/v1/journal/manual", "/api/v1/journal/manual",
		`{"debit_account_id":10101,"credit_account_id":10102,"amount":"5","description":"float"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/journal/MAN-abc", rec.Header().Get("Location"))

	rec = serve(h.Delete, http.MethodDelete, "/api/v1/journal/{ref}", "/api/v1/journal/SAL-4", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(h.Delete, http.MethodDelete, "/api/v1/journal/{ref}", "/api/v1/journal/EXP-abc", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h.Integrity, http.MethodGet, "/api/v1/ledger/integrity", "/api/v1/ledger/integrity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"ok":true`)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, "test").Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}, "test").Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"down"`)
}
