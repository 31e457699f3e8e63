package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// stubSolicitudeService lets each test wire only the methods it exercises.
type stubSolicitudeService struct {
	createFn      func(ctx context.Context, ownerID string, in ports.CreateSolicitudeInput) (*domain.Solicitude, error)
	getFn         func(ctx context.Context, id string, caller ports.Caller) (*domain.Solicitude, error)
	listFn        func(ctx context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error)
	updateFn      func(ctx context.Context, id, ownerID string, in ports.UpdateSolicitudeInput) (*domain.Solicitude, error)
	submitFn      func(ctx context.Context, id, ownerID string) (*domain.Solicitude, error)
	cancelFn      func(ctx context.Context, id, ownerID, reason string) (*domain.Solicitude, error)
	softDeleteFn  func(ctx context.Context, id, ownerID string) (*domain.Solicitude, error)
	listPendingFn func(ctx context.Context, caller ports.Caller) ([]*domain.Solicitude, error)
	approveFn     func(ctx context.Context, id string, caller ports.Caller) (*ports.StateChangeResult, error)
	rejectFn      func(ctx context.Context, id string, caller ports.Caller, motive string) (*ports.StateChangeResult, error)
}

func (s *stubSolicitudeService) Create(ctx context.Context, ownerID string, in ports.CreateSolicitudeInput) (*domain.Solicitude, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubSolicitudeService) Get(ctx context.Context, id string, caller ports.Caller) (*domain.Solicitude, error) {
	return s.getFn(ctx, id, caller)
}

func (s *stubSolicitudeService) List(ctx context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubSolicitudeService) UpdateDraft(ctx context.Context, id, ownerID string, in ports.UpdateSolicitudeInput) (*domain.Solicitude, error) {
	return s.updateFn(ctx, id, ownerID, in)
}

func (s *stubSolicitudeService) Submit(ctx context.Context, id, ownerID string) (*domain.Solicitude, error) {
	return s.submitFn(ctx, id, ownerID)
}

func (s *stubSolicitudeService) Cancel(ctx context.Context, id, ownerID, reason string) (*domain.Solicitude, error) {
	return s.cancelFn(ctx, id, ownerID, reason)
}

func (s *stubSolicitudeService) SoftDelete(ctx context.Context, id, ownerID string) (*domain.Solicitude, error) {
	return s.softDeleteFn(ctx, id, ownerID)
}

func (s *stubSolicitudeService) ListPending(ctx context.Context, caller ports.Caller) ([]*domain.Solicitude, error) {
	return s.listPendingFn(ctx, caller)
}

func (s *stubSolicitudeService) Approve(ctx context.Context, id string, caller ports.Caller) (*ports.StateChangeResult, error) {
	return s.approveFn(ctx, id, caller)
}

func (s *stubSolicitudeService) Reject(ctx context.Context, id string, caller ports.Caller, motive string) (*ports.StateChangeResult, error) {
	return s.rejectFn(ctx, id, caller, motive)
}

func (s *stubSolicitudeService) SweepExpiredDrafts(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestContext(t *testing.T, method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user_1")
	c.Set("correo", "user@example.com")
	c.Set("rol", domain.RoleClient)
	return c, rec
}

func sampleSolicitude() *domain.Solicitude {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Solicitude{
		ID:         "sol_001",
		OwnerID:    "user_1",
		Amount:     2_000_000,
		TermMonths: 24,
		Rate:       6.4,
		State:      domain.StateDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// --- Create ---

func TestSolicitudeHandler_Create_Success(t *testing.T) {
	stub := &stubSolicitudeService{
		createFn: func(_ context.Context, ownerID string, in ports.CreateSolicitudeInput) (*domain.Solicitude, error) {
			if ownerID != "user_1" {
				t.Fatalf("unexpected owner: %s", ownerID)
			}
			if in.Amount != 2_000_000 || in.TermMonths != 24 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleSolicitude(), nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/requests", `{"monto":2000000,"plazo_meses":24}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["estado"] != string(domain.StateDraft) {
		t.Errorf("estado: got %v", resp["estado"])
	}
	if resp["estado_label"] != "Draft" {
		t.Errorf("estado_label: got %v", resp["estado_label"])
	}
	if resp["tasa"] != 6.4 {
		t.Errorf("tasa: got %v", resp["tasa"])
	}
}

func TestSolicitudeHandler_Create_InvalidJSON(t *testing.T) {
	stub := &stubSolicitudeService{
		createFn: func(context.Context, string, ports.CreateSolicitudeInput) (*domain.Solicitude, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/requests", "not-json")
	err := h.Create(c)

	var he *echo.HTTPError
	if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestSolicitudeHandler_Create_ValidationFailure(t *testing.T) {
	stub := &stubSolicitudeService{
		createFn: func(context.Context, string, ports.CreateSolicitudeInput) (*domain.Solicitude, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	for _, body := range []string{
		`{"monto":9999,"plazo_meses":12}`,
		`{"monto":100000,"plazo_meses":61}`,
		`{"plazo_meses":12}`,
	} {
		c, _ := newTestContext(t, http.MethodPost, "/requests", body)
		err := h.Create(c)

		var he *echo.HTTPError
		if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400 HTTPError, got %v", body, err)
		}
	}
}

func TestSolicitudeHandler_Create_MissingClaims(t *testing.T) {
	h := NewSolicitudeHandler(&stubSolicitudeService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"monto":100000,"plazo_meses":12}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var he *echo.HTTPError
	if err == nil || !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

// --- List ---

func TestSolicitudeHandler_List_QueryParams(t *testing.T) {
	var captured ports.ListSolicitudesInput
	stub := &stubSolicitudeService{
		listFn: func(_ context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error) {
			captured = in
			return &ports.ListSolicitudesResult{Page: in.Page, Limit: in.Limit}, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodGet,
		"/requests?page=3&limit=25&estado=Aprobada&desde=2026-01-15&hasta=2026-02-01T10:00:00Z&montoMin=50000&q=apro", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if captured.Page != 3 || captured.Limit != 25 {
		t.Errorf("pagination: got page=%d limit=%d", captured.Page, captured.Limit)
	}
	if captured.State != "Aprobada" {
		t.Errorf("estado passed raw to the service, got %q", captured.State)
	}
	if captured.Search != "apro" {
		t.Errorf("q: got %q", captured.Search)
	}
	if captured.MinAmount != 50_000 {
		t.Errorf("montoMin: got %d", captured.MinAmount)
	}
	wantFrom := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !captured.From.Equal(wantFrom) {
		t.Errorf("desde: got %v", captured.From)
	}
	wantTo := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !captured.To.Equal(wantTo) {
		t.Errorf("hasta: got %v", captured.To)
	}
}

func TestSolicitudeHandler_List_MalformedFiltersIgnored(t *testing.T) {
	var captured ports.ListSolicitudesInput
	stub := &stubSolicitudeService{
		listFn: func(_ context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error) {
			captured = in
			return &ports.ListSolicitudesResult{}, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodGet,
		"/requests?page=abc&limit=-5&desde=not-a-date&montoMin=xyz", "")
	if err := h.List(c); err != nil {
		t.Fatalf("malformed filters must never fail the request: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if captured.Page != 1 || captured.Limit != 10 {
		t.Errorf("expected defaults (1, 10), got (%d, %d)", captured.Page, captured.Limit)
	}
	if !captured.From.IsZero() {
		t.Errorf("malformed desde must be dropped, got %v", captured.From)
	}
	if captured.MinAmount != 0 {
		t.Errorf("malformed montoMin must be dropped, got %d", captured.MinAmount)
	}
}

func TestSolicitudeHandler_List_LimitClamped(t *testing.T) {
	var captured ports.ListSolicitudesInput
	stub := &stubSolicitudeService{
		listFn: func(_ context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error) {
			captured = in
			return &ports.ListSolicitudesResult{}, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/requests?limit=999", "")
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if captured.Limit != 100 {
		t.Errorf("expected limit clamped to 100, got %d", captured.Limit)
	}
}

// --- ChangeState ---

func TestSolicitudeHandler_ChangeState_Submit(t *testing.T) {
	stub := &stubSolicitudeService{
		submitFn: func(_ context.Context, id, ownerID string) (*domain.Solicitude, error) {
			if id != "sol_001" || ownerID != "user_1" {
				t.Fatalf("unexpected args: %s %s", id, ownerID)
			}
			s := sampleSolicitude()
			s.State = domain.StateInReview
			return s, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodPatch, "/requests/sol_001/estado?estado=EN_VALIDACION", "")
	c.SetParamNames("id")
	c.SetParamValues("sol_001")

	if err := h.ChangeState(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["estado"] != string(domain.StateInReview) {
		t.Errorf("estado: got %v", resp["estado"])
	}
}

func TestSolicitudeHandler_ChangeState_CancelWithReason(t *testing.T) {
	stub := &stubSolicitudeService{
		cancelFn: func(_ context.Context, id, ownerID, reason string) (*domain.Solicitude, error) {
			if reason != "cambio de planes" {
				t.Fatalf("unexpected reason: %q", reason)
			}
			s := sampleSolicitude()
			s.State = domain.StateCancelled
			s.CancelReason = reason
			return s, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodPatch,
		"/requests/sol_001/estado?estado=cancelada&razon=cambio+de+planes", "")
	c.SetParamNames("id")
	c.SetParamValues("sol_001")

	if err := h.ChangeState(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["razon_cancelacion"] != "cambio de planes" {
		t.Errorf("razon_cancelacion: got %v", resp["razon_cancelacion"])
	}
}

func TestSolicitudeHandler_ChangeState_UnsupportedTarget(t *testing.T) {
	h := NewSolicitudeHandler(&stubSolicitudeService{})

	for _, target := range []string{"aprobada", "rechazada", "borrador", "", "otro"} {
		c, _ := newTestContext(t, http.MethodPatch, "/requests/sol_001/estado?estado="+target, "")
		c.SetParamNames("id")
		c.SetParamValues("sol_001")

		err := h.ChangeState(c)
		var he *echo.HTTPError
		if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("estado=%q: expected 400 HTTPError, got %v", target, err)
		}
	}
}

// --- Delete ---

func TestSolicitudeHandler_Delete_ResponseShape(t *testing.T) {
	stub := &stubSolicitudeService{
		softDeleteFn: func(_ context.Context, id, ownerID string) (*domain.Solicitude, error) {
			s := sampleSolicitude()
			now := time.Now().UTC()
			s.Deleted = true
			s.DeletedAt = &now
			return s, nil
		},
	}
	h := NewSolicitudeHandler(stub)

	c, rec := newTestContext(t, http.MethodDelete, "/requests/sol_001", "")
	c.SetParamNames("id")
	c.SetParamValues("sol_001")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success: got %v", resp["success"])
	}
	if resp["id"] != "sol_001" {
		t.Errorf("id: got %v", resp["id"])
	}
	data, ok := resp["data"].(map[string]any)
	if !ok || data["eliminada"] != true {
		t.Errorf("data.eliminada: got %+v", resp["data"])
	}
}
