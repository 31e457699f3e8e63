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

func newAgentContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, method, target, body)
	c.Set("user_id", "agent_1")
	c.Set("rol", domain.RoleAgent)
	return c, rec
}

func TestAgentHandler_Pending_ReturnsArray(t *testing.T) {
	stub := &stubSolicitudeService{
		listPendingFn: func(_ context.Context, caller ports.Caller) ([]*domain.Solicitude, error) {
			if caller.Role != domain.RoleAgent {
				t.Fatalf("unexpected caller role: %s", caller.Role)
			}
			draft := sampleSolicitude()
			inReview := sampleSolicitude()
			inReview.ID = "sol_002"
			inReview.State = domain.StateInReview
			return []*domain.Solicitude{draft, inReview}, nil
		},
	}
	h := NewAgentHandler(stub)

	c, rec := newAgentContext(t, http.MethodGet, "/requests/agent/pending", "")
	if err := h.Pending(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp))
	}
	if resp[1]["estado_label"] != "In review" {
		t.Errorf("estado_label: got %v", resp[1]["estado_label"])
	}
}

func TestAgentHandler_Pending_EmptyQueue(t *testing.T) {
	stub := &stubSolicitudeService{
		listPendingFn: func(context.Context, ports.Caller) ([]*domain.Solicitude, error) {
			return nil, nil
		},
	}
	h := NewAgentHandler(stub)

	c, rec := newAgentContext(t, http.MethodGet, "/requests/agent/pending", "")
	if err := h.Pending(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	// Empty queue renders as [], never null.
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestAgentHandler_Approve_DecisionShape(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	stub := &stubSolicitudeService{
		approveFn: func(_ context.Context, id string, caller ports.Caller) (*ports.StateChangeResult, error) {
			if id != "sol_001" {
				t.Fatalf("unexpected id: %s", id)
			}
			return &ports.StateChangeResult{
				ID:            id,
				PreviousState: domain.StateInReview,
				NewState:      domain.StateApproved,
				UpdatedAt:     now,
			}, nil
		},
	}
	h := NewAgentHandler(stub)

	c, rec := newAgentContext(t, http.MethodPut, "/requests/agent/sol_001/approve", "")
	c.SetParamNames("id")
	c.SetParamValues("sol_001")

	if err := h.Approve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["estado_anterior"] != string(domain.StateInReview) {
		t.Errorf("estado_anterior: got %v", resp["estado_anterior"])
	}
	if resp["estado_nuevo"] != string(domain.StateApproved) {
		t.Errorf("estado_nuevo: got %v", resp["estado_nuevo"])
	}
	if _, hasComment := resp["comentario"]; hasComment {
		t.Error("comentario must be omitted on approvals")
	}
}

func TestAgentHandler_Reject_PassesMotive(t *testing.T) {
	stub := &stubSolicitudeService{
		rejectFn: func(_ context.Context, id string, caller ports.Caller, motive string) (*ports.StateChangeResult, error) {
			if motive != "documentación incompleta" {
				t.Fatalf("unexpected motive: %q", motive)
			}
			return &ports.StateChangeResult{
				ID:            id,
				PreviousState: domain.StateInReview,
				NewState:      domain.StateRejected,
				UpdatedAt:     time.Now().UTC(),
				Motive:        motive,
			}, nil
		},
	}
	h := NewAgentHandler(stub)

	c, rec := newAgentContext(t, http.MethodPut, "/requests/agent/sol_001/reject",
		`{"motivo":"documentación incompleta"}`)
	c.SetParamNames("id")
	c.SetParamValues("sol_001")

	if err := h.Reject(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["comentario"] != "documentación incompleta" {
		t.Errorf("comentario: got %v", resp["comentario"])
	}
}

func TestAgentHandler_Reject_MotiveRequired(t *testing.T) {
	stub := &stubSolicitudeService{
		rejectFn: func(context.Context, string, ports.Caller, string) (*ports.StateChangeResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewAgentHandler(stub)

	for _, body := range []string{`{}`, `{"motivo":""}`, `{"motivo":"ab"}`} {
		c, _ := newAgentContext(t, http.MethodPut, "/requests/agent/sol_001/reject", body)
		c.SetParamNames("id")
		c.SetParamValues("sol_001")

		err := h.Reject(c)
		var he *echo.HTTPError
		if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400 HTTPError, got %v", body, err)
		}
	}
}
