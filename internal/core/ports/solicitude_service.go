package ports

import (
	"context"
	"time"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

// Caller identifies the authenticated actor performing an operation, as
// resolved from the bearer token.
type Caller struct {
	ID   string
	Role string
}

// CreateSolicitudeInput carries the data needed to open a new solicitude.
type CreateSolicitudeInput struct {
	Amount     int64
	TermMonths int
}

// UpdateSolicitudeInput is the partial edit applied to a draft. Nil fields
// are left unchanged; a patch with both fields nil is a permitted no-op.
type UpdateSolicitudeInput struct {
	Amount     *int64
	TermMonths *int
}

// ListSolicitudesInput carries all parameters for the list endpoint. The
// service scopes the query to Caller.ID unless the caller may review.
type ListSolicitudesInput struct {
	Caller    Caller
	State     string // raw, case-insensitive
	From      time.Time
	To        time.Time
	MinAmount int64
	Search    string
	Page      int
	Limit     int
}

// ListSolicitudesResult is returned by List.
type ListSolicitudesResult struct {
	Items []*domain.Solicitude
	Total int64
	Page  int
	Limit int
}

// StateChangeResult describes an applied agent decision.
type StateChangeResult struct {
	ID            string
	PreviousState domain.SolicitudeState
	NewState      domain.SolicitudeState
	UpdatedAt     time.Time
	Motive        string // set on rejections
}

// SolicitudeService owns the solicitude lifecycle state machine.
type SolicitudeService interface {
	Create(ctx context.Context, ownerID string, in CreateSolicitudeInput) (*domain.Solicitude, error)
	Get(ctx context.Context, id string, caller Caller) (*domain.Solicitude, error)
	List(ctx context.Context, in ListSolicitudesInput) (*ListSolicitudesResult, error)
	UpdateDraft(ctx context.Context, id, ownerID string, in UpdateSolicitudeInput) (*domain.Solicitude, error)
	Submit(ctx context.Context, id, ownerID string) (*domain.Solicitude, error)
	Cancel(ctx context.Context, id, ownerID, reason string) (*domain.Solicitude, error)
	SoftDelete(ctx context.Context, id, ownerID string) (*domain.Solicitude, error)

	ListPending(ctx context.Context, caller Caller) ([]*domain.Solicitude, error)
	Approve(ctx context.Context, id string, caller Caller) (*StateChangeResult, error)
	Reject(ctx context.Context, id string, caller Caller, motive string) (*StateChangeResult, error)

	// SweepExpiredDrafts migrates drafts older than 24h to en_validacion.
	// Idempotent: already-migrated solicitudes are untouched.
	SweepExpiredDrafts(ctx context.Context, now time.Time) (int64, error)
}
