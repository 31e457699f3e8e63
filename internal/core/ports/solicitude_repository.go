package ports

import (
	"context"
	"time"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

// ListSolicitudesFilter carries all query parameters for listing solicitudes.
// OwnerID is enforced by the service layer for client callers; an empty
// OwnerID means the unscoped agent/administrator view. Soft-deleted records
// are always excluded.
type ListSolicitudesFilter struct {
	OwnerID   string                 // empty = unscoped
	State     domain.SolicitudeState // optional, already normalized to the lowercase token
	From      time.Time              // optional: fechaCreacion >= From
	To        time.Time              // optional: fechaCreacion <= To
	MinAmount int64                  // optional: monto >= MinAmount
	Search    string                 // optional: case-insensitive match on the estado field
	Page      int                    // 1-based
	Limit     int                    // capped at 100 by the handler layer
}

// DraftPatch carries the mutable fields of a draft edit. Nil means "leave
// unchanged". Rate is always written, recomputed by the service from the
// post-patch effective amount and term.
type DraftPatch struct {
	Amount     *int64
	TermMonths *int
	Rate       float64
	Now        time.Time
}

// StateChange describes one conditional state transition. The repository
// must apply it as a single atomic update whose filter encodes the allowed
// prior states (and the owner, when OwnerID is set), so that two concurrent
// transitions on the same id cannot both succeed from a stale read.
type StateChange struct {
	ID           string
	OwnerID      string // empty = no ownership constraint (agent operations)
	From         []domain.SolicitudeState
	To           domain.SolicitudeState
	CancelReason string // stored only when non-empty
	RejectMotive string // stored only when non-empty
	Now          time.Time
}

// SolicitudeRepository defines persistence operations for solicitudes.
type SolicitudeRepository interface {
	Insert(ctx context.Context, s *domain.Solicitude) error

	// FindByID retrieves a solicitude by id, including soft-deleted records
	// (audit lookup). When ownerID is non-empty the query is additionally
	// scoped to that owner.
	FindByID(ctx context.Context, id string, ownerID string) (*domain.Solicitude, error)

	// List returns a page of non-deleted solicitudes matching filter and the
	// total count, ordered by fechaCreacion descending with id ascending as
	// the tie-break.
	List(ctx context.Context, filter ListSolicitudesFilter) ([]*domain.Solicitude, int64, error)

	// ListReviewable returns the agent queue: non-deleted solicitudes in
	// borrador or en_validacion.
	ListReviewable(ctx context.Context) ([]*domain.Solicitude, error)

	// UpdateDraft applies patch to the solicitude only if it is owned by
	// ownerID, in state borrador, and not soft-deleted. Returns the updated
	// document, or domain.ErrNotEditable when no document matched.
	UpdateDraft(ctx context.Context, id, ownerID string, patch DraftPatch) (*domain.Solicitude, error)

	// ApplyStateChange performs the conditional transition and returns the
	// document as it was before the update, or domain.ErrSolicitudeNotFound
	// when no document matched the filter.
	ApplyStateChange(ctx context.Context, ch StateChange) (*domain.Solicitude, error)

	// SoftDelete marks the owner's solicitude as deleted without touching its
	// state. Returns the updated document.
	SoftDelete(ctx context.Context, id, ownerID string, now time.Time) (*domain.Solicitude, error)

	// SweepExpiredDrafts moves every non-deleted draft created at or before
	// cutoff to en_validacion and returns the number of migrated documents.
	SweepExpiredDrafts(ctx context.Context, cutoff, now time.Time) (int64, error)
}
