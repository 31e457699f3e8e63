package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neocdt/cdt-bank-api/internal/api/metrics"
	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// draftTimeout is how long a solicitude may sit in borrador before the sweep
// escalates it to en_validacion.
const draftTimeout = 24 * time.Hour

// SolicitudeService owns the solicitude lifecycle state machine.
type SolicitudeService struct {
	repo ports.SolicitudeRepository
	log  zerolog.Logger
}

func NewSolicitudeService(repo ports.SolicitudeRepository, log zerolog.Logger) *SolicitudeService {
	return &SolicitudeService{repo: repo, log: log}
}

// Create opens a new solicitude in borrador with an auto-computed rate.
func (s *SolicitudeService) Create(ctx context.Context, ownerID string, in ports.CreateSolicitudeInput) (*domain.Solicitude, error) {
	if err := domain.ValidateNew(in.Amount, in.TermMonths); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sol := &domain.Solicitude{
		OwnerID:    ownerID,
		Amount:     in.Amount,
		TermMonths: in.TermMonths,
		Rate:       domain.ComputeRate(in.Amount, in.TermMonths),
		State:      domain.StateDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, sol); err != nil {
		s.log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to create solicitude")
		return nil, err
	}

	metrics.SolicitudesCreatedTotal.Inc()
	s.log.Info().
		Str("solicitude_id", sol.ID).
		Str("owner_id", ownerID).
		Int64("monto", in.Amount).
		Int("plazo_meses", in.TermMonths).
		Float64("tasa", sol.Rate).
		Msg("solicitude created")

	return sol, nil
}

// Get fetches one solicitude by id, including soft-deleted records (audit
// lookup). Client callers only see their own.
func (s *SolicitudeService) Get(ctx context.Context, id string, caller ports.Caller) (*domain.Solicitude, error) {
	ownerScope := ""
	if !domain.CanReview(caller.Role) {
		ownerScope = caller.ID
	}
	return s.repo.FindByID(ctx, id, ownerScope)
}

// List returns a page of the caller's solicitudes, or the unscoped view for
// agents and administrators.
func (s *SolicitudeService) List(ctx context.Context, in ports.ListSolicitudesInput) (*ports.ListSolicitudesResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	filter := ports.ListSolicitudesFilter{
		State:     domain.SolicitudeState(strings.ToLower(strings.TrimSpace(in.State))),
		From:      in.From,
		To:        in.To,
		MinAmount: in.MinAmount,
		Search:    in.Search,
		Page:      page,
		Limit:     limit,
	}
	if !domain.CanReview(in.Caller.Role) {
		filter.OwnerID = in.Caller.ID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ports.ListSolicitudesResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// UpdateDraft applies a partial edit to an owned draft and recomputes the
// rate from the post-patch effective amount and term. A solicitude that is
// missing, not owned by the caller, or no longer in borrador is rejected the
// same way: domain.ErrNotEditable.
func (s *SolicitudeService) UpdateDraft(ctx context.Context, id, ownerID string, in ports.UpdateSolicitudeInput) (*domain.Solicitude, error) {
	if in.Amount != nil && *in.Amount < domain.MinAmount {
		return nil, fmt.Errorf("%w: monto mínimo es 10000", domain.ErrValidation)
	}
	if in.TermMonths != nil && (*in.TermMonths < domain.MinTermMonths || *in.TermMonths > domain.MaxTermMonths) {
		return nil, fmt.Errorf("%w: el plazo debe estar entre 1 y 60 meses", domain.ErrValidation)
	}

	cur, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrSolicitudeNotFound) {
			return nil, domain.ErrNotEditable
		}
		return nil, err
	}
	if cur.Deleted || cur.State != domain.StateDraft {
		return nil, domain.ErrNotEditable
	}

	// Permitted no-op: nothing to change.
	if in.Amount == nil && in.TermMonths == nil {
		return cur, nil
	}

	amount := cur.Amount
	if in.Amount != nil {
		amount = *in.Amount
	}
	term := cur.TermMonths
	if in.TermMonths != nil {
		term = *in.TermMonths
	}

	patch := ports.DraftPatch{
		Amount:     in.Amount,
		TermMonths: in.TermMonths,
		Rate:       domain.ComputeRate(amount, term),
		Now:        time.Now().UTC(),
	}

	// The repository re-checks owner + borrador atomically; a concurrent
	// transition between our read and this write loses nothing silently.
	updated, err := s.repo.UpdateDraft(ctx, id, ownerID, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("solicitude_id", id).
		Float64("tasa", patch.Rate).
		Msg("draft updated")

	return updated, nil
}

// Submit moves an owned draft to en_validacion.
func (s *SolicitudeService) Submit(ctx context.Context, id, ownerID string) (*domain.Solicitude, error) {
	return s.transition(ctx, ports.StateChange{
		ID:      id,
		OwnerID: ownerID,
		From:    []domain.SolicitudeState{domain.StateDraft},
		To:      domain.StateInReview,
		Now:     time.Now().UTC(),
	})
}

// Cancel moves an owned solicitude in borrador or en_validacion to
// cancelada. The reason is optional and stored only when provided.
func (s *SolicitudeService) Cancel(ctx context.Context, id, ownerID, reason string) (*domain.Solicitude, error) {
	return s.transition(ctx, ports.StateChange{
		ID:           id,
		OwnerID:      ownerID,
		From:         []domain.SolicitudeState{domain.StateDraft, domain.StateInReview},
		To:           domain.StateCancelled,
		CancelReason: strings.TrimSpace(reason),
		Now:          time.Now().UTC(),
	})
}

// SoftDelete hides an owned solicitude from listings without changing its
// state. The record stays fetchable by direct id lookup.
func (s *SolicitudeService) SoftDelete(ctx context.Context, id, ownerID string) (*domain.Solicitude, error) {
	deleted, err := s.repo.SoftDelete(ctx, id, ownerID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("solicitude_id", id).Str("owner_id", ownerID).Msg("solicitude soft-deleted")
	return deleted, nil
}

// ListPending returns the agent review queue: non-deleted solicitudes in
// borrador or en_validacion.
func (s *SolicitudeService) ListPending(ctx context.Context, caller ports.Caller) ([]*domain.Solicitude, error) {
	if !domain.CanReview(caller.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListReviewable(ctx)
}

// Approve moves a pending solicitude to aprobada. Agent/administrator only.
func (s *SolicitudeService) Approve(ctx context.Context, id string, caller ports.Caller) (*ports.StateChangeResult, error) {
	if !domain.CanReview(caller.Role) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	prior, err := s.transitionPrior(ctx, ports.StateChange{
		ID:   id,
		From: domain.ReviewableStates(),
		To:   domain.StateApproved,
		Now:  now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("solicitude_id", id).
		Str("agent_id", caller.ID).
		Str("estado_anterior", string(prior.State)).
		Msg("solicitude approved")

	return &ports.StateChangeResult{
		ID:            id,
		PreviousState: prior.State,
		NewState:      domain.StateApproved,
		UpdatedAt:     now,
	}, nil
}

// Reject moves a pending solicitude to rechazada. The motive is required,
// minimum three characters.
func (s *SolicitudeService) Reject(ctx context.Context, id string, caller ports.Caller, motive string) (*ports.StateChangeResult, error) {
	if !domain.CanReview(caller.Role) {
		return nil, domain.ErrForbidden
	}
	motive = strings.TrimSpace(motive)
	if len(motive) < 3 {
		return nil, fmt.Errorf("%w: el motivo debe tener al menos 3 caracteres", domain.ErrValidation)
	}

	now := time.Now().UTC()
	prior, err := s.transitionPrior(ctx, ports.StateChange{
		ID:           id,
		From:         domain.ReviewableStates(),
		To:           domain.StateRejected,
		RejectMotive: motive,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("solicitude_id", id).
		Str("agent_id", caller.ID).
		Str("estado_anterior", string(prior.State)).
		Msg("solicitude rejected")

	return &ports.StateChangeResult{
		ID:            id,
		PreviousState: prior.State,
		NewState:      domain.StateRejected,
		UpdatedAt:     now,
		Motive:        motive,
	}, nil
}

// SweepExpiredDrafts migrates every non-deleted draft older than 24h to
// en_validacion. Safe to run concurrently with per-solicitude transitions:
// the conditional bulk update only touches documents still in borrador, so
// repeated sweeps are no-ops.
func (s *SolicitudeService) SweepExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-draftTimeout)
	count, err := s.repo.SweepExpiredDrafts(ctx, cutoff, now)
	if err != nil {
		s.log.Error().Err(err).Msg("draft sweep failed")
		return 0, err
	}
	if count > 0 {
		s.log.Info().Int64("migrated", count).Time("cutoff", cutoff).Msg("expired drafts moved to en_validacion")
	}
	return count, nil
}

// transition applies a conditional state change and returns the solicitude
// with the change folded in.
func (s *SolicitudeService) transition(ctx context.Context, ch ports.StateChange) (*domain.Solicitude, error) {
	prior, err := s.transitionPrior(ctx, ch)
	if err != nil {
		return nil, err
	}

	updated := *prior
	updated.State = ch.To
	updated.UpdatedAt = ch.Now
	if ch.CancelReason != "" {
		updated.CancelReason = ch.CancelReason
	}
	if ch.RejectMotive != "" {
		updated.RejectMotive = ch.RejectMotive
	}

	s.log.Info().
		Str("solicitude_id", ch.ID).
		Str("estado_anterior", string(prior.State)).
		Str("estado_nuevo", string(ch.To)).
		Msg("state transition applied")

	return &updated, nil
}

// transitionPrior runs the atomic conditional update and, when nothing
// matched, re-reads once to tell "missing or not yours" (not found) apart
// from "exists but the current state forbids the event" (invalid
// transition). The loser of a concurrent transition lands on the second
// branch.
func (s *SolicitudeService) transitionPrior(ctx context.Context, ch ports.StateChange) (*domain.Solicitude, error) {
	prior, err := s.repo.ApplyStateChange(ctx, ch)
	if err == nil {
		metrics.TransitionsTotal.WithLabelValues(string(prior.State), string(ch.To)).Inc()
		return prior, nil
	}
	if !errors.Is(err, domain.ErrSolicitudeNotFound) {
		return nil, err
	}

	cur, ferr := s.repo.FindByID(ctx, ch.ID, ch.OwnerID)
	if ferr != nil {
		return nil, ferr
	}
	if cur.Deleted {
		return nil, domain.ErrSolicitudeNotFound
	}
	return nil, fmt.Errorf("%w: no se puede pasar de %s a %s", domain.ErrInvalidTransition, cur.State, ch.To)
}
