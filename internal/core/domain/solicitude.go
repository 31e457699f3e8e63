package domain

import (
	"errors"
	"fmt"
	"time"
)

// SolicitudeState represents the lifecycle state of a CDT solicitude.
// The tokens are stored verbatim in the database and on the wire.
type SolicitudeState string

const (
	StateDraft     SolicitudeState = "borrador"
	StateInReview  SolicitudeState = "en_validacion"
	StateApproved  SolicitudeState = "aprobada"
	StateRejected  SolicitudeState = "rechazada"
	StateCancelled SolicitudeState = "cancelada"
)

// Business limits on a solicitude.
const (
	MinAmount     = 10_000
	MinTermMonths = 1
	MaxTermMonths = 60
)

// validTransitions defines the allowed state machine transitions.
// Draft is the sole initial state; aprobada, rechazada and cancelada
// are terminal.
var validTransitions = map[SolicitudeState][]SolicitudeState{
	StateDraft:    {StateInReview, StateApproved, StateRejected, StateCancelled},
	StateInReview: {StateApproved, StateRejected, StateCancelled},
}

var ErrSolicitudeNotFound = errors.New("solicitude not found")
var ErrInvalidTransition = errors.New("invalid state transition")
var ErrNotEditable = errors.New("solicitude not editable")
var ErrValidation = errors.New("validation failed")
var ErrInvalidID = errors.New("invalid identifier")
var ErrForbidden = errors.New("access forbidden")

// CanTransitionTo reports whether a transition from the current state to next is valid.
func (s SolicitudeState) CanTransitionTo(next SolicitudeState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s SolicitudeState) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ReviewableStates are the states visible in the agent pending queue and the
// only states an agent decision (approve/reject) may start from.
func ReviewableStates() []SolicitudeState {
	return []SolicitudeState{StateDraft, StateInReview}
}

// StateLabel returns the human-readable label for a state token. Unknown
// tokens read from the store are passed through verbatim rather than
// rejected.
func StateLabel(s SolicitudeState) string {
	switch s {
	case StateDraft:
		return "Draft"
	case StateInReview:
		return "In review"
	case StateApproved:
		return "Approved"
	case StateRejected:
		return "Rejected"
	case StateCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Solicitude is the core aggregate: a single fixed-term-deposit application.
type Solicitude struct {
	ID           string
	OwnerID      string
	Amount       int64
	TermMonths   int
	Rate         float64
	State        SolicitudeState
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CancelReason string
	RejectMotive string
	Deleted      bool
	DeletedAt    *time.Time
}

// ValidateNew checks the creation guards: amount >= MinAmount and term in
// [MinTermMonths, MaxTermMonths].
func ValidateNew(amount int64, termMonths int) error {
	if amount < MinAmount {
		return fmt.Errorf("%w: monto mínimo es 10000", ErrValidation)
	}
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return fmt.Errorf("%w: el plazo debe estar entre 1 y 60 meses", ErrValidation)
	}
	return nil
}
