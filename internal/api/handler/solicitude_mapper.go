package handler

import (
	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// --- Domain → HTTP response ---

func toSolicitudeResponse(s *domain.Solicitude) solicitudeResponse {
	return solicitudeResponse{
		ID:                 s.ID,
		UsuarioID:          s.OwnerID,
		Monto:              s.Amount,
		PlazoMeses:         s.TermMonths,
		Tasa:               s.Rate,
		Estado:             string(s.State),
		EstadoLabel:        domain.StateLabel(s.State),
		FechaCreacion:      s.CreatedAt.UTC(),
		FechaActualizacion: s.UpdatedAt.UTC(),
		RazonCancelacion:   s.CancelReason,
		MotivoRechazo:      s.RejectMotive,
		Eliminada:          s.Deleted,
		FechaEliminacion:   s.DeletedAt,
	}
}

func toListResponse(r *ports.ListSolicitudesResult) listSolicitudesResponse {
	items := make([]solicitudeResponse, len(r.Items))
	for i, s := range r.Items {
		items[i] = toSolicitudeResponse(s)
	}
	return listSolicitudesResponse{
		Items: items,
		Total: r.Total,
		Page:  r.Page,
		Limit: r.Limit,
	}
}

func toDecisionResponse(r *ports.StateChangeResult) decisionResponse {
	return decisionResponse{
		ID:                 r.ID,
		EstadoAnterior:     string(r.PreviousState),
		EstadoNuevo:        string(r.NewState),
		FechaActualizacion: r.UpdatedAt.UTC(),
		Comentario:         r.Motive,
	}
}
