package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createSolicitudeRequest struct {
	Monto      int64 `json:"monto"       validate:"required,gte=10000"`
	PlazoMeses int   `json:"plazo_meses" validate:"required,gte=1,lte=60"`
}

// updateSolicitudeRequest is a partial patch: absent fields are left
// unchanged.
type updateSolicitudeRequest struct {
	Monto      *int64 `json:"monto,omitempty"       validate:"omitempty,gte=10000"`
	PlazoMeses *int   `json:"plazo_meses,omitempty" validate:"omitempty,gte=1,lte=60"`
}

type rejectRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal service changes. Wire names follow the original collection
// layout; estado_label adds the human-readable form.

type solicitudeResponse struct {
	ID                 string     `json:"id"`
	UsuarioID          string     `json:"usuario_id"`
	Monto              int64      `json:"monto"`
	PlazoMeses         int        `json:"plazo_meses"`
	Tasa               float64    `json:"tasa"`
	Estado             string     `json:"estado"`
	EstadoLabel        string     `json:"estado_label"`
	FechaCreacion      time.Time  `json:"fechaCreacion"`
	FechaActualizacion time.Time  `json:"fechaActualizacion"`
	RazonCancelacion   string     `json:"razon_cancelacion,omitempty"`
	MotivoRechazo      string     `json:"motivo_rechazo,omitempty"`
	Eliminada          bool       `json:"eliminada,omitempty"`
	FechaEliminacion   *time.Time `json:"fechaEliminacion,omitempty"`
}

type listSolicitudesResponse struct {
	Items []solicitudeResponse `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type deleteSolicitudeResponse struct {
	Success bool               `json:"success"`
	ID      string             `json:"id"`
	Data    solicitudeResponse `json:"data"`
}

// decisionResponse is returned by the agent approve/reject routes.
type decisionResponse struct {
	ID                 string    `json:"id"`
	EstadoAnterior     string    `json:"estado_anterior"`
	EstadoNuevo        string    `json:"estado_nuevo"`
	FechaActualizacion time.Time `json:"fechaActualizacion"`
	Comentario         string    `json:"comentario,omitempty"`
}
