package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// AgentHandler handles the agent/administrator review routes. The router
// additionally guards them with the RBAC middleware; the service re-checks
// the role so the rule holds for any caller of the port.
type AgentHandler struct {
	service ports.SolicitudeService
}

func NewAgentHandler(service ports.SolicitudeService) *AgentHandler {
	return &AgentHandler{service: service}
}

// Pending handles GET /requests/agent/pending — the reviewable queue:
// borrador and en_validacion, excluding soft-deleted.
//
// @Summary      List solicitudes pending review
// @Tags         agente
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   solicitudeResponse
// @Failure      403  {object}  errorResponse
// @Router       /requests/agent/pending [get]
func (h *AgentHandler) Pending(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListPending(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	out := make([]solicitudeResponse, len(items))
	for i, s := range items {
		out[i] = toSolicitudeResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}

// Approve handles PUT /requests/agent/:id/approve.
//
// @Summary      Approve a pending solicitude
// @Tags         agente
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Solicitude id"
// @Success      200  {object}  decisionResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /requests/agent/{id}/approve [put]
func (h *AgentHandler) Approve(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	result, err := h.service.Approve(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDecisionResponse(result))
}

// Reject handles PUT /requests/agent/:id/reject. The motive is required,
// minimum three characters.
//
// @Summary      Reject a pending solicitude with a motive
// @Tags         agente
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Solicitude id"
// @Param        body  body      rejectRequest  true  "Rejection motive"
// @Success      200   {object}  decisionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /requests/agent/{id}/reject [put]
func (h *AgentHandler) Reject(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Reject(c.Request().Context(), c.Param("id"), caller, req.Motivo)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDecisionResponse(result))
}
