package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// SolicitudeHandler handles the client-facing solicitude routes.
type SolicitudeHandler struct {
	service ports.SolicitudeService
}

func NewSolicitudeHandler(service ports.SolicitudeService) *SolicitudeHandler {
	return &SolicitudeHandler{service: service}
}

// Create handles POST /requests.
//
// @Summary      Create a new CDT solicitude
// @Tags         solicitudes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSolicitudeRequest  true  "Solicitude details"
// @Success      201   {object}  solicitudeResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /requests [post]
func (h *SolicitudeHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createSolicitudeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sol, err := h.service.Create(c.Request().Context(), caller.ID, ports.CreateSolicitudeInput{
		Amount:     req.Monto,
		TermMonths: req.PlazoMeses,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toSolicitudeResponse(sol))
}

// List handles GET /requests. Clients see their own solicitudes; agents and
// administrators get the unscoped view.
//
// @Summary      List solicitudes (role-scoped)
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page, 1-based (default 1)"
// @Param        limit     query     int     false  "Page size, 1..100 (default 10)"
// @Param        estado    query     string  false  "State token, case-insensitive"
// @Param        desde     query     string  false  "Created-from date (ISO-8601)"
// @Param        hasta     query     string  false  "Created-to date (ISO-8601)"
// @Param        montoMin  query     int     false  "Minimum amount"
// @Param        q         query     string  false  "Free text (matches the estado field)"
// @Success      200       {object}  listSolicitudesResponse
// @Failure      401       {object}  errorResponse
// @Router       /requests [get]
func (h *SolicitudeHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	in := ports.ListSolicitudesInput{
		Caller: caller,
		State:  c.QueryParam("estado"),
		Search: c.QueryParam("q"),
		Page:   queryInt(c, "page", defaultPage),
		Limit:  clampLimit(queryInt(c, "limit", defaultLimit)),
	}
	// Malformed optional filters are dropped, never an error.
	in.From = queryDate(c, "desde")
	in.To = queryDate(c, "hasta")
	if v, err := strconv.ParseInt(c.QueryParam("montoMin"), 10, 64); err == nil && v > 0 {
		in.MinAmount = v
	}

	result, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toListResponse(result))
}

// Get handles GET /requests/:id — direct lookup for audit, soft-deleted
// included.
//
// @Summary      Get one solicitude by id
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Solicitude id"
// @Success      200  {object}  solicitudeResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /requests/{id} [get]
func (h *SolicitudeHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	sol, err := h.service.Get(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSolicitudeResponse(sol))
}

// Update handles PUT /requests/:id — edit amount/term while the solicitude
// is still a draft.
//
// @Summary      Edit a draft solicitude
// @Tags         solicitudes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Solicitude id"
// @Param        body  body      updateSolicitudeRequest  true  "Fields to change"
// @Success      200   {object}  solicitudeResponse
// @Failure      400   {object}  errorResponse
// @Router       /requests/{id} [put]
func (h *SolicitudeHandler) Update(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateSolicitudeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sol, err := h.service.UpdateDraft(c.Request().Context(), c.Param("id"), caller.ID, ports.UpdateSolicitudeInput{
		Amount:     req.Monto,
		TermMonths: req.PlazoMeses,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSolicitudeResponse(sol))
}

// ChangeState handles PATCH /requests/:id/estado — the self-service
// transitions: estado=en_validacion (submit) and estado=cancelada (cancel,
// with an optional razon). Agent decisions travel through the agent routes
// only.
//
// @Summary      Submit or cancel an owned solicitude
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true   "Solicitude id"
// @Param        estado  query     string  true   "Target state: en_validacion or cancelada"
// @Param        razon   query     string  false  "Cancellation reason"
// @Success      200     {object}  solicitudeResponse
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /requests/{id}/estado [patch]
func (h *SolicitudeHandler) ChangeState(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	target := strings.ToLower(strings.TrimSpace(c.QueryParam("estado")))

	var sol *domain.Solicitude
	switch domain.SolicitudeState(target) {
	case domain.StateInReview:
		sol, err = h.service.Submit(c.Request().Context(), id, caller.ID)
	case domain.StateCancelled:
		sol, err = h.service.Cancel(c.Request().Context(), id, caller.ID, c.QueryParam("razon"))
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "estado no soportado: use en_validacion o cancelada")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSolicitudeResponse(sol))
}

// Delete handles DELETE /requests/:id — soft delete. The record disappears
// from listings but stays fetchable by id.
//
// @Summary      Soft-delete an owned solicitude
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Solicitude id"
// @Success      200  {object}  deleteSolicitudeResponse
// @Failure      404  {object}  errorResponse
// @Router       /requests/{id} [delete]
func (h *SolicitudeHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	sol, err := h.service.SoftDelete(c.Request().Context(), c.Param("id"), caller.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deleteSolicitudeResponse{
		Success: true,
		ID:      sol.ID,
		Data:    toSolicitudeResponse(sol),
	})
}

// queryInt parses an integer query parameter, falling back to def on absent
// or malformed input.
func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func clampLimit(limit int) int {
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// queryDate parses an optional date filter. Accepts full RFC 3339 or a bare
// date; anything else is silently ignored.
func queryDate(c echo.Context, name string) time.Time {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
