// Package handlers provides the HTTP surface of the registry: the paginated
// search endpoint, the identifier lookup, and the narrow full-text variant,
// translating between query strings and the service layer.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	e "github.com/opencorpdata/registry/internal/registry/errors"
	"github.com/opencorpdata/registry/internal/registry/models"
	"go.uber.org/zap"
)

// RegistryController defines the business logic interface the HTTP handlers
// invoke.
type RegistryController interface {
	Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResultPage, error)
	GetByCIN(ctx context.Context, cin string) (*models.CompanyRecord, error)
	QuickSearch(ctx context.Context, keyword string) ([]*models.SlimRecord, error)
}

// RegistryHandler maps HTTP requests onto a RegistryController.
type RegistryHandler struct {
	service RegistryController
	logger  *zap.Logger
}

// NewRegistryHandler constructs a RegistryHandler with the given service and logger.
func NewRegistryHandler(service RegistryController, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		service: service,
		logger:  logger.Named("http_handler"),
	}
}

// SearchCompanies serves GET /api/companies/search. All parameters are
// optional; a `cin` parameter short-circuits keyword and state. Out-of-range
// pagination values are clamped, never rejected.
func (h *RegistryHandler) SearchCompanies(c echo.Context) error {
	query := &models.SearchQuery{
		Keyword: c.QueryParam("company"),
		Country: c.QueryParam("country"),
		State:   c.QueryParam("state"),
		CIN:     c.QueryParam("cin"),
		Page:    intParam(c, "page", 1),
		PerPage: intParam(c, "perPage", 0),
	}

	page, err := h.service.Search(c.Request().Context(), query)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetCompany serves GET /api/companies/:cin, returning the bare record or a
// 404 for an unknown identifier.
func (h *RegistryHandler) GetCompany(c echo.Context) error {
	record, err := h.service.GetByCIN(c.Request().Context(), c.Param("cin"))
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// QuickSearch serves GET /api/companies/fts?q=, returning a bare array of up
// to 20 slim rows.
func (h *RegistryHandler) QuickSearch(c echo.Context) error {
	keyword := c.QueryParam("q")
	if strings.TrimSpace(keyword) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing query param 'q'"})
	}

	rows, err := h.service.QuickSearch(c.Request().Context(), keyword)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Health serves GET /health for liveness probes.
func (h *RegistryHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// mapServiceError translates domain errors to HTTP responses. Storage-engine
// details never reach the caller: anything unexpected becomes a generic 500.
func (h *RegistryHandler) mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, e.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
