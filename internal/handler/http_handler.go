package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/service"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/response"
)

// Handler handles HTTP requests for discovery service.
type Handler struct {
	manager *service.Manager
}

// NewHandler creates a new HTTP handler.
func NewHandler(manager *service.Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/:category", middleware.Identity())
	{
		api.POST("/search", h.Search)
		api.GET("/session", h.GetSession)
		api.DELETE("/session", h.ResetSession)
		api.GET("/history", h.GetHistory)
		api.DELETE("/history", h.ClearHistory)
		api.GET("/recommendations", h.GetRecommendations)
		api.POST("/recommendations/refresh", h.RefreshRecommendations)
	}
}

type historyResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
}

func (h *Handler) page(c *gin.Context) (*service.Page, bool) {
	category := domain.Category(strings.ToLower(c.Param("category")))
	p, err := h.manager.Page(c.Request.Context(), category, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return p, true
}

// fail maps service errors onto the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	l := log.Ctx(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrUnknownCategory):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrEmptyQuery), errors.Is(err, service.ErrNoHistory):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrSearchFailed):
		l.Error().Err(err).Msg("search collaborator failed")
		response.BadGateway(c, "search failed")
	default:
		l.Error().Err(err).Msg("request failed")
		response.InternalError(c, "internal error")
	}
}

// Search handles a search submission.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid search request")
		response.BadRequest(c, err.Error())
		return
	}

	p, ok := h.page(c)
	if !ok {
		return
	}

	result, err := p.Search(ctx, req.Query, req.Filters)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, result)
}

// GetSession restores the last search view of the page.
func (h *Handler) GetSession(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}

	restored, ok := p.Restore(c.Request.Context())
	if !ok {
		response.NotFound(c, "no saved session")
		return
	}
	response.Success(c, restored)
}

// ResetSession wipes the saved search view.
func (h *Handler) ResetSession(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}

	if err := p.ResetSession(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"reset": true})
}

// GetHistory lists recent searches, most recent first.
func (h *Handler) GetHistory(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	response.Success(c, historyResponse{Entries: p.History()})
}

// ClearHistory empties the history and the recommendations derived from it.
func (h *Handler) ClearHistory(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}

	if err := p.ClearHistory(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, historyResponse{Entries: []domain.HistoryEntry{}})
}

// GetRecommendations returns the current recommendation state.
func (h *Handler) GetRecommendations(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	response.Success(c, p.Recommendations())
}

// RefreshRecommendations starts a forced regeneration.
func (h *Handler) RefreshRecommendations(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}

	state, err := p.RefreshRecommendations(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Accepted(c, state)
}
