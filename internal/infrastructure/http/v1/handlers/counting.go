package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// CountingHandler serves the count session endpoints.
type CountingHandler struct {
	*BaseHandler
	service *counting.Service
}

// NewCountingHandler creates a new counting handler.
func NewCountingHandler(base *BaseHandler, service *counting.Service) *CountingHandler {
	return &CountingHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers the count session routes.
func (h *CountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/latest", h.Latest)
	rg.GET("/:id", h.Get)
}

// Create handles POST /count-sessions.
func (h *CountingHandler) Create(c *gin.Context) {
	var req dto.CreateCountSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	session, entries, err := h.service.CreateSession(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, dto.FromCountSession(session, entries))
}

// List handles GET /count-sessions: sessions in a date range, newest
// first. The range defaults to everything up to today.
func (h *CountingHandler) List(c *gin.Context) {
	from, err := dto.ParseOptionalDate("from", c.Query("from"))
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseOptionalDate("to", c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}

	fromDate := time.Time{}
	if from != nil {
		fromDate = *from
	}
	toDate := types.Day(time.Now())
	if to != nil {
		toDate = *to
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), fromDate, toDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"sessions": sessions})
}

// Latest handles GET /count-sessions/latest: the most recent session
// with its entries.
func (h *CountingHandler) Latest(c *gin.Context) {
	session, err := h.service.LatestSession(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	session, entries, err := h.service.GetSession(c.Request.Context(), session.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCountSession(session, entries))
}

// Get handles GET /count-sessions/:id.
func (h *CountingHandler) Get(c *gin.Context) {
	sessionID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid session id").WithDetail("id", c.Param("id")))
		return
	}

	session, entries, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCountSession(session, entries))
}
