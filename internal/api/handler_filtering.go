package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/service"
)

type FilteringHandler struct {
	filtering *service.FilteringService
}

func NewFilteringHandler(filtering *service.FilteringService) *FilteringHandler {
	return &FilteringHandler{
		filtering: filtering,
	}
}

// Run handles POST /emails/managed/:id/filtering/run. Starts a filtering
// run and returns the candidate batch synchronously.
func (h *FilteringHandler) Run(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	candidates, err := h.filtering.Run(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// RecordStatus handles POST /emails/managed/:id/status
func (h *FilteringHandler) RecordStatus(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	statusID, err := h.filtering.RecordStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": statusID})
}

// CurrentStatus handles GET /emails/managed/:id/status
// Absence is a 200 with a null body.
func (h *FilteringHandler) CurrentStatus(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	status, err := h.filtering.CurrentStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// AllCurrentStatuses handles GET /filtering/statuses
func (h *FilteringHandler) AllCurrentStatuses(c *gin.Context) {
	statuses, err := h.filtering.AllCurrentStatuses(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// PurgeHistory handles DELETE /emails/managed/:id/status
func (h *FilteringHandler) PurgeHistory(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	if err := h.filtering.PurgeHistory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
