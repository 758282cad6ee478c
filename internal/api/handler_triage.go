package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/service"
)

type TriageHandler struct {
	triage *service.TriageService
}

func NewTriageHandler(triage *service.TriageService) *TriageHandler {
	return &TriageHandler{
		triage: triage,
	}
}

// Buckets handles GET /emails/managed/:id/triage
func (h *TriageHandler) Buckets(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	buckets, err := h.triage.Buckets(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// Mute handles POST /emails/managed/:id/triage/:candidateId/mute
func (h *TriageHandler) Mute(c *gin.Context) {
	h.apply(c, h.triage.Mute)
}

// Unmute handles POST /emails/managed/:id/triage/:candidateId/unmute
func (h *TriageHandler) Unmute(c *gin.Context) {
	h.apply(c, h.triage.Unmute)
}

// AddFriend handles POST /emails/managed/:id/triage/:candidateId/friend
func (h *TriageHandler) AddFriend(c *gin.Context) {
	h.apply(c, h.triage.AddFriend)
}

// RemoveFriend handles POST /emails/managed/:id/triage/:candidateId/unfriend
func (h *TriageHandler) RemoveFriend(c *gin.Context) {
	h.apply(c, h.triage.RemoveFriend)
}

func (h *TriageHandler) apply(c *gin.Context, op func(ctx context.Context, caller service.Caller, emailManagedID int64, candidateID string) error) {
	id, ok := emailID(c)
	if !ok {
		return
	}
	candidateID := c.Param("candidateId")
	if candidateID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate id is required"})
		return
	}

	if err := op(c.Request.Context(), callerFrom(c), id, candidateID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
