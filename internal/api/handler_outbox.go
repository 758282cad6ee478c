package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailtriage/pkg/outbox"
)

// OutboxHandler exposes the outbox ops surface: inspecting events that
// exhausted their retries and putting them back in the queue.
type OutboxHandler struct {
	repo *outbox.Repository
}

func NewOutboxHandler(repo *outbox.Repository) *OutboxHandler {
	return &OutboxHandler{
		repo: repo,
	}
}

// Failed handles GET /admin/outbox/failed?limit=
func (h *OutboxHandler) Failed(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.repo.FailedEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// Replay handles POST /admin/outbox/:eventId/replay
func (h *OutboxHandler) Replay(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.repo.Replay(c.Request.Context(), eventID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
