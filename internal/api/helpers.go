package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/apperr"
	"mailtriage/internal/service"
)

// callerFrom builds the explicit caller identity from the auth
// middleware's context entry.
func callerFrom(c *gin.Context) service.Caller {
	return service.Caller{Subject: c.GetString("subject")}
}

// emailID parses the :id route parameter.
func emailID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email id"})
		return 0, false
	}
	return id, true
}

// respondError maps application errors onto HTTP status codes; anything
// unclassified is an internal error with a generic message.
func respondError(c *gin.Context, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindUpstream:
		status = http.StatusBadGateway
	case apperr.KindConsistency:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
