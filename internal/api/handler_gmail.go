package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/apperr"
	"mailtriage/internal/gmail"
	"mailtriage/internal/identity"
)

// GmailHandler is the passthrough surface over the mail provider: it
// brokers an access token for the caller and forwards the read.
type GmailHandler struct {
	broker *identity.Broker
}

func NewGmailHandler(broker *identity.Broker) *GmailHandler {
	return &GmailHandler{
		broker: broker,
	}
}

// Labels handles GET /gmail/labels
func (h *GmailHandler) Labels(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	labels, err := client.Labels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// Messages handles GET /gmail/messages?max_results=&label_ids=a,b
func (h *GmailHandler) Messages(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	var maxResults int64
	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_results"})
			return
		}
		maxResults = n
	}

	var labelIDs []string
	if raw := c.Query("label_ids"); raw != "" {
		labelIDs = strings.Split(raw, ",")
	}

	messages, err := client.Messages(c.Request.Context(), maxResults, labelIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Profile handles GET /gmail/profile
func (h *GmailHandler) Profile(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	profile, err := client.Profile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *GmailHandler) client(c *gin.Context) (*gmail.Client, bool) {
	caller := callerFrom(c)
	if !caller.Authenticated() {
		respondError(c, apperr.Unauthenticated())
		return nil, false
	}

	token, err := h.broker.GoogleAccessToken(c.Request.Context(), caller.Subject)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	client, err := gmail.NewClient(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return client, true
}
