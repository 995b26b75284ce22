package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"keygate-server/internal/config"
	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/infrastructure/metrics"
	"keygate-server/internal/interfaces/httpserver/requests"
	"keygate-server/internal/interfaces/httpserver/responses"
)

// KeyHandler exposes the management boundary consumed by the
// chat-command surface: issue, list, stats, revoke.
type KeyHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewKeyHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *KeyHandler {
	return &KeyHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "key-handler").Logger(),
	}
}

// Issue handles POST /v1/keys.
func (h *KeyHandler) Issue(c *gin.Context) {
	var req requests.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	record, err := h.service.Issue(c.Request.Context(), req.Duration, req.CreatedBy, req.AssignedTo)
	if err != nil {
		h.log.Warn().Err(err).Str("issuer", req.CreatedBy).Msg("issue failed")
		responses.HandleError(c, err, "failed to issue key")
		return
	}

	metrics.KeysIssuedTotal.Inc()
	c.JSON(http.StatusCreated, responses.BuildKeyResponse(record))
}

// List handles GET /v1/keys?filter=all|active|used|unused.
func (h *KeyHandler) List(c *gin.Context) {
	filter, err := domain.ParseListFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list failed")
		responses.HandleError(c, err, "failed to list keys")
		return
	}

	c.JSON(http.StatusOK, responses.BuildListResponse(records))
}

// Stats handles GET /v1/keys/:key.
func (h *KeyHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("key"))
	if err != nil {
		responses.HandleError(c, err, "failed to fetch key stats")
		return
	}

	c.JSON(http.StatusOK, responses.BuildStatsResponse(stats))
}

// Revoke handles DELETE /v1/keys/:key.
func (h *KeyHandler) Revoke(c *gin.Context) {
	key := c.Param("key")
	if err := h.service.Revoke(c.Request.Context(), key); err != nil {
		responses.HandleError(c, err, "failed to revoke key")
		return
	}

	metrics.RevocationsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"revoked": true, "key": key})
}
