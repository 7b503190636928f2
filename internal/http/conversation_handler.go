package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neon-nexus/internal/service"
)

// ConversationHandler mantiene dependencias para endpoints de historial.
type ConversationHandler struct {
	logger   *zap.Logger
	convServ *service.ConversationService
}

// NewConversationHandler crea una instancia de ConversationHandler.
func NewConversationHandler(logger *zap.Logger, convServ *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		logger:   logger,
		convServ: convServ,
	}
}

// List maneja GET /api/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summaries, err := h.convServ.List(c.Request.Context(), claims.Email)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// Create maneja POST /api/conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create conversation request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conv, err := h.convServ.Create(c.Request.Context(), claims.Email, req.Title)
	if err != nil {
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": conv.ID})
}

// Detail maneja GET /api/conversations/:id. Una referencia ajena responde
// igual que una inexistente.
func (h *ConversationHandler) Detail(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	detail, err := h.convServ.Detail(c.Request.Context(), claims.Email, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("conversation detail failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load conversation"})
		return
	}
	c.JSON(http.StatusOK, detail)
}
