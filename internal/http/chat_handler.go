package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neon-nexus/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint de intercambio de turnos.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// Exchange maneja POST /api/chat. La identidad es opcional: sin sesión el
// intercambio es efímero y no toca el store.
func (h *ChatHandler) Exchange(c *gin.Context) {
	var req struct {
		Prompt         string `json:"prompt"`
		ModelName      string `json:"modelName"`
		ConversationID string `json:"conversationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ownerEmail := ""
	if claims, ok := GetAuthClaims(c); ok {
		ownerEmail = claims.Email
	}

	out, err := h.chatServ.Exchange(c.Request.Context(), service.ExchangeInput{
		Prompt:         req.Prompt,
		ModelName:      req.ModelName,
		ConversationID: req.ConversationID,
		OwnerEmail:     ownerEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPrompt):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing prompt"})
		case errors.Is(err, service.ErrInvalidConversationID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		case errors.Is(err, service.ErrMissingAPIKey):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			h.logger.Error("chat exchange failed", zap.Error(err))
			// El mensaje del upstream viaja textual hacia el cliente.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	resp := gin.H{"text": out.Text}
	if out.ConversationID != "" {
		resp["conversationId"] = out.ConversationID
	}
	c.JSON(http.StatusOK, resp)
}
