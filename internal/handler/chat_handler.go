package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
	ClassID string `json:"class_id"`
}

// Answer handles POST /chat. Unlike the class endpoints this returns
// the answer payload bare, with a plain {"error": ...} body on failure.
func (h *ChatHandler) Answer(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message and class ID are required"})
		return
	}
	answer, err := h.chat.Answer(c.Request.Context(), getUserID(c), req.ClassID, req.Message)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("chat failed", zap.Error(err))
		switch {
		case errors.Is(err, appErr.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message and class ID are required"})
		case errors.Is(err, appErr.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		}
		return
	}
	c.JSON(http.StatusOK, answer)
}
