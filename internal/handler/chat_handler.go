package handler

import (
	"net/http"

	"pdf-rag-go/internal/service"
	"pdf-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the retrieval-augmented chat endpoint.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Query        string `json:"query" binding:"required"`
	UseKnowledge *bool  `json:"use_knowledge"`
	SessionID    string `json:"session_id"`
}

// Chat handles POST /chat. The turn always completes with a 200: degraded
// generations are reported through the result's degraded fields rather than
// an error status.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	useKnowledge := true
	if req.UseKnowledge != nil {
		useKnowledge = *req.UseKnowledge
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "default"
	}

	result, err := h.chatService.Chat(c.Request.Context(), sessionID, req.Query, useKnowledge)
	if err != nil {
		log.Errorf("[ChatHandler] chat failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":        result.Response,
		"sources":         result.Sources,
		"use_knowledge":   useKnowledge,
		"degraded":        result.Degraded,
		"degraded_reason": result.DegradedReason,
	})
}
