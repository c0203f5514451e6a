package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"pdf-rag-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatService struct {
	gotSessionID    string
	gotQuery        string
	gotUseKnowledge bool
	result          *model.ChatResult
	err             error
}

func (s *stubChatService) Chat(ctx context.Context, sessionID, query string, useKnowledge bool) (*model.ChatResult, error) {
	s.gotSessionID = sessionID
	s.gotQuery = query
	s.gotUseKnowledge = useKnowledge
	return s.result, s.err
}

func newChatRouter(svc *stubChatService) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/chat", NewChatHandler(svc).Chat)
	return router
}

func TestChat_DefaultsSessionAndKnowledge(t *testing.T) {
	svc := &stubChatService{result: &model.ChatResult{Response: "hi", Sources: []string{"a.pdf"}}}

	w := doJSON(t, newChatRouter(svc), http.MethodPost, "/api/v1/chat", gin.H{"query": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "default", svc.gotSessionID)
	assert.Equal(t, "hello", svc.gotQuery)
	assert.True(t, svc.gotUseKnowledge)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hi", resp["response"])
	assert.Equal(t, []any{"a.pdf"}, resp["sources"])
	assert.Equal(t, true, resp["use_knowledge"])
	assert.Equal(t, false, resp["degraded"])
}

func TestChat_ExplicitSessionAndKnowledgeOff(t *testing.T) {
	svc := &stubChatService{result: &model.ChatResult{Response: "hi", Sources: []string{}}}

	w := doJSON(t, newChatRouter(svc), http.MethodPost, "/api/v1/chat", gin.H{
		"query":         "hello",
		"session_id":    "s42",
		"use_knowledge": false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s42", svc.gotSessionID)
	assert.False(t, svc.gotUseKnowledge)
}

func TestChat_MissingQuery(t *testing.T) {
	w := doJSON(t, newChatRouter(&stubChatService{}), http.MethodPost, "/api/v1/chat", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_DegradedTurnIsStillOK(t *testing.T) {
	svc := &stubChatService{result: &model.ChatResult{
		Response:       "I apologize, but the request timed out. Please try again.",
		Sources:        []string{},
		Degraded:       true,
		DegradedReason: "generation request timed out",
	}}

	w := doJSON(t, newChatRouter(svc), http.MethodPost, "/api/v1/chat", gin.H{"query": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["degraded"])
	assert.Equal(t, "generation request timed out", resp["degraded_reason"])
}
