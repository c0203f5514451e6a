package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pdf-rag-go/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	historyTTL        = 7 * 24 * time.Hour
	historyMaxEntries = 20
)

// ConversationRepository keeps per-session chat history.
type ConversationRepository interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendTurn(ctx context.Context, sessionID, question, answer string) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository creates a Redis-backed ConversationRepository.
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

// GetHistory returns the stored turns for a session, oldest first. A missing
// key means an empty history, not an error.
func (r *redisConversationRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(sessionID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendTurn records a question/answer pair, keeping only the most recent
// entries and refreshing the TTL.
func (r *redisConversationRepository) AppendTurn(ctx context.Context, sessionID, question, answer string) error {
	history, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(history) > historyMaxEntries {
		history = history[len(history)-historyMaxEntries:]
	}

	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(sessionID), jsonData, historyTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
