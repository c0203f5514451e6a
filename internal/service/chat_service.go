package service

import (
	"context"
	"errors"
	"strings"

	"pdf-rag-go/internal/model"
	"pdf-rag-go/internal/repository"
	"pdf-rag-go/pkg/embedding"
	"pdf-rag-go/pkg/es"
	"pdf-rag-go/pkg/llm"
	"pdf-rag-go/pkg/log"
)

const retrievalTopK = 3

// Degradation reasons recorded on ChatResult.
const (
	ReasonGenerationStatus     = "generation endpoint returned an error"
	ReasonGenerationTimeout    = "generation request timed out"
	ReasonGenerationConnection = "generation service unreachable"
	ReasonGenerationFailed     = "generation failed"
)

// User-facing messages for degraded turns. The chat turn always completes
// with text; Degraded on the result tells callers this text is an apology.
const (
	apologyStatus     = "I apologize, but there was an error communicating with the language model. Please try again."
	apologyTimeout    = "I apologize, but the request timed out. Please try again."
	apologyConnection = "I apologize, but I cannot connect to the language model service. Please check if the Ollama service is running."
	apologyGeneric    = "I apologize, but there was an error generating the response. Please try again."
)

// ChatService answers a query, optionally grounding the prompt in segments
// retrieved from the vector index.
type ChatService interface {
	Chat(ctx context.Context, sessionID, query string, useKnowledge bool) (*model.ChatResult, error)
}

type chatService struct {
	embedder         embedding.Client
	index            es.VectorIndex
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
}

// NewChatService creates a ChatService.
func NewChatService(
	embedder embedding.Client,
	index es.VectorIndex,
	llmClient llm.Client,
	conversationRepo repository.ConversationRepository,
) ChatService {
	return &chatService{
		embedder:         embedder,
		index:            index,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
	}
}

// Chat runs one turn. Retrieval failures degrade to an ungrounded prompt and
// generation failures degrade to an apologetic response; neither aborts the
// turn.
func (s *chatService) Chat(ctx context.Context, sessionID, query string, useKnowledge bool) (*model.ChatResult, error) {
	var contextText string
	sources := []string{}
	if useKnowledge {
		contextText, sources = s.searchKnowledgeBase(ctx, query)
	}

	prompt := buildPrompt(query, contextText)

	response, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		apology, reason := classifyGenerationFailure(err)
		log.Errorf("[ChatService] generation failed: %v", err)
		return &model.ChatResult{
			Response:       apology,
			Sources:        sources,
			Degraded:       true,
			DegradedReason: reason,
		}, nil
	}

	response = stripAssistantHeader(response)

	if sessionID != "" && s.conversationRepo != nil {
		// Save with a background context so a cancelled request does not
		// lose an answer that was generated successfully.
		if err := s.conversationRepo.AppendTurn(context.Background(), sessionID, query, response); err != nil {
			log.Errorf("[ChatService] failed to save conversation history: %v", err)
		}
	}

	return &model.ChatResult{Response: response, Sources: sources}, nil
}

// searchKnowledgeBase embeds the query and retrieves the top segments. Any
// failure degrades to no context so a search outage never blocks generation.
func (s *chatService) searchKnowledgeBase(ctx context.Context, query string) (string, []string) {
	vectors, err := s.embedder.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		log.Errorf("[ChatService] failed to embed query: %v", err)
		return "", []string{}
	}

	hits := s.index.Search(ctx, vectors[0], retrievalTopK)
	if len(hits) == 0 {
		return "", []string{}
	}

	contextParts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		contextParts = append(contextParts, hit.Text)
		sources = append(sources, hit.Filename)
	}
	return strings.Join(contextParts, "\n\n"), sources
}

// classifyGenerationFailure picks the apology and reason for a failed
// generation call.
func classifyGenerationFailure(err error) (apology, reason string) {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return apologyTimeout, ReasonGenerationTimeout
	case errors.Is(err, llm.ErrConnection):
		return apologyConnection, ReasonGenerationConnection
	case errors.Is(err, llm.ErrStatus):
		return apologyStatus, ReasonGenerationStatus
	default:
		return apologyGeneric, ReasonGenerationFailed
	}
}
