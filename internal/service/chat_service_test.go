package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pdf-rag-go/internal/apperr"
	"pdf-rag-go/internal/model"
	"pdf-rag-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return "", l.err
	}
	return l.response, nil
}

type fakeConversationRepo struct {
	turns map[string][]model.ChatMessage
	err   error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{turns: map[string][]model.ChatMessage{}}
}

func (r *fakeConversationRepo) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return r.turns[sessionID], nil
}

func (r *fakeConversationRepo) AppendTurn(ctx context.Context, sessionID, question, answer string) error {
	if r.err != nil {
		return r.err
	}
	r.turns[sessionID] = append(r.turns[sessionID],
		model.ChatMessage{Role: "user", Content: question},
		model.ChatMessage{Role: "assistant", Content: answer},
	)
	return nil
}

type chatFixture struct {
	embedder      *fakeEmbedder
	index         *fakeVectorIndex
	llm           *fakeLLM
	conversations *fakeConversationRepo
	svc           ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		embedder:      &fakeEmbedder{},
		index:         newFakeVectorIndex(),
		llm:           &fakeLLM{response: "Paris is the capital of France."},
		conversations: newFakeConversationRepo(),
	}
	f.svc = NewChatService(f.embedder, f.index, f.llm, f.conversations)
	return f
}

func TestChat_GroundsPromptInRetrievedSegments(t *testing.T) {
	f := newChatFixture()
	f.index.hits = []model.SearchHit{
		{PDFID: 1, Filename: "geo.pdf", Text: "Paris is in France", Score: 0.9},
		{PDFID: 2, Filename: "atlas.pdf", Text: "France is in Europe", Score: 0.8},
	}

	result, err := f.svc.Chat(context.Background(), "s1", "Where is Paris?", true)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", result.Response)
	assert.Equal(t, []string{"geo.pdf", "atlas.pdf"}, result.Sources)
	assert.False(t, result.Degraded)

	require.Len(t, f.llm.prompts, 1)
	prompt := f.llm.prompts[0]
	assert.Contains(t, prompt, groundedInstruction)
	assert.Contains(t, prompt, "Context:\nParis is in France\n\nFrance is in Europe")
	assert.Contains(t, prompt, "Where is Paris?")
}

func TestChat_EmptyIndexStillGenerates(t *testing.T) {
	f := newChatFixture()

	result, err := f.svc.Chat(context.Background(), "s1", "Where is Paris?", true)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", result.Response)
	assert.Empty(t, result.Sources)
	assert.False(t, result.Degraded)
	assert.Contains(t, f.llm.prompts[0], directInstruction)
}

func TestChat_EmbeddingFailureDegradesToNoContext(t *testing.T) {
	f := newChatFixture()
	f.embedder.err = fmt.Errorf("%w: service down", apperr.ErrEmbedding)

	result, err := f.svc.Chat(context.Background(), "s1", "Where is Paris?", true)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", result.Response)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, f.index.searchCalls)
	assert.Contains(t, f.llm.prompts[0], directInstruction)
}

func TestChat_UseKnowledgeFalseSkipsRetrieval(t *testing.T) {
	f := newChatFixture()
	f.index.hits = []model.SearchHit{{Filename: "geo.pdf", Text: "Paris is in France"}}

	result, err := f.svc.Chat(context.Background(), "s1", "Where is Paris?", false)
	require.NoError(t, err)

	assert.Empty(t, result.Sources)
	assert.Empty(t, f.embedder.calls)
	assert.Equal(t, 0, f.index.searchCalls)
	assert.Contains(t, f.llm.prompts[0], directInstruction)
}

func TestChat_GenerationFailuresMapToApologies(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		apology string
		reason  string
	}{
		{"timeout", fmt.Errorf("%w: deadline", llm.ErrTimeout), apologyTimeout, ReasonGenerationTimeout},
		{"connection", fmt.Errorf("%w: refused", llm.ErrConnection), apologyConnection, ReasonGenerationConnection},
		{"status", fmt.Errorf("%w: 500", llm.ErrStatus), apologyStatus, ReasonGenerationStatus},
		{"other", errors.New("mystery"), apologyGeneric, ReasonGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture()
			f.llm.err = tt.err

			result, err := f.svc.Chat(context.Background(), "s1", "hello", true)
			require.NoError(t, err)

			assert.True(t, result.Degraded)
			assert.Equal(t, tt.apology, result.Response)
			assert.Equal(t, tt.reason, result.DegradedReason)
		})
	}
}

func TestChat_DegradedTurnIsNotSaved(t *testing.T) {
	f := newChatFixture()
	f.llm.err = fmt.Errorf("%w: refused", llm.ErrConnection)

	_, err := f.svc.Chat(context.Background(), "s1", "hello", true)
	require.NoError(t, err)
	assert.Empty(t, f.conversations.turns)
}

func TestChat_SavesConversationTurn(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.Chat(context.Background(), "s1", "Where is Paris?", true)
	require.NoError(t, err)

	history := f.conversations.turns["s1"]
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "Where is Paris?", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "Paris is the capital of France.", history[1].Content)
}

func TestChat_HistorySaveFailureDoesNotFailTurn(t *testing.T) {
	f := newChatFixture()
	f.conversations.err = errors.New("redis down")

	result, err := f.svc.Chat(context.Background(), "s1", "hello", true)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", result.Response)
}

func TestChat_StripsEchoedTurnMarkers(t *testing.T) {
	f := newChatFixture()
	f.llm.response = "prefix" + assistantHeader + "\n\n  The answer.  "

	result, err := f.svc.Chat(context.Background(), "s1", "hello", false)
	require.NoError(t, err)
	assert.Equal(t, "The answer.", result.Response)
}

func TestBuildPrompt_Structure(t *testing.T) {
	grounded := buildPrompt("What is X?", "X is a thing")
	assert.True(t, strings.HasPrefix(grounded, beginOfText+systemHeader))
	assert.Contains(t, grounded, groundedInstruction)
	assert.Contains(t, grounded, "Context:\nX is a thing")
	assert.Contains(t, grounded, userHeader+"\n\nWhat is X?")
	assert.True(t, strings.HasSuffix(grounded, assistantHeader+"\n\n"))

	direct := buildPrompt("What is X?", "")
	assert.Contains(t, direct, directInstruction)
	assert.NotContains(t, direct, "Context:")
}

func TestStripAssistantHeader(t *testing.T) {
	assert.Equal(t, "plain text", stripAssistantHeader("plain text"))
	assert.Equal(t, "answer", stripAssistantHeader(assistantHeader+"\n\nanswer"))
	assert.Equal(t, "last", stripAssistantHeader(assistantHeader+"first"+assistantHeader+" last "))
}
