package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdf-rag-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:        baseURL,
		Model:          "llama3",
		TimeoutSeconds: 2,
		Generation: config.LLMGenerationConfig{
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   512,
		},
	}
}

func TestGenerate_SendsNonStreamingRequest(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "hello there"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	response, err := client.Generate(context.Background(), "say hello")
	require.NoError(t, err)

	assert.Equal(t, "hello there", response)
	assert.Equal(t, "llama3", gotReq.Model)
	assert.Equal(t, "say hello", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.7, gotReq.Options.Temperature)
	assert.Equal(t, 0.9, gotReq.Options.TopP)
	assert.Equal(t, 512, gotReq.Options.MaxTokens)
}

func TestGenerate_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrStatus)
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrConnection)
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Generate(ctx, "hi")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrStatus)
}
