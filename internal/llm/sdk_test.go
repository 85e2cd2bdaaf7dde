package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDKClientChat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","model":"grok-beta","choices":[{"index":0,"message":{"role":"assistant","content":"42"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewSDKClient(OpenAIConfig{BaseURL: server.URL, Token: "token", Model: "grok-beta", HTTPClient: server.Client()})
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), BuildRequest("sys", "usr", ""))
	require.NoError(t, err)

	choice, err := resp.First()
	require.NoError(t, err)
	assert.Equal(t, Message{Role: RoleAssistant, Content: "42"}, choice.Message)
	assert.Equal(t, "stop", choice.FinishReason)
	assert.Equal(t, "cmpl-2", resp.ID)

	assert.Equal(t, "grok-beta", gotBody["model"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestSDKClientAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewSDKClient(OpenAIConfig{BaseURL: server.URL, Token: "bad", Model: "grok-beta", HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), BuildRequest("sys", "usr", ""))
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr), "got %T: %v", err, err)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, "invalid key", authErr.Message)
}

func TestSDKClientChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"id":"s1","model":"grok-beta","choices":[{"index":0,"delta":{"role":"assistant","content":"4"}}]}` + "\n\n",
			`data: {"id":"s1","choices":[{"index":0,"delta":{"content":"2"},"finish_reason":"stop"}]}` + "\n\n",
			"data: [DONE]\n\n",
		}
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewSDKClient(OpenAIConfig{BaseURL: server.URL, Token: "token", Model: "grok-beta", HTTPClient: server.Client()})
	require.NoError(t, err)

	var streamed strings.Builder
	resp, err := client.ChatStream(context.Background(), BuildRequest("sys", "usr", ""), func(delta string) error {
		streamed.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "42", streamed.String())

	choice, err := resp.First()
	require.NoError(t, err)
	assert.Equal(t, "42", choice.Message.Content)
	assert.Equal(t, "stop", choice.FinishReason)
}

func TestSDKClientChatStreamTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"id":"s1","choices":[{"index":0,"delta":{"content":"4"}}]}` + "\n\n"))
	}))
	t.Cleanup(server.Close)

	client, err := NewSDKClient(OpenAIConfig{BaseURL: server.URL, Token: "token", Model: "grok-beta", HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.ChatStream(context.Background(), BuildRequest("sys", "usr", ""), nil)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %T: %v", err, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSDKClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewSDKClient(OpenAIConfig{BaseURL: url, Token: "token", Model: "grok-beta"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), BuildRequest("sys", "usr", ""))
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %T: %v", err, err)
}
