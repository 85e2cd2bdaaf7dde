package navigator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xai-chat/internal/browse"
	"xai-chat/internal/llm"
)

// scriptedClient replays responses in order and records every request.
type scriptedClient struct {
	responses []llm.ChatResponse
	requests  []llm.ChatRequest
}

func (c *scriptedClient) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	snapshot := req
	snapshot.Messages = append([]llm.Message(nil), req.Messages...)
	c.requests = append(c.requests, snapshot)
	if len(c.responses) == 0 {
		return llm.ChatResponse{}, errors.New("no scripted response left")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedClient) ChatStream(ctx context.Context, req llm.ChatRequest, _ llm.StreamHandler) (llm.ChatResponse, error) {
	return c.Chat(ctx, req)
}

func reply(msg llm.Message) llm.ChatResponse {
	return llm.ChatResponse{Choices: []llm.Choice{{Message: msg}}}
}

func callReply(name, args string) llm.ChatResponse {
	return reply(llm.Message{
		Role:         llm.RoleAssistant,
		FunctionCall: &llm.FunctionCall{Name: name, Arguments: args},
	})
}

func TestRunOpensWebsiteThenAnswers(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><button>Careers</button></body></html>"))
	}))
	t.Cleanup(site.Close)

	client := &scriptedClient{responses: []llm.ChatResponse{
		callReply(FuncOpenWebsite, fmt.Sprintf(`{"url":%q}`, site.URL)),
		reply(llm.Message{Role: llm.RoleAssistant, Content: "The careers page is open."}),
	}}
	var out bytes.Buffer
	nav := New(client, Config{Model: "grok-beta", Browser: browse.NewWithClient(site.Client()), Out: &out})

	require.NoError(t, nav.Run(context.Background(), "system prompt", "go to careers"))
	assert.Equal(t, "Assistant: The careers page is open.\n", out.String())

	require.Len(t, client.requests, 2)
	first := client.requests[0]
	assert.Equal(t, "grok-beta", first.Model)
	assert.Equal(t, "auto", first.FunctionCall)
	require.Len(t, first.Functions, 2)
	require.Len(t, first.Messages, 2)

	second := client.requests[1]
	require.Len(t, second.Messages, 4)
	assert.Equal(t, llm.RoleAssistant, second.Messages[2].Role)
	require.NotNil(t, second.Messages[2].FunctionCall)
	assert.Equal(t, FuncOpenWebsite, second.Messages[2].FunctionCall.Name)
	assert.Equal(t, llm.RoleFunction, second.Messages[3].Role)
	assert.Equal(t, FuncOpenWebsite, second.Messages[3].Name)
	assert.Contains(t, second.Messages[3].Content, "<button>Careers</button>")
}

func TestRunClick(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{
		callReply(FuncClick, `{"html":"<button>Apply</button>","button":"Apply"}`),
		reply(llm.Message{Role: llm.RoleAssistant, Content: "done"}),
	}}
	var out bytes.Buffer
	require.NoError(t, New(client, Config{Out: &out}).Run(context.Background(), "s", "u"))

	require.Len(t, client.requests, 2)
	result := client.requests[1].Messages[3]
	assert.Equal(t, "Clicked on the button 'Apply'. Updated HTML content would be displayed here.", result.Content)
	assert.Equal(t, "Assistant: done\n", out.String())
}

func TestRunUnknownFunction(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{callReply("scroll", `{}`)}}
	var out bytes.Buffer
	require.NoError(t, New(client, Config{Out: &out}).Run(context.Background(), "s", "u"))
	assert.Equal(t, "Unknown function: scroll\n", out.String())
	assert.Len(t, client.requests, 1)
}

func TestRunNoChoices(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{{}}}
	var out bytes.Buffer
	require.NoError(t, New(client, Config{Out: &out}).Run(context.Background(), "s", "u"))
	assert.Equal(t, "No response from the assistant.\n", out.String())
}

func TestRunInvalidArguments(t *testing.T) {
	client := &scriptedClient{responses: []llm.ChatResponse{callReply(FuncClick, `{"button":"Apply"}`)}}
	err := New(client, Config{}).Run(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "click arguments invalid")
}

func TestRunMaxTurns(t *testing.T) {
	call := callReply(FuncClick, `{"html":"<p></p>","button":"Next"}`)
	client := &scriptedClient{responses: []llm.ChatResponse{call, call, call}}
	err := New(client, Config{MaxTurns: 2}).Run(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrTooManyTurns)
	assert.Len(t, client.requests, 2)
}

func TestRunClientError(t *testing.T) {
	client := &scriptedClient{}
	err := New(client, Config{}).Run(context.Background(), "s", "u")
	require.Error(t, err)
}

func TestDecodeArgumentsSchema(t *testing.T) {
	fn, ok := lookup(FuncOpenWebsite)
	require.True(t, ok)

	args, err := decodeArguments(fn, `{"url":"https://x.ai/"}`)
	require.NoError(t, err)
	assert.Equal(t, "https://x.ai/", stringArg(args, "url"))

	_, err = decodeArguments(fn, `{"url":7}`)
	require.Error(t, err)

	_, err = decodeArguments(fn, ``)
	require.Error(t, err)
}
