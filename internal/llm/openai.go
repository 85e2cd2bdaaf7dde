package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries a per-call UUID so a request can be matched with
// service-side logs.
const RequestIDHeader = "X-Client-Request-Id"

type OpenAIConfig struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
}

// OpenAIClient speaks the OpenAI-compatible chat completions protocol
// directly over net/http. xAI serves the same protocol.
type OpenAIClient struct {
	endpoint   string
	token      string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAIClient{
		endpoint:   buildChatEndpoint(cfg.BaseURL),
		token:      cfg.Token,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}, nil
}

func normalizeConfig(cfg OpenAIConfig) (OpenAIConfig, error) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return cfg, errors.New("llm base url is required")
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return cfg, errors.New("llm token is required")
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return cfg, errors.New("llm model is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return cfg, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	payload := openAIChatRequest{
		ChatRequest: req,
	}
	payload.Model = resolveModel(req.Model, c.model)

	httpResp, err := c.post(ctx, payload, false)
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	var resp openAIChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return ChatResponse{}, &ParseError{Cause: err}
	}
	if resp.Error != nil {
		return ChatResponse{}, statusError(httpResp.StatusCode, resp.Error.Message)
	}

	out := ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]Choice, 0, len(resp.Choices)),
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Message:      choice.Message,
			FinishReason: choice.FinishReason,
		})
	}
	log.Debug().
		Str("id", out.ID).
		Str("model", out.Model).
		Int("choices", len(out.Choices)).
		Msg("chat completion received")
	return out, nil
}

func (c *OpenAIClient) ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error) {
	payload := openAIChatRequest{
		ChatRequest: req,
		Stream:      true,
	}
	payload.Model = resolveModel(req.Model, c.model)

	httpResp, err := c.post(ctx, payload, true)
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	var content strings.Builder
	var finishReason string
	var model string
	var id string
	var done bool

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			done = true
			break
		}
		var chunk openAIChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return ChatResponse{}, &ParseError{Cause: fmt.Errorf("stream chunk: %w", err)}
		}
		if chunk.Error != nil {
			return ChatResponse{}, statusError(httpResp.StatusCode, chunk.Error.Message)
		}
		if chunk.ID != "" {
			id = chunk.ID
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Choices[0].FinishReason != "" {
			finishReason = chunk.Choices[0].FinishReason
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if handle != nil {
			if err := handle(delta); err != nil {
				return ChatResponse{}, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return ChatResponse{}, &TransportError{Endpoint: c.endpoint, Err: fmt.Errorf("read stream: %w", err)}
	}
	if !done && finishReason == "" {
		return ChatResponse{}, &TransportError{Endpoint: c.endpoint, Err: io.ErrUnexpectedEOF}
	}
	if content.Len() == 0 && finishReason == "" {
		return ChatResponse{ID: id, Model: model}, nil
	}
	return ChatResponse{
		ID:    id,
		Model: model,
		Choices: []Choice{{
			Message:      Message{Role: RoleAssistant, Content: content.String()},
			FinishReason: finishReason,
		}},
	}, nil
}

// post sends payload and returns the response once its status is 2xx. The
// caller owns the body.
func (c *OpenAIClient) post(ctx context.Context, payload openAIChatRequest, stream bool) (*http.Response, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", payload.Model).
		Str("request_id", requestID).
		Int("messages", len(payload.Messages)).
		Bool("stream", stream).
		Msg("sending chat completion")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Endpoint: c.endpoint, Err: err}
	}
	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		defer httpResp.Body.Close()
		return nil, readOpenAIError(httpResp.Body, httpResp.StatusCode)
	}
	return httpResp, nil
}

func resolveModel(override, fallback string) string {
	if strings.TrimSpace(override) == "" {
		return fallback
	}
	return override
}

func buildChatEndpoint(baseURL string) string {
	return apiBaseURL(baseURL) + "/chat/completions"
}

// apiBaseURL accepts both "https://host" and "https://host/v1".
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func readOpenAIError(body io.Reader, status int) error {
	var resp openAIChatResponse
	_ = json.NewDecoder(body).Decode(&resp)
	if resp.Error != nil {
		return statusError(status, resp.Error.Message)
	}
	return statusError(status, "")
}

type openAIChatRequest struct {
	ChatRequest
	Stream bool `json:"stream,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIErrorBody `json:"error"`
}

// openAIErrorBody accepts both the OpenAI object form and the plain string
// form xAI uses for "error".
type openAIErrorBody struct {
	Message string
	Type    string
}

func (e *openAIErrorBody) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		e.Message = text
		return nil
	}
	var obj struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Message = obj.Message
	e.Type = obj.Type
	return nil
}
