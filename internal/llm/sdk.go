package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// SDKClient is the Client backed by github.com/sashabaranov/go-openai.
type SDKClient struct {
	client   *openai.Client
	endpoint string
	model    string
}

func NewSDKClient(cfg OpenAIConfig) (*SDKClient, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	clientConfig := openai.DefaultConfig(cfg.Token)
	clientConfig.BaseURL = apiBaseURL(cfg.BaseURL)
	clientConfig.HTTPClient = cfg.HTTPClient
	return &SDKClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: buildChatEndpoint(cfg.BaseURL),
		model:    cfg.Model,
	}, nil
}

func (c *SDKClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	sdkReq := c.toSDKRequest(req)
	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", sdkReq.Model).
		Int("messages", len(sdkReq.Messages)).
		Msg("sending chat completion via go-openai")

	resp, err := c.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return ChatResponse{}, c.mapError(err)
	}
	out := ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]Choice, 0, len(resp.Choices)),
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Message:      fromSDKMessage(choice.Message),
			FinishReason: string(choice.FinishReason),
		})
	}
	return out, nil
}

func (c *SDKClient) ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error) {
	sdkReq := c.toSDKRequest(req)
	sdkReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, sdkReq)
	if err != nil {
		return ChatResponse{}, c.mapError(err)
	}
	defer stream.Close()

	var content strings.Builder
	var out ChatResponse
	var finishReason string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ChatResponse{}, c.mapError(err)
		}
		if chunk.ID != "" {
			out.ID = chunk.ID
		}
		if chunk.Model != "" {
			out.Model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if reason := string(chunk.Choices[0].FinishReason); reason != "" {
			finishReason = reason
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
	// go-openai reports a dropped connection as io.EOF too, so only a
	// finish_reason proves the stream ended on purpose.
	if finishReason == "" {
		return ChatResponse{}, &TransportError{Endpoint: c.endpoint, Err: io.ErrUnexpectedEOF}
	}
	out.Choices = []Choice{{
		Message:      Message{Role: RoleAssistant, Content: content.String()},
		FinishReason: finishReason,
	}}
	return out, nil
}

func (c *SDKClient) toSDKRequest(req ChatRequest) openai.ChatCompletionRequest {
	sdkReq := openai.ChatCompletionRequest{
		Model:    resolveModel(req.Model, c.model),
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		sdkReq.Messages = append(sdkReq.Messages, toSDKMessage(msg))
	}
	for _, fn := range req.Functions {
		sdkReq.Functions = append(sdkReq.Functions, openai.FunctionDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		})
	}
	if req.FunctionCall != "" {
		sdkReq.FunctionCall = req.FunctionCall
	}
	return sdkReq
}

// mapError folds go-openai errors into this package's error types.
func (c *SDKClient) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		message := ""
		if reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return statusError(reqErr.HTTPStatusCode, message)
	}
	return &TransportError{Endpoint: c.endpoint, Err: err}
}

func toSDKMessage(msg Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:    msg.Role,
		Content: msg.Content,
		Name:    msg.Name,
	}
	if msg.FunctionCall != nil {
		out.FunctionCall = &openai.FunctionCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	}
	return out
}

func fromSDKMessage(msg openai.ChatCompletionMessage) Message {
	out := Message{
		Role:    msg.Role,
		Content: msg.Content,
		Name:    msg.Name,
	}
	if msg.FunctionCall != nil {
		out.FunctionCall = &FunctionCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	}
	return out
}
