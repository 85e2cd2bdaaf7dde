// Package requester runs the one-shot completion flow: configure, build the
// request, send it, render the first returned message.
package requester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"xai-chat/internal/config"
	"xai-chat/internal/llm"
	"xai-chat/internal/render"
)

// countTokens is swapped out in tests.
var countTokens = llm.CountTokens

type Options struct {
	Out        io.Writer
	Render     render.Options
	Stream     bool
	HTTPClient *http.Client
}

type Requester struct {
	client llm.Client
	model  string
	out    io.Writer
	opts   Options
}

// New validates cfg and builds the backend client. It fails with a
// *config.Error before anything touches the network.
func New(cfg config.LLMConfig, opts Options) (*Requester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := llm.NewClient(cfg.Type, llm.OpenAIConfig{
		BaseURL:    cfg.URL,
		Token:      cfg.Token,
		Model:      cfg.Model,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg.Model, opts), nil
}

func NewWithClient(client llm.Client, model string, opts Options) *Requester {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Requester{
		client: client,
		model:  model,
		out:    out,
		opts:   opts,
	}
}

func (r *Requester) BuildRequest(systemPrompt, userPrompt string) llm.ChatRequest {
	return llm.BuildRequest(systemPrompt, userPrompt, r.model)
}

func (r *Requester) Send(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if e := log.Debug(); e.Enabled() {
		if n, err := countTokens(req.Messages); err == nil {
			e.Int("prompt_tokens_estimate", n).Msg("prompt size")
		} else {
			e.Err(err).Msg("prompt size")
		}
	}
	return r.client.Chat(ctx, req)
}

func (r *Requester) Render(resp llm.ChatResponse) error {
	return render.Response(r.out, resp, r.opts.Render)
}

// Run executes the whole flow once.
func (r *Requester) Run(ctx context.Context, systemPrompt, userPrompt string) error {
	req := r.BuildRequest(systemPrompt, userPrompt)
	if r.opts.Stream {
		return r.stream(ctx, req)
	}
	resp, err := r.Send(ctx, req)
	if err != nil {
		return err
	}
	return r.Render(resp)
}

// DryRun writes the request body that Run would send, plus a token estimate
// on the log, without contacting the service.
func (r *Requester) DryRun(systemPrompt, userPrompt string) error {
	req := r.BuildRequest(systemPrompt, userPrompt)
	n, err := countTokens(req.Messages)
	if err != nil {
		return err
	}
	log.Info().Int("prompt_tokens_estimate", n).Str("model", req.Model).Msg("dry run")
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

func (r *Requester) stream(ctx context.Context, req llm.ChatRequest) error {
	resp, err := r.client.ChatStream(ctx, req, func(delta string) error {
		_, writeErr := io.WriteString(r.out, delta)
		return writeErr
	})
	if err != nil {
		return err
	}
	if _, err := resp.First(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out)
	return err
}
