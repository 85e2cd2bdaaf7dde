// Package navigator runs a function-calling conversation in which the model
// may open web pages and press buttons before answering.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"xai-chat/internal/browse"
	"xai-chat/internal/llm"
)

const DefaultMaxTurns = 10

var ErrTooManyTurns = errors.New("navigator exceeded max turns without a final answer")

type Config struct {
	Model    string
	MaxTurns int
	Browser  *browse.Browser
	Out      io.Writer
}

type Navigator struct {
	client   llm.Client
	browser  *browse.Browser
	model    string
	maxTurns int
	out      io.Writer
}

func New(client llm.Client, cfg Config) *Navigator {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	browser := cfg.Browser
	if browser == nil {
		browser = browse.New(browse.DefaultTimeout)
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &Navigator{
		client:   client,
		browser:  browser,
		model:    cfg.Model,
		maxTurns: maxTurns,
		out:      out,
	}
}

// Run converses until the model answers without a function call, a turn
// cannot be handled, or MaxTurns requests have been sent.
func (n *Navigator) Run(ctx context.Context, systemPrompt, userPrompt string) error {
	req := llm.BuildRequest(systemPrompt, userPrompt, n.model)
	req.Functions = Functions()
	req.FunctionCall = "auto"

	for turn := 1; turn <= n.maxTurns; turn++ {
		resp, err := n.client.Chat(ctx, req)
		if err != nil {
			return err
		}
		next, done, err := n.step(ctx, resp)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		log.Debug().Int("turn", turn).Str("function", next[0].FunctionCall.Name).Msg("function called")
		req.Messages = append(req.Messages, next...)
	}
	return fmt.Errorf("%w (%d)", ErrTooManyTurns, n.maxTurns)
}

// step handles one reply. It returns the messages to append for the next
// request, or done when the conversation is over.
func (n *Navigator) step(ctx context.Context, resp llm.ChatResponse) ([]llm.Message, bool, error) {
	choice, err := resp.First()
	if err != nil {
		_, writeErr := fmt.Fprintln(n.out, "No response from the assistant.")
		return nil, true, writeErr
	}
	msg := choice.Message
	if msg.FunctionCall == nil || msg.FunctionCall.Name == "" {
		_, writeErr := fmt.Fprintf(n.out, "Assistant: %s\n", msg.Content)
		return nil, true, writeErr
	}

	call := *msg.FunctionCall
	fn, ok := lookup(call.Name)
	if !ok {
		_, writeErr := fmt.Fprintf(n.out, "Unknown function: %s\n", call.Name)
		return nil, true, writeErr
	}
	args, err := decodeArguments(fn, call.Arguments)
	if err != nil {
		return nil, true, err
	}

	var result string
	switch call.Name {
	case FuncOpenWebsite:
		result = n.browser.OpenWebsite(ctx, stringArg(args, "url"))
	case FuncClick:
		result = browse.Click(stringArg(args, "html"), stringArg(args, "button"))
	}

	return []llm.Message{
		{Role: llm.RoleAssistant, Content: "", FunctionCall: &call},
		{Role: llm.RoleFunction, Name: call.Name, Content: result},
	}, false, nil
}
