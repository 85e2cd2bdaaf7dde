package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"xai-chat/internal/config"
	"xai-chat/internal/render"
	"xai-chat/internal/requester"
)

type chatOptions struct {
	InputFile string
	System    string
	Stream    bool
	DryRun    bool
	Output    string
	Style     string
	Model     string
	URL       string
	Token     string
	Type      string
}

func newChatCmd() *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Send one chat completion request and print the reply message",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, args)
		},
	}
	addChatFlags(cmd, opts)
	return cmd
}

func addChatFlags(cmd *cobra.Command, opts *chatOptions) {
	cmd.Flags().StringVarP(&opts.InputFile, "file", "F", "", "prompt file, use -F- for stdin")
	cmd.Flags().StringVar(&opts.System, "system", "", "override system prompt")
	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "stream response content")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the request body instead of sending it")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output format: json, text or markdown")
	cmd.Flags().StringVar(&opts.Style, "style", "", "glamour style for markdown output")
	addClientFlags(cmd, &opts.Model, &opts.URL, &opts.Token, &opts.Type)
}

func addClientFlags(cmd *cobra.Command, model, url, token, kind *string) {
	cmd.Flags().StringVar(model, "model", "", "override model name")
	cmd.Flags().StringVar(url, "url", "", "override base url")
	cmd.Flags().StringVar(token, "token", "", "override api key")
	cmd.Flags().StringVar(kind, "type", "", "override client backend: openai or go-openai")
}

func runChat(cmd *cobra.Command, opts *chatOptions, args []string) error {
	prompt, err := readInput(args, opts.InputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.LLM = applyClientOverrides(cfg.LLM, opts.Model, opts.URL, opts.Token, opts.Type)
	cfg.Chat.Output = firstNonEmpty(opts.Output, cfg.Chat.Output)
	if err := cfg.Validate(); err != nil {
		return err
	}

	r, err := requester.New(cfg.LLM, requester.Options{
		Out:    cmd.OutOrStdout(),
		Stream: opts.Stream,
		Render: render.Options{
			Format: cfg.Chat.Output,
			Style:  firstNonEmpty(opts.Style, cfg.Chat.Style),
		},
	})
	if err != nil {
		return err
	}

	systemPrompt := firstNonEmpty(opts.System, cfg.Chat.System)
	userPrompt := firstNonEmpty(strings.TrimSpace(prompt), cfg.Chat.Prompt)
	if opts.DryRun {
		return r.DryRun(systemPrompt, userPrompt)
	}
	return r.Run(cmd.Context(), systemPrompt, userPrompt)
}

func applyClientOverrides(cfg config.LLMConfig, model, url, token, kind string) config.LLMConfig {
	cfg.Model = firstNonEmpty(model, cfg.Model)
	cfg.URL = firstNonEmpty(url, cfg.URL)
	cfg.Token = firstNonEmpty(token, cfg.Token)
	cfg.Type = firstNonEmpty(kind, cfg.Type)
	return cfg
}
