package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"xai-chat/internal/browse"
	"xai-chat/internal/config"
	"xai-chat/internal/llm"
	"xai-chat/internal/navigator"
)

type navigateOptions struct {
	System   string
	MaxTurns int
	Model    string
	URL      string
	Token    string
	Type     string
}

func newNavigateCmd() *cobra.Command {
	opts := &navigateOptions{}
	cmd := &cobra.Command{
		Use:   "navigate [prompt...]",
		Short: "Let the model browse with open_website and click functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNavigate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.System, "system", "", "override system prompt")
	cmd.Flags().IntVar(&opts.MaxTurns, "max-turns", 0, "override navigator.max_turns")
	addClientFlags(cmd, &opts.Model, &opts.URL, &opts.Token, &opts.Type)
	return cmd
}

func runNavigate(cmd *cobra.Command, opts *navigateOptions, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.LLM = applyClientOverrides(cfg.LLM, firstNonEmpty(opts.Model, cfg.Navigator.Model), opts.URL, opts.Token, opts.Type)
	if opts.MaxTurns > 0 {
		cfg.Navigator.MaxTurns = opts.MaxTurns
	}
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}

	client, err := llm.NewClient(cfg.LLM.Type, llm.OpenAIConfig{
		BaseURL: cfg.LLM.URL,
		Token:   cfg.LLM.Token,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return err
	}

	nav := navigator.New(client, navigator.Config{
		Model:    cfg.LLM.Model,
		MaxTurns: cfg.Navigator.MaxTurns,
		Browser:  browse.New(cfg.Navigator.FetchTimeout),
		Out:      cmd.OutOrStdout(),
	})
	systemPrompt := firstNonEmpty(opts.System, cfg.Navigator.System)
	userPrompt := firstNonEmpty(strings.Join(args, " "), cfg.Navigator.Prompt)
	return nav.Run(cmd.Context(), systemPrompt, userPrompt)
}
