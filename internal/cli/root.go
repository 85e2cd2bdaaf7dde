package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"xai-chat/internal/config"
	"xai-chat/internal/logging"
)

type Options struct {
	Config  string
	EnvFile string
	Debug   bool
}

func NewRootCmd() *cobra.Command {
	opts := &Options{}
	chatOpts := &chatOptions{}
	root := &cobra.Command{
		Use:   "xai-chat",
		Short: "Send chat completion requests to the xAI API",
		Long: "Send chat completion requests to the xAI API.\n\n" +
			"Without a subcommand it runs chat with the configured prompts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, chatOpts, args)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(opts.Debug, cmd.ErrOrStderr())
			if err := config.LoadEnvFile(opts.EnvFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			return initConfig(opts.Config)
		},
	}

	root.PersistentFlags().StringVar(
		&opts.Config,
		"config",
		"",
		"config file (default: ./xai-chat.yaml)",
	)
	root.PersistentFlags().StringVar(
		&opts.EnvFile,
		"env-file",
		config.DefaultEnvFile,
		"KEY=VALUE file merged into the environment; missing is ignored unless set explicitly",
	)
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	addChatFlags(root, chatOpts)

	root.AddCommand(newChatCmd())
	root.AddCommand(newNavigateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("xai-chat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/xai-chat")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	log.Debug().Str("path", viper.ConfigFileUsed()).Msg("config loaded")
	return nil
}
