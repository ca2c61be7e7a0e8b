package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"huntctl/internal/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

type cliOptions struct {
	configPath string
	agentsFile string
	quiet      bool
	debug      bool
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "huntctl",
		Short: "Manage and validate threat hunting assistant model configuration",
		Long: `huntctl inspects the model configuration that assigns LLM providers
and models to the hunting assistant's agents. It validates provider
connection settings, resolves per-agent assignments, and reports how
each agent ended up with its model.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !isTTY() {
				color.NoColor = true
			}
			if opts.debug {
				os.Setenv("HUNTCTL_LOG_LEVEL", "debug")
			}
			initViper(opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to model config JSON (default: model_config.json)")
	rootCmd.PersistentFlags().StringVar(&opts.agentsFile, "agents-file", "", "YAML file listing agent names to check")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print errors and warnings")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Debug logging")

	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func initViper(opts *cliOptions) {
	viper.SetConfigName("huntctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("HUNTCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Component("cli").Debug("loaded settings from %s", viper.ConfigFileUsed())
	}

	if opts.configPath == "" {
		opts.configPath = viper.GetString("model_config")
	}
	if opts.agentsFile == "" {
		opts.agentsFile = viper.GetString("agents_file")
	}
}
