package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"huntctl/internal/config"
	"huntctl/internal/logging"
)

func newValidateCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the model configuration and print a report",
		Long: `Loads the model configuration, checks every provider's connection
settings, resolves each known agent's assignment, and prints a full
report. The exit code is non-zero when any error is found; warnings
alone do not fail the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Component("validate")

			dotenv, err := config.LoadEnvDefaults()
			if err != nil {
				logger.Warn("failed to load .env: %v", err)
			} else if dotenv != "" {
				logger.Debug("loaded environment defaults from %s", dotenv)
				if !opts.quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", gray("Loaded environment from "+dotenv))
				}
			}

			agents, err := agentList(opts)
			if err != nil {
				return err
			}

			loader := config.NewLoader(opts.configPath)
			logger.Debug("validating %s", loader.Path())
			validator := config.NewValidator(loader, agents)
			ok := validator.Validate()

			if opts.quiet {
				fmt.Fprint(cmd.OutOrStdout(), config.RenderQuiet(validator))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), config.RenderReport(validator))
			}

			if !ok {
				logger.Warn("validation failed with %d error(s)", len(validator.Errors))
				return fmt.Errorf("configuration is invalid: %d error(s)", len(validator.Errors))
			}
			return nil
		},
	}
	return cmd
}

func agentList(opts *cliOptions) ([]string, error) {
	if opts.agentsFile == "" {
		return nil, nil
	}
	agents, err := config.LoadAgentRoster(opts.agentsFile)
	if err != nil {
		return nil, fmt.Errorf("load agents file: %w", err)
	}
	return agents, nil
}
