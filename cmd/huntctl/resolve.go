package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"huntctl/internal/config"
)

func newResolveCommand(opts *cliOptions) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "resolve [agent-name]",
		Short: "Show the resolved configuration for one agent",
		Long: `Resolves an agent's model assignment the same way the assistant does
at runtime: an exact agent entry wins, then the first matching group
in document order, then the defaults. Prints every resolved field and
where the assignment came from.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dotenv, err := config.LoadEnvDefaults(); err == nil && dotenv == "" && opts.debug {
				fmt.Fprintln(cmd.OutOrStdout(), gray("no .env file found"))
			}

			agentName := ""
			if len(args) > 0 {
				agentName = args[0]
			}
			if agentName == "" && !showAll {
				return fmt.Errorf("an agent name is required unless --all is given")
			}

			loader := config.NewLoader(opts.configPath)
			if err := loader.Load(); err != nil {
				return err
			}

			if showAll {
				agents, err := agentList(opts)
				if err != nil {
					return err
				}
				if agents == nil {
					agents = config.KnownAgents
				}
				for _, name := range agents {
					printResolution(cmd, loader, name)
				}
				return nil
			}

			printResolution(cmd, loader, agentName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Resolve every known agent")
	return cmd
}

func printResolution(cmd *cobra.Command, loader *config.Loader, agentName string) {
	out := cmd.OutOrStdout()

	resolved, err := loader.ResolveAgentConfig(agentName)
	if err != nil {
		fmt.Fprintf(out, "%s %s: %v\n", red("✗"), bold(agentName), err)
		return
	}

	source := loader.ResolutionSource(agentName)
	fmt.Fprintf(out, "%s %s %s\n", green("✓"), bold(agentName), gray("("+source+")"))

	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "    %s: %v\n", k, resolved[k])
	}
}
