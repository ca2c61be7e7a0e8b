package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	reportGreen  = color.New(color.FgGreen).SprintFunc()
	reportRed    = color.New(color.FgRed).SprintFunc()
	reportYellow = color.New(color.FgYellow).SprintFunc()
	reportBlue   = color.New(color.FgBlue).SprintFunc()
	reportGray   = color.New(color.FgHiBlack).SprintFunc()
	reportBold   = color.New(color.Bold).SprintFunc()
)

const reportRule = "================================================================================"

// RenderReport builds the full validation report: status, warnings, the
// provider tree, the per-agent assignment table, the provider usage
// summary, and a final status line. The caller prints the result.
func RenderReport(v *Validator) string {
	var b strings.Builder

	b.WriteString("\n" + reportRule + "\n")
	b.WriteString(reportBold("Model Configuration Validation Report") + "\n")
	b.WriteString(reportRule + "\n\n")

	if len(v.Errors) > 0 {
		b.WriteString(reportRed(fmt.Sprintf("✗ Configuration is INVALID (%d error(s))", len(v.Errors))) + "\n\n")
		for _, e := range v.Errors {
			b.WriteString(fmt.Sprintf("  %s %s\n", reportRed("✗"), e))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(reportGreen("✓ Configuration is valid") + "\n\n")
	}

	if len(v.Warnings) > 0 {
		b.WriteString(reportYellow(fmt.Sprintf("⚠ %d warning(s):", len(v.Warnings))) + "\n\n")
		for _, w := range v.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", reportYellow("⚠"), w))
		}
		b.WriteString("\n")
	}

	// A broken configuration makes the assignment sections meaningless.
	if len(v.Errors) > 0 {
		writeFinalSummary(&b, v)
		return b.String()
	}

	writeProviderTree(&b, v)
	writeAgentTable(&b, v)
	writeUsageSummary(&b, v)
	writeFinalSummary(&b, v)
	return b.String()
}

// RenderQuiet builds only the error and warning lists.
func RenderQuiet(v *Validator) string {
	var b strings.Builder
	if len(v.Errors) > 0 {
		b.WriteString(reportRed(fmt.Sprintf("✗ %d error(s):", len(v.Errors))) + "\n")
		for _, e := range v.Errors {
			b.WriteString(fmt.Sprintf("  %s %s\n", reportRed("✗"), e))
		}
	}
	if len(v.Warnings) > 0 {
		b.WriteString(reportYellow(fmt.Sprintf("⚠ %d warning(s):", len(v.Warnings))) + "\n")
		for _, w := range v.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", reportYellow("⚠"), w))
		}
	}
	return b.String()
}

func writeProviderTree(b *strings.Builder, v *Validator) {
	providers := v.Loader().Providers()
	names := sortedKeys(providers)

	fmt.Fprintf(b, "Providers (%d defined)\n", len(names))
	b.WriteString(strings.Repeat("-", 80) + "\n")

	for idx, name := range names {
		spec := providers[name]
		last := idx == len(names)-1
		prefix, cont := "├─", "│ "
		if last {
			prefix, cont = "└─", "  "
		}

		fmt.Fprintf(b, "%s %s (%s)\n", prefix, reportBold(name), spec.Type)

		switch spec.Type {
		case ProviderAzure:
			fmt.Fprintf(b, "%s  ├─ Endpoint: %s\n", cont, reportBlue(truncate(configString(spec.Config, "endpoint"), 50)))
			fmt.Fprintf(b, "%s  ├─ API Version: %s\n", cont, configStringOr(spec.Config, "api_version", "N/A"))
			if spec.AuthModule != "" {
				fmt.Fprintf(b, "%s  └─ Auth: %s (custom module)\n", cont, spec.AuthModule)
			} else {
				fmt.Fprintf(b, "%s  └─ Credentials: %s\n", cont, credentialStatus(spec.Config))
			}
		case ProviderOpenAI:
			fmt.Fprintf(b, "%s  ├─ Credentials: %s\n", cont, credentialStatus(spec.Config))
			if base := configString(spec.Config, "base_url"); base != "" {
				fmt.Fprintf(b, "%s  ├─ Base URL: %s\n", cont, reportBlue(truncate(base, 50)))
			}
			if org := configString(spec.Config, "organization"); org != "" {
				fmt.Fprintf(b, "%s  ├─ Organization: %s\n", cont, org)
			}
			if project := configString(spec.Config, "project"); project != "" {
				fmt.Fprintf(b, "%s  ├─ Project: %s\n", cont, project)
			}
			if len(spec.Models) > 0 {
				fmt.Fprintf(b, "%s  └─ Models defined: %s\n", cont,
					truncate(strings.Join(sortedKeys(spec.Models), ", "), 50))
			} else {
				fmt.Fprintf(b, "%s  └─ No models defined\n", cont)
			}
		case ProviderAnthropic:
			fmt.Fprintf(b, "%s  ├─ Credentials: %s\n", cont, credentialStatus(spec.Config))
			if mt, ok := spec.Config["max_tokens"]; ok {
				fmt.Fprintf(b, "%s  ├─ Max Tokens: %v\n", cont, mt)
			}
			if temp, ok := spec.Config["temperature"]; ok {
				fmt.Fprintf(b, "%s  ├─ Temperature: %v\n", cont, temp)
			}
			if base := configString(spec.Config, "base_url"); base != "" {
				fmt.Fprintf(b, "%s  ├─ Base URL: %s\n", cont, reportBlue(truncate(base, 50)))
			}
			fmt.Fprintf(b, "%s  └─ Model: (configured per agent)\n", cont)
		}

		if !last {
			fmt.Fprintf(b, "%s\n", cont)
		}
	}
	b.WriteString("\n")
}

func writeAgentTable(b *strings.Builder, v *Validator) {
	loader := v.Loader()
	agents := v.Agents()

	fmt.Fprintf(b, "Agent Model Assignments (%d agents)\n", len(agents))
	b.WriteString(reportRule + "\n")

	fmt.Fprintf(b, "┌─%s┬─%s┬─%s┬─%s┐\n",
		strings.Repeat("─", 27), strings.Repeat("─", 16), strings.Repeat("─", 20), strings.Repeat("─", 18))
	fmt.Fprintf(b, "│ %-27s│ %-16s│ %-20s│ %-18s│\n", "Agent", "Provider", "Model", "Source")
	fmt.Fprintf(b, "├─%s┼─%s┼─%s┼─%s┤\n",
		strings.Repeat("─", 27), strings.Repeat("─", 16), strings.Repeat("─", 20), strings.Repeat("─", 18))

	for _, agent := range agents {
		providerName, model, source := "ERROR", "", "error"
		resolved, err := loader.ResolveAgentConfig(agent)
		if err != nil {
			model = truncate(err.Error(), 20)
		} else {
			providerName = resolved.Provider()
			model = resolved.Model()
			if model == "" {
				model = "N/A"
			}
			source = loader.ResolutionSource(agent)
			if spec, err := loader.GetProviderConfig(providerName); err == nil &&
				spec.Type == ProviderAzure && resolved.Deployment() != "" {
				model = fmt.Sprintf("%s (%s)", model, resolved.Deployment())
			}
		}
		fmt.Fprintf(b, "│ %-27s│ %-16s│ %-20s│ %-18s│\n",
			truncate(agent, 27), truncate(providerName, 16), truncate(model, 20), truncate(source, 18))
	}

	fmt.Fprintf(b, "└─%s┴─%s┴─%s┴─%s┘\n\n",
		strings.Repeat("─", 27), strings.Repeat("─", 16), strings.Repeat("─", 20), strings.Repeat("─", 18))
}

func writeUsageSummary(b *strings.Builder, v *Validator) {
	loader := v.Loader()

	b.WriteString("Provider Usage Summary\n")
	b.WriteString(reportRule + "\n")

	usage := map[string]map[string][]string{}
	for _, agent := range v.Agents() {
		resolved, err := loader.ResolveAgentConfig(agent)
		if err != nil {
			continue
		}
		provider, model := resolved.Provider(), resolved.Model()
		if provider == "" || model == "" {
			continue
		}
		if usage[provider] == nil {
			usage[provider] = map[string][]string{}
		}
		usage[provider][model] = append(usage[provider][model], agent)
	}

	for _, provider := range sortedKeys(usage) {
		providerType := "unknown"
		if spec, err := loader.GetProviderConfig(provider); err == nil {
			providerType = string(spec.Type)
		}

		models := usage[provider]
		total := 0
		for _, agents := range models {
			total += len(agents)
		}

		fmt.Fprintf(b, "\nProvider: %s (type: %s)\n", reportBold(provider), providerType)
		fmt.Fprintf(b, "  Total agents: %d\n", total)

		modelNames := make([]string, 0, len(models))
		for m := range models {
			modelNames = append(modelNames, m)
		}
		sort.Strings(modelNames)
		for _, model := range modelNames {
			agents := models[model]
			fmt.Fprintf(b, "  • %s: %d agent(s)\n", model, len(agents))
			if len(agents) <= 5 {
				fmt.Fprintf(b, "    %s\n", reportGray(strings.Join(agents, ", ")))
			} else {
				fmt.Fprintf(b, "    %s, ... (+%d more)\n", reportGray(strings.Join(agents[:5], ", ")), len(agents)-5)
			}
		}
	}
	b.WriteString("\n")
}

func writeFinalSummary(b *strings.Builder, v *Validator) {
	b.WriteString(reportRule + "\n")
	switch {
	case len(v.Errors) == 0 && len(v.Warnings) == 0:
		b.WriteString(reportGreen("✓ Validation complete: No errors or warnings found") + "\n")
	case len(v.Errors) > 0 && len(v.Warnings) > 0:
		b.WriteString(reportRed(fmt.Sprintf("✗ Validation complete: %d error(s), %d warning(s) found",
			len(v.Errors), len(v.Warnings))) + "\n")
	case len(v.Errors) > 0:
		b.WriteString(reportRed(fmt.Sprintf("✗ Validation complete: %d error(s) found", len(v.Errors))) + "\n")
	default:
		b.WriteString(reportYellow(fmt.Sprintf("⚠ Validation complete: %d warning(s) found", len(v.Warnings))) + "\n")
	}
	b.WriteString(reportRule + "\n")
}

func configString(cfg map[string]any, key string) string {
	if v, ok := cfg[key].(string); ok {
		return v
	}
	return ""
}

func configStringOr(cfg map[string]any, key, fallback string) string {
	if v := configString(cfg, key); v != "" {
		return v
	}
	return fallback
}

// credentialStatus reports the state of a provider's api_key value. A
// leading "$" means a placeholder survived uninterpolated.
func credentialStatus(cfg map[string]any) string {
	key := configString(cfg, "api_key")
	if strings.HasPrefix(key, "$") {
		return "(from env var)"
	}
	if key == "" {
		return reportRed("missing")
	}
	return reportGreen("✓")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
