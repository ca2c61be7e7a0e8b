package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validator runs an exhaustive report over a configuration: every provider,
// the defaults record, and every known agent. Unlike single-shot resolution,
// it never stops at the first failure: each problem is recorded and the
// pass continues, so one broken agent assignment cannot hide the rest of
// the report.
type Validator struct {
	loader *Loader
	agents []string

	// Errors are problems that would prevent operation; Warnings are
	// configuration smells that risk runtime surprises.
	Errors   []string
	Warnings []string
}

// NewValidator builds a validator over the given loader. A nil or empty
// agent list falls back to KnownAgents.
func NewValidator(loader *Loader, agents []string) *Validator {
	if len(agents) == 0 {
		agents = KnownAgents
	}
	return &Validator{loader: loader, agents: agents}
}

// Agents returns the agent roster this validator checks.
func (v *Validator) Agents() []string {
	return v.agents
}

// Loader returns the underlying loader for report rendering.
func (v *Validator) Loader() *Loader {
	return v.loader
}

// Validate loads the configuration if needed and runs all checks. It
// returns true when no hard errors were recorded.
func (v *Validator) Validate() bool {
	if err := v.loader.ensure(); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("configuration error: %v", err))
		return false
	}

	v.validateProviders()
	v.validateAgentAssignments()
	v.checkUnusedProviders()

	return len(v.Errors) == 0
}

func (v *Validator) validateProviders() {
	for _, name := range sortedKeys(v.loader.Providers()) {
		spec, err := v.loader.GetProviderConfig(name)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
			continue
		}

		// OpenAI-compatible servers behind a custom base URL often serve
		// models outside the recognized families; without model_info the
		// client factory cannot describe their capabilities.
		if spec.Type == ProviderOpenAI {
			if _, ok := spec.Config["base_url"]; ok && len(spec.Models) == 0 {
				v.Warnings = append(v.Warnings, fmt.Sprintf(
					"provider '%s': uses base_url (OpenAI-compatible) but has no 'models' section. "+
						"Consider adding model_info for non-standard models.", name))
			}
		}
	}
}

func (v *Validator) validateAgentAssignments() {
	defaults, err := v.loader.ResolveAgentConfig("")
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("error resolving defaults: %v", err))
	} else {
		v.validateAgentConfig("defaults", defaults)
	}

	for _, agent := range v.agents {
		resolved, err := v.loader.ResolveAgentConfig(agent)
		if err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("error resolving agent '%s': %v", agent, err))
			continue
		}
		v.validateAgentConfig(agent, resolved)
	}
}

func (v *Validator) validateAgentConfig(agentName string, resolved AgentConfig) {
	providerName := resolved.Provider()
	if providerName == "" {
		v.Errors = append(v.Errors, fmt.Sprintf("agent '%s': no provider specified", agentName))
		return
	}

	spec, err := v.loader.GetProviderConfig(providerName)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("agent '%s': %v", agentName, err))
		return
	}

	for _, field := range spec.Type.RequiredAgentFields() {
		if _, ok := resolved[field]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf(
				"agent '%s': missing required field '%s' for %s provider",
				agentName, field, spec.Type))
		}
	}

	// Non-standard model behind an OpenAI-compatible base URL needs
	// model_info or the runtime may refuse it.
	if spec.Type == ProviderOpenAI {
		model := resolved.Model()
		if _, compatible := spec.Config["base_url"]; compatible && model != "" && !isRecognizedModelFamily(model) {
			info, err := v.loader.GetModelInfo(providerName, model)
			if err == nil && len(info) == 0 {
				v.Warnings = append(v.Warnings, fmt.Sprintf(
					"agent '%s': uses non-standard model '%s' from OpenAI-compatible provider '%s' "+
						"without model_info. This may cause errors.", agentName, model, providerName))
			}
		}
	}
}

func (v *Validator) checkUnusedProviders() {
	used := map[string]bool{}

	if defaults, err := v.loader.ResolveAgentConfig(""); err == nil {
		used[defaults.Provider()] = true
	}
	for _, agent := range v.agents {
		if resolved, err := v.loader.ResolveAgentConfig(agent); err == nil {
			used[resolved.Provider()] = true
		}
	}

	for _, name := range sortedKeys(v.loader.Providers()) {
		if !used[name] {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"provider '%s' is defined but not used by any agent", name))
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isRecognizedModelFamily reports whether the model name belongs to a
// built-in OpenAI family the client can describe without model_info.
func isRecognizedModelFamily(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1-")
}
