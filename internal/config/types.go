package config

import (
	"encoding/json"
	"fmt"
)

// ProviderType enumerates the supported LLM backend kinds. It is a closed
// set: each variant carries its own required connection fields and required
// agent-level fields, so loader validation, the client factory, and the
// report renderer all consult the same table.
type ProviderType string

const (
	ProviderAzure     ProviderType = "azure"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
)

// Valid reports whether t is one of the enumerated provider kinds.
func (t ProviderType) Valid() bool {
	switch t {
	case ProviderAzure, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}

// RequiredConfigFields returns the connection settings a provider of this
// type must carry in its config section.
func (t ProviderType) RequiredConfigFields() []string {
	switch t {
	case ProviderAzure:
		return []string{"endpoint", "api_key", "api_version"}
	case ProviderOpenAI, ProviderAnthropic:
		return []string{"api_key"}
	}
	return nil
}

// RequiredAgentFields returns the fields a resolved agent record must carry
// to build a client against a provider of this type.
func (t ProviderType) RequiredAgentFields() []string {
	switch t {
	case ProviderAzure:
		return []string{"model", "deployment"}
	case ProviderOpenAI, ProviderAnthropic:
		return []string{"model"}
	}
	return nil
}

// ModelSpec carries optional per-model metadata under a provider's models
// section. ModelInfo holds capability descriptors for OpenAI-compatible
// servers whose model names are not a recognized built-in family.
type ModelSpec struct {
	ModelInfo map[string]any `json:"model_info,omitempty"`
}

// ProviderSpec is one named backend connection profile.
type ProviderSpec struct {
	Type       ProviderType         `json:"type"`
	Config     map[string]any       `json:"config"`
	Models     map[string]ModelSpec `json:"models,omitempty"`
	AuthModule string               `json:"auth_module,omitempty"`
}

// AgentConfig is a resolved (or stored) per-agent assignment: a provider
// reference plus passthrough fields such as model and, for Azure,
// deployment. It is deliberately an open mapping so provider-specific fields
// travel through resolution untouched.
type AgentConfig map[string]any

// Clone returns a shallow copy. Resolution always hands out clones so
// callers can mutate results without corrupting the loaded document.
func (a AgentConfig) Clone() AgentConfig {
	out := make(AgentConfig, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (a AgentConfig) stringField(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Provider returns the referenced provider name, or "" when absent.
func (a AgentConfig) Provider() string { return a.stringField("provider") }

// Model returns the model identifier, or "" when absent.
func (a AgentConfig) Model() string { return a.stringField("model") }

// Deployment returns the Azure deployment name, or "" when absent.
func (a AgentConfig) Deployment() string { return a.stringField("deployment") }

// GroupSpec bundles agent-name glob patterns with a shared assignment.
// Match is the normalized pattern list (a bare string in the document
// becomes a one-element list); Fields carries everything except "match".
type GroupSpec struct {
	Match  []string
	Fields AgentConfig
}

func (g *GroupSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.Match = nil
	g.Fields = make(AgentConfig, len(raw))
	for key, value := range raw {
		if key != "match" {
			g.Fields[key] = value
			continue
		}
		switch m := value.(type) {
		case string:
			g.Match = []string{m}
		case []any:
			patterns := make([]string, 0, len(m))
			for _, p := range m {
				s, ok := p.(string)
				if !ok {
					return fmt.Errorf("group match patterns must be strings, got %T", p)
				}
				patterns = append(patterns, s)
			}
			g.Match = patterns
		default:
			return fmt.Errorf("group match must be a string or list of strings, got %T", value)
		}
	}
	return nil
}

// Document is the parsed model_config.json. GroupOrder preserves the
// document iteration order of the groups section, which resolution depends
// on: the first matching group in document order wins.
type Document struct {
	Version    string
	Providers  map[string]ProviderSpec
	Agents     map[string]AgentConfig
	Groups     map[string]GroupSpec
	GroupOrder []string
	Defaults   AgentConfig
}
