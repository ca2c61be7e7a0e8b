package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path"
	"strings"
	"sync"
)

// DefaultConfigFile is the file name the loader looks for in the working
// directory when no explicit path is given.
const DefaultConfigFile = "model_config.json"

type loaderOptions struct {
	envLookup EnvLookup
	readFile  func(string) ([]byte, error)
}

// Option customizes loader construction.
type Option func(*loaderOptions)

// WithEnv overrides the environment lookup used for placeholder
// interpolation.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loaderOptions) {
		if lookup != nil {
			o.envLookup = lookup
		}
	}
}

// WithFileReader overrides how the configuration file is read.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(o *loaderOptions) {
		if read != nil {
			o.readFile = read
		}
	}
}

// Loader reads model_config.json and resolves per-agent provider and model
// assignments with precedence agents > groups (glob matching, document
// order) > defaults.
//
// A loaded Loader is safe to share across goroutines for reads
// (ResolveAgentConfig, GetProviderConfig, GetModelInfo). Reload is not safe
// to call concurrently with reads; callers wanting hot reload must
// synchronize externally or restrict reloads to startup.
type Loader struct {
	path      string
	envLookup EnvLookup
	readFile  func(string) ([]byte, error)

	doc *Document
	// providers holds the eagerly interpolated copy of the providers
	// section, built once at load time so repeated lookups never re-run
	// substitution.
	providers map[string]ProviderSpec
}

// NewLoader returns a loader for the given path. An empty path means
// model_config.json in the current working directory. The file is not read
// until Load or the first resolution call.
func NewLoader(configPath string, opts ...Option) *Loader {
	options := loaderOptions{
		envLookup: DefaultEnvLookup,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &Loader{
		path:      configPath,
		envLookup: options.envLookup,
		readFile:  options.readFile,
	}
}

// Path returns the configuration file path this loader reads from.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and parses the configuration file, validates the top-level
// shape, and interpolates environment placeholders in the providers section.
// All failures, including interpolation failures, surface as
// *ModelConfigError.
func (l *Loader) Load() error {
	data, err := l.readFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return wrapConfigError(err,
				"%s not found at %s. This file is required for LLM configuration.",
				DefaultConfigFile, l.path)
		}
		return wrapConfigError(err, "failed to read %s: %v", l.path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		if json.Valid(data) {
			return configErrorf("%s must be a JSON object", DefaultConfigFile)
		}
		return wrapConfigError(err, "invalid JSON in %s: %v", l.path, err)
	}

	for _, key := range []string{"version", "providers", "defaults"} {
		if _, ok := top[key]; !ok {
			return configErrorf("%s must have a %q field", DefaultConfigFile, key)
		}
	}

	doc := &Document{}
	if err := json.Unmarshal(top["version"], &doc.Version); err != nil {
		return wrapConfigError(err, "invalid 'version' field in %s: %v", l.path, err)
	}
	if err := json.Unmarshal(top["defaults"], &doc.Defaults); err != nil {
		return wrapConfigError(err, "invalid 'defaults' section in %s: %v", l.path, err)
	}
	if raw, ok := top["agents"]; ok {
		if err := json.Unmarshal(raw, &doc.Agents); err != nil {
			return wrapConfigError(err, "invalid 'agents' section in %s: %v", l.path, err)
		}
	}
	if raw, ok := top["groups"]; ok {
		if err := json.Unmarshal(raw, &doc.Groups); err != nil {
			return wrapConfigError(err, "invalid 'groups' section in %s: %v", l.path, err)
		}
		order, err := objectKeyOrder(raw)
		if err != nil {
			return wrapConfigError(err, "invalid 'groups' section in %s: %v", l.path, err)
		}
		doc.GroupOrder = order
	}

	providers, err := l.parseProviders(top["providers"])
	if err != nil {
		return err
	}
	doc.Providers = providers

	l.doc = doc
	l.providers = providers
	return nil
}

// Reload discards the cached document and re-reads the file. See the Loader
// doc comment for the concurrency contract.
func (l *Loader) Reload() error {
	return l.Load()
}

// parseProviders interpolates the providers subtree once, eagerly, then
// decodes it into typed specs. Interpolation errors are wrapped so loader
// callers only ever see ModelConfigError.
func (l *Loader) parseProviders(raw json.RawMessage) (map[string]ProviderSpec, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, wrapConfigError(err, "invalid 'providers' section in %s: %v", l.path, err)
	}

	interpolated, err := InterpolateEnv(tree, l.envLookup)
	if err != nil {
		return nil, wrapConfigError(err, "%v", err)
	}

	rebuilt, err := json.Marshal(interpolated)
	if err != nil {
		return nil, wrapConfigError(err, "failed to rebuild providers section: %v", err)
	}
	var providers map[string]ProviderSpec
	if err := json.Unmarshal(rebuilt, &providers); err != nil {
		return nil, wrapConfigError(err, "invalid 'providers' section in %s: %v", l.path, err)
	}
	return providers, nil
}

func (l *Loader) ensure() error {
	if l.doc == nil {
		return l.Load()
	}
	return nil
}

// ResolveAgentConfig resolves the provider and model assignment for the
// named agent. Resolution order, first match wins:
//
//  1. agents[agentName] (exact match)
//  2. the first group in document order with any matching glob pattern
//     (the group's fields, excluding match)
//  3. defaults
//
// An empty agentName skips straight to defaults. The returned record is a
// shallow copy; mutating it does not affect the loaded document. A winning
// record without a provider field is a *ModelConfigError.
func (l *Loader) ResolveAgentConfig(agentName string) (AgentConfig, error) {
	if err := l.ensure(); err != nil {
		return nil, err
	}

	var resolved AgentConfig

	if agentName != "" {
		if agent, ok := l.doc.Agents[agentName]; ok {
			resolved = agent.Clone()
		}
	}

	if resolved == nil && agentName != "" {
		if fields, ok := l.matchGroup(agentName); ok {
			resolved = fields.Clone()
		}
	}

	if resolved == nil {
		resolved = l.doc.Defaults.Clone()
	}

	if resolved.Provider() == "" {
		label := agentName
		if label == "" {
			label = "defaults"
		}
		return nil, configErrorf("no 'provider' field found for agent '%s'", label)
	}
	return resolved, nil
}

// matchGroup tests agentName against every group's patterns in document
// order and returns the first matching group's fields. The original
// configuration semantics are order-dependent: no specificity ranking is
// applied beyond document order.
func (l *Loader) matchGroup(agentName string) (AgentConfig, bool) {
	for _, name := range l.doc.GroupOrder {
		group, ok := l.doc.Groups[name]
		if !ok || len(group.Match) == 0 {
			continue
		}
		for _, pattern := range group.Match {
			// A malformed pattern cannot match anything.
			if matched, err := path.Match(pattern, agentName); err == nil && matched {
				return group.Fields, true
			}
		}
	}
	return nil, false
}

// ResolutionSource reports which precedence level ResolveAgentConfig would
// pick for the given agent: "agent" for an exact match, "group:<name>" for a
// glob match, otherwise "defaults".
func (l *Loader) ResolutionSource(agentName string) string {
	if err := l.ensure(); err != nil {
		return "defaults"
	}
	if agentName != "" {
		if _, ok := l.doc.Agents[agentName]; ok {
			return "agent"
		}
		for _, name := range l.doc.GroupOrder {
			group, ok := l.doc.Groups[name]
			if !ok {
				continue
			}
			for _, pattern := range group.Match {
				if matched, err := path.Match(pattern, agentName); err == nil && matched {
					return "group:" + name
				}
			}
		}
	}
	return "defaults"
}

// GetProviderConfig returns the interpolated provider record for the given
// name, after validating its type against the ProviderType enumeration and
// its config section against the type's required fields. Every failure
// names the provider and the offending field(s).
func (l *Loader) GetProviderConfig(providerName string) (ProviderSpec, error) {
	if err := l.ensure(); err != nil {
		return ProviderSpec{}, err
	}

	spec, ok := l.providers[providerName]
	if !ok {
		return ProviderSpec{}, configErrorf("provider '%s' not found in providers section", providerName)
	}

	if spec.Type == "" {
		return ProviderSpec{}, configErrorf("provider '%s' missing required 'type' field", providerName)
	}
	if !spec.Type.Valid() {
		return ProviderSpec{}, configErrorf(
			"provider '%s': invalid type '%s'. Must be 'azure', 'openai', or 'anthropic'.",
			providerName, spec.Type)
	}
	if spec.Config == nil {
		return ProviderSpec{}, configErrorf("provider '%s' missing required 'config' field", providerName)
	}

	var missing []string
	for _, field := range spec.Type.RequiredConfigFields() {
		if _, ok := spec.Config[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return ProviderSpec{}, configErrorf("provider '%s' (%s): missing required fields: %s",
			providerName, spec.Type, strings.Join(missing, ", "))
	}

	return spec, nil
}

// GetModelInfo returns the model_info metadata for a model under a
// provider, or nil when the provider declares no entry for it. A missing
// model is a normal case, not an error; only provider-level problems fail.
func (l *Loader) GetModelInfo(providerName, model string) (map[string]any, error) {
	spec, err := l.GetProviderConfig(providerName)
	if err != nil {
		return nil, err
	}
	entry, ok := spec.Models[model]
	if !ok {
		return nil, nil
	}
	return entry.ModelInfo, nil
}

// Document returns the loaded document, or nil before Load.
func (l *Loader) Document() *Document {
	return l.doc
}

// Providers returns the interpolated providers mapping, or nil before Load.
func (l *Loader) Providers() map[string]ProviderSpec {
	return l.providers
}

// objectKeyOrder walks a JSON object's tokens and returns its keys in
// document order, which encoding/json maps discard.
func objectKeyOrder(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			break
		}
		keys = append(keys, key)
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Process-wide convenience accessor. The instance is created lazily on
// first access and replaced wholesale when a path is supplied or on
// ResetDefault; it is never partially mutated in place. Prefer constructing
// a Loader explicitly and passing it by reference; the singleton exists for
// small entry points and tests.
var (
	defaultMu     sync.Mutex
	defaultLoader *Loader
)

// Default returns the shared loader, creating and loading it on first use.
// A non-empty configPath replaces any existing shared loader.
func Default(configPath string, opts ...Option) (*Loader, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLoader == nil || configPath != "" {
		loader := NewLoader(configPath, opts...)
		if err := loader.Load(); err != nil {
			return nil, err
		}
		defaultLoader = loader
	}
	return defaultLoader, nil
}

// ResetDefault drops the shared loader so the next Default call constructs
// a fresh one. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLoader = nil
}
