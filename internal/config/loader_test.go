package config

import (
	"errors"
	"os"
	"strings"
	"testing"
)

const testDoc = `{
  "version": "1.0",
  "providers": {
    "azure_prod": {
      "type": "azure",
      "config": {
        "endpoint": "${AZURE_ENDPOINT|https://example.openai.azure.com}",
        "api_key": "${AZURE_API_KEY}",
        "api_version": "2024-02-01"
      }
    },
    "openai_compat": {
      "type": "openai",
      "config": {
        "api_key": "${OPENAI_API_KEY|dummy}",
        "base_url": "http://localhost:8000/v1"
      },
      "models": {
        "local-mixtral": {
          "model_info": {"vision": false, "function_calling": true}
        }
      }
    },
    "anthropic_main": {
      "type": "anthropic",
      "config": {
        "api_key": "${ANTHROPIC_API_KEY|test-key}"
      }
    }
  },
  "agents": {
    "hunt_planner": {
      "provider": "anthropic_main",
      "model": "claude-sonnet-4"
    }
  },
  "groups": {
    "critics": {
      "match": ["*_critic", "*critic*"],
      "provider": "openai_compat",
      "model": "local-mixtral"
    },
    "hypothesis": {
      "match": "hypothesis-*",
      "provider": "anthropic_main",
      "model": "claude-opus-4"
    },
    "catch_critics_again": {
      "match": ["*critic*"],
      "provider": "azure_prod",
      "model": "gpt-4o",
      "deployment": "gpt-4o-prod"
    }
  },
  "defaults": {
    "provider": "azure_prod",
    "model": "gpt-4o",
    "deployment": "gpt-4o-prod"
  }
}`

func testLoader(t *testing.T, doc string, env map[string]string) *Loader {
	t.Helper()
	return NewLoader("model_config.json",
		WithEnv(envMap(env)),
		WithFileReader(func(string) ([]byte, error) { return []byte(doc), nil }),
	)
}

func testEnv() map[string]string {
	return map[string]string{"AZURE_API_KEY": "azure-secret"}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader("missing.json", WithFileReader(func(string) ([]byte, error) {
		return nil, os.ErrNotExist
	}))

	err := loader.Load()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var cfgErr *ModelConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ModelConfigError, got %T", err)
	}
	if !strings.Contains(err.Error(), "model_config.json not found at missing.json") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	loader := testLoader(t, `{"version": `, nil)
	err := loader.Load()
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestLoadTopLevelMustBeObject(t *testing.T) {
	loader := testLoader(t, `["not", "an", "object"]`, nil)
	err := loader.Load()
	if err == nil || !strings.Contains(err.Error(), "must be a JSON object") {
		t.Fatalf("expected object-shape error, got %v", err)
	}
}

func TestLoadMissingRequiredKeys(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		key  string
	}{
		{"no version", `{"providers": {}, "defaults": {}}`, "version"},
		{"no providers", `{"version": "1.0", "defaults": {}}`, "providers"},
		{"no defaults", `{"version": "1.0", "providers": {}}`, "defaults"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := testLoader(t, tc.doc, nil).Load()
			if err == nil || !strings.Contains(err.Error(), `"`+tc.key+`"`) {
				t.Fatalf("expected missing %q error, got %v", tc.key, err)
			}
		})
	}
}

func TestLoadWrapsInterpolationFailure(t *testing.T) {
	// AZURE_API_KEY has no default, so an empty environment must fail.
	loader := testLoader(t, testDoc, nil)

	err := loader.Load()
	if err == nil {
		t.Fatal("expected interpolation failure")
	}
	var cfgErr *ModelConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ModelConfigError, got %T", err)
	}
	var interpErr *InterpolationError
	if !errors.As(err, &interpErr) {
		t.Fatalf("expected wrapped InterpolationError, got %v", err)
	}
	if interpErr.Variable != "AZURE_API_KEY" {
		t.Fatalf("unexpected variable: %q", interpErr.Variable)
	}
}

func TestResolveExactAgentWins(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	resolved, err := loader.ResolveAgentConfig("hunt_planner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Provider() != "anthropic_main" || resolved.Model() != "claude-sonnet-4" {
		t.Fatalf("unexpected resolution: %v", resolved)
	}
}

func TestResolveFirstMatchingGroupInDocumentOrder(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	// Both "critics" and "catch_critics_again" match; the one declared
	// first in the document wins.
	resolved, err := loader.ResolveAgentConfig("hunt_plan_critic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Provider() != "openai_compat" {
		t.Fatalf("expected first declared group to win, got provider %q", resolved.Provider())
	}
	if _, ok := resolved["match"]; ok {
		t.Fatal("match patterns must not leak into resolved config")
	}
}

func TestResolveGroupBareStringPattern(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	resolved, err := loader.ResolveAgentConfig("hypothesis-refiner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Model() != "claude-opus-4" {
		t.Fatalf("bare-string match pattern not honored: %v", resolved)
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	resolved, err := loader.ResolveAgentConfig("able_table")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Provider() != "azure_prod" || resolved.Deployment() != "gpt-4o-prod" {
		t.Fatalf("expected defaults, got %v", resolved)
	}
}

func TestResolveEmptyNameUsesDefaults(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	resolved, err := loader.ResolveAgentConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Provider() != "azure_prod" {
		t.Fatalf("expected defaults for empty name, got %v", resolved)
	}
}

func TestResolveMissingProviderFails(t *testing.T) {
	doc := `{"version": "1.0", "providers": {}, "defaults": {"model": "gpt-4o"}}`
	loader := testLoader(t, doc, nil)

	_, err := loader.ResolveAgentConfig("some_agent")
	if err == nil || !strings.Contains(err.Error(), "no 'provider' field found for agent 'some_agent'") {
		t.Fatalf("expected missing provider error, got %v", err)
	}

	_, err = loader.ResolveAgentConfig("")
	if err == nil || !strings.Contains(err.Error(), "agent 'defaults'") {
		t.Fatalf("expected defaults label in error, got %v", err)
	}
}

func TestResolveReturnsIsolatedCopy(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	first, err := loader.ResolveAgentConfig("hunt_planner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first["model"] = "tampered"

	second, err := loader.ResolveAgentConfig("hunt_planner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Model() != "claude-sonnet-4" {
		t.Fatalf("mutation leaked into loaded document: %v", second)
	}
}

func TestResolveLoadsLazily(t *testing.T) {
	reads := 0
	loader := NewLoader("model_config.json",
		WithEnv(envMap(testEnv())),
		WithFileReader(func(string) ([]byte, error) {
			reads++
			return []byte(testDoc), nil
		}),
	)

	if reads != 0 {
		t.Fatalf("file read before first use: %d", reads)
	}
	if _, err := loader.ResolveAgentConfig("hunt_planner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := loader.ResolveAgentConfig("able_table"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reads != 1 {
		t.Fatalf("expected exactly one read, got %d", reads)
	}
}

func TestResolutionSource(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())
	if err := loader.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tc := range []struct {
		agent string
		want  string
	}{
		{"hunt_planner", "agent"},
		{"hunt_plan_critic", "group:critics"},
		{"hypothesis-refiner", "group:hypothesis"},
		{"able_table", "defaults"},
		{"", "defaults"},
	} {
		if got := loader.ResolutionSource(tc.agent); got != tc.want {
			t.Errorf("ResolutionSource(%q) = %q, want %q", tc.agent, got, tc.want)
		}
	}
}

func TestGetProviderConfig(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	spec, err := loader.GetProviderConfig("azure_prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Type != ProviderAzure {
		t.Fatalf("unexpected type: %v", spec.Type)
	}
	if spec.Config["api_key"] != "azure-secret" {
		t.Fatalf("interpolation not applied: %v", spec.Config["api_key"])
	}
	if spec.Config["endpoint"] != "https://example.openai.azure.com" {
		t.Fatalf("default not applied: %v", spec.Config["endpoint"])
	}
}

func TestGetProviderConfigNotFound(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	_, err := loader.GetProviderConfig("nope")
	if err == nil || !strings.Contains(err.Error(), "provider 'nope' not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetProviderConfigValidation(t *testing.T) {
	doc := `{
	  "version": "1.0",
	  "providers": {
	    "no_type": {"config": {"api_key": "k"}},
	    "bad_type": {"type": "watsonx", "config": {"api_key": "k"}},
	    "no_config": {"type": "openai"},
	    "azure_partial": {"type": "azure", "config": {"endpoint": "https://e"}}
	  },
	  "defaults": {"provider": "no_type"}
	}`
	loader := testLoader(t, doc, nil)

	for _, tc := range []struct {
		provider string
		want     string
	}{
		{"no_type", "missing required 'type' field"},
		{"bad_type", "Must be 'azure', 'openai', or 'anthropic'."},
		{"no_config", "missing required 'config' field"},
		{"azure_partial", "missing required fields: api_key, api_version"},
	} {
		_, err := loader.GetProviderConfig(tc.provider)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("GetProviderConfig(%q): expected %q, got %v", tc.provider, tc.want, err)
		}
	}
}

func TestGetModelInfo(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	info, err := loader.GetModelInfo("openai_compat", "local-mixtral")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info["function_calling"] != true {
		t.Fatalf("unexpected model info: %v", info)
	}
}

func TestGetModelInfoMissingModelIsNil(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	info, err := loader.GetModelInfo("openai_compat", "unknown-model")
	if err != nil {
		t.Fatalf("missing model must not be an error: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %v", info)
	}

	info, err = loader.GetModelInfo("anthropic_main", "claude-sonnet-4")
	if err != nil || info != nil {
		t.Fatalf("provider without models section: info=%v err=%v", info, err)
	}
}

func TestGetModelInfoProviderErrorPropagates(t *testing.T) {
	loader := testLoader(t, testDoc, testEnv())

	_, err := loader.GetModelInfo("nope", "model")
	if err == nil {
		t.Fatal("expected provider lookup error")
	}
}

func TestMalformedGlobPatternMatchesNothing(t *testing.T) {
	doc := `{
	  "version": "1.0",
	  "providers": {"p": {"type": "anthropic", "config": {"api_key": "k"}}},
	  "groups": {
	    "broken": {"match": "[unclosed", "provider": "p", "model": "m1"}
	  },
	  "defaults": {"provider": "p", "model": "m2"}
	}`
	loader := testLoader(t, doc, nil)

	resolved, err := loader.ResolveAgentConfig("unclosed_agent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Model() != "m2" {
		t.Fatalf("malformed pattern must not match, got %v", resolved)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	doc := testDoc
	loader := NewLoader("model_config.json",
		WithEnv(envMap(testEnv())),
		WithFileReader(func(string) ([]byte, error) { return []byte(doc), nil }),
	)
	if err := loader.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc = strings.Replace(testDoc, `"claude-sonnet-4"`, `"claude-opus-4"`, 1)
	if err := loader.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := loader.ResolveAgentConfig("hunt_planner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Model() != "claude-opus-4" {
		t.Fatalf("reload did not apply: %v", resolved)
	}
}

func TestDefaultSingleton(t *testing.T) {
	t.Cleanup(ResetDefault)
	ResetDefault()

	read := func(string) ([]byte, error) { return []byte(testDoc), nil }

	first, err := Default("model_config.json", WithEnv(envMap(testEnv())), WithFileReader(read))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Default("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the same shared loader")
	}

	ResetDefault()
	third, err := Default("model_config.json", WithEnv(envMap(testEnv())), WithFileReader(read))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third == first {
		t.Fatal("expected a fresh loader after reset")
	}
}
