package llm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"huntctl/internal/config"
)

// Factory builds provider clients from resolved agent configuration and
// caches them keyed by connection identity.
type Factory struct {
	mu        sync.RWMutex
	cache     *lru.Cache[string, cacheEntry]
	cacheTTL  time.Duration
	rateLimit rate.Limit
	rateBurst int
}

type cacheEntry struct {
	client    Client
	expiresAt time.Time
}

const (
	defaultClientCacheSize = 64
	defaultClientCacheTTL  = 30 * time.Minute
)

func NewFactory() *Factory {
	return &Factory{
		cache:     newClientCache(defaultClientCacheSize),
		cacheTTL:  defaultClientCacheTTL,
		rateBurst: 1,
	}
}

// SetCacheOptions reconfigures the client cache. A size <= 0 disables
// caching. A TTL <= 0 disables expiration.
func (f *Factory) SetCacheOptions(size int, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = newClientCache(size)
	f.cacheTTL = ttl
}

func newClientCache(size int) *lru.Cache[string, cacheEntry] {
	if size <= 0 {
		return nil
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil
	}
	return cache
}

// EnableRateLimit enforces a shared limiter around every client this factory
// hands out. A burst less than 1 is coerced to 1.
func (f *Factory) EnableRateLimit(limit rate.Limit, burst int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimit = limit
	if burst < 1 {
		burst = 1
	}
	f.rateBurst = burst
}

// ClientForAgent resolves the agent's configuration through the loader,
// validates the fields its provider type requires, and returns a ready
// client. Repeated calls for the same connection reuse the cached client.
func (f *Factory) ClientForAgent(loader *config.Loader, agentName string) (Client, error) {
	resolved, err := loader.ResolveAgentConfig(agentName)
	if err != nil {
		return nil, err
	}

	providerName := resolved.Provider()
	spec, err := loader.GetProviderConfig(providerName)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, field := range spec.Type.RequiredAgentFields() {
		if s, ok := resolved[field].(string); !ok || s == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &config.ModelConfigError{
			Message: fmt.Sprintf("agent '%s' (provider '%s', type '%s') is missing required field(s): %s",
				agentName, providerName, spec.Type, strings.Join(missing, ", ")),
		}
	}

	model := resolved.Model()
	modelInfo, err := loader.GetModelInfo(providerName, model)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		APIKey:     stringValue(spec.Config, "api_key"),
		BaseURL:    stringValue(spec.Config, "base_url"),
		Endpoint:   stringValue(spec.Config, "endpoint"),
		APIVersion: stringValue(spec.Config, "api_version"),
		Deployment: resolved.Deployment(),
		Timeout:    intValue(spec.Config, "timeout"),
		ModelInfo:  modelInfo,
	}

	return f.getClient(spec.Type, providerName, model, cfg)
}

// GetClient builds (or returns a cached) client for an explicit provider
// type and configuration, without going through agent resolution.
func (f *Factory) GetClient(providerType config.ProviderType, providerName, model string, cfg Config) (Client, error) {
	return f.getClient(providerType, providerName, model, cfg)
}

func (f *Factory) getClient(providerType config.ProviderType, providerName, model string, cfg Config) (Client, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s", providerName, model, cfg.Deployment)
	now := time.Now()

	f.mu.RLock()
	cache := f.cache
	cacheTTL := f.cacheTTL
	rateLimit := f.rateLimit
	rateBurst := f.rateBurst
	f.mu.RUnlock()

	if cache != nil {
		if entry, ok := cache.Get(cacheKey); ok {
			if entry.client != nil && (entry.expiresAt.IsZero() || now.Before(entry.expiresAt)) {
				return entry.client, nil
			}
			cache.Remove(cacheKey)
		}
	}

	var client Client
	var err error
	switch providerType {
	case config.ProviderAzure:
		client, err = NewAzureClient(model, cfg)
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(model, cfg)
	case config.ProviderAnthropic:
		client, err = NewAnthropicClient(model, cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", providerType)
	}
	if err != nil {
		return nil, err
	}

	if rateLimit > 0 {
		client = WrapWithRateLimit(client, rateLimit, rateBurst)
	}

	if cache != nil {
		var expiresAt time.Time
		if cacheTTL > 0 {
			expiresAt = now.Add(cacheTTL)
		}
		cache.Add(cacheKey, cacheEntry{client: client, expiresAt: expiresAt})
	}
	return client, nil
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intValue(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
