package api

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gen-labs/gen-assistant/internal/config"
	"github.com/gen-labs/gen-assistant/pkg/models"
	"github.com/gen-labs/gen-assistant/pkg/router"
)

// KeyActivator owns the client credential lifecycle: load at startup,
// validate and persist on activation, rebuild the router chain with agents
// bound to the new key.
type KeyActivator struct {
	keys       config.KeyStore
	router     *router.Router
	provider   string
	modelNames []string
	logger     *zap.Logger

	mu     sync.Mutex
	active bool
}

func NewKeyActivator(keys config.KeyStore, rt *router.Router, provider string, modelNames []string, logger *zap.Logger) *KeyActivator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyActivator{
		keys:       keys,
		router:     rt,
		provider:   provider,
		modelNames: modelNames,
		logger:     logger,
	}
}

// Bootstrap arms the router with a previously stored key, if any. A missing
// key is not an error; the server starts in pending state.
func (a *KeyActivator) Bootstrap(ctx context.Context) error {
	key := a.keys.LoadAPIKey()
	if key == "" {
		a.logger.Info("no stored API key, waiting for activation")
		return nil
	}
	if err := a.armRouter(ctx, key); err != nil {
		return fmt.Errorf("arm router with stored key: %w", err)
	}
	a.logger.Info("stored API key loaded")
	return nil
}

// Activate probes the key with a live one-shot generation, persists it and
// swaps the router chain. The probe uses the last chain entry, the cheapest
// model.
func (a *KeyActivator) Activate(ctx context.Context, apiKey string) error {
	provider, probeModel := a.chainEntry(a.modelNames[len(a.modelNames)-1])
	probe, err := models.NewProvider(ctx, provider, probeModel, apiKey)
	if err != nil {
		return fmt.Errorf("build probe agent: %w", err)
	}
	if _, err := probe.Generate(ctx, "Teste"); err != nil {
		return fmt.Errorf("probe generation: %w", err)
	}

	if err := a.keys.SaveAPIKey(apiKey); err != nil {
		return fmt.Errorf("persist key: %w", err)
	}
	return a.armRouter(ctx, apiKey)
}

// Activated reports whether a working key is in place.
func (a *KeyActivator) Activated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *KeyActivator) armRouter(ctx context.Context, apiKey string) error {
	endpoints := make([]*router.Endpoint, 0, len(a.modelNames))
	for _, name := range a.modelNames {
		provider, model := a.chainEntry(name)
		agent, err := models.NewProvider(ctx, provider, model, apiKey)
		if err != nil {
			return fmt.Errorf("build agent %s: %w", name, err)
		}
		endpoints = append(endpoints, &router.Endpoint{Name: name, Agent: agent})
	}

	a.router.SetEndpoints(endpoints)
	a.router.SetConfigured(true)

	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	return nil
}

// chainEntry splits an optional "provider:model" entry; bare names use the
// default provider. Model names themselves may contain slashes
// ("models/gemini-2.5-flash"), so the separator is a colon.
func (a *KeyActivator) chainEntry(name string) (provider, model string) {
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i], name[i+1:]
	}
	return a.provider, name
}
