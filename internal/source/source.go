// Package source defines the adapter capability every external source
// implements and the registry that builds adapters from configuration.
package source

import (
	"context"
	"fmt"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
)

// Fetcher produces one finite batch of raw records per run. Implementations
// should absorb transient per-item trouble themselves; a returned error makes
// the orchestrator treat the whole source as empty for that run.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// Factory builds a Fetcher for one declared source.
type Factory func(cfg config.SourceConfig, deps Deps) (Fetcher, error)

// Deps carries shared collaborators adapters may use.
type Deps struct {
	Limiter *HostLimiter
	// Secret resolves a keyring account to a password (mailbox sources).
	Secret func(account string) (string, error)
}

var registry = map[string]Factory{}

// Register installs a factory for a source type. Called from adapter
// package init funcs.
func Register(typ string, f Factory) {
	registry[typ] = f
}

// Build constructs every configured adapter, in config order. An unknown
// type is a configuration error surfaced before any fetch begins.
func Build(sources []config.SourceConfig, deps Deps) ([]Fetcher, error) {
	out := make([]Fetcher, 0, len(sources))
	for _, sc := range sources {
		factory, ok := registry[sc.Type]
		if !ok {
			return nil, fmt.Errorf("unknown source type %q (source %q)", sc.Type, sc.Name)
		}
		f, err := factory(sc, deps)
		if err != nil {
			return nil, fmt.Errorf("build source %q: %w", sc.Name, err)
		}
		out = append(out, f)
	}
	return out, nil
}
