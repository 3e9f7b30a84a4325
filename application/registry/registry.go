// Package registry provides the rule registry: named, immutable
// forbidden-signature sets loaded lazily from a rule source and cached for
// the lifetime of the registry.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/reglet-dev/reglet-verify/domain/ports"
	"golang.org/x/sync/errgroup"
)

var _ ports.RuleRegistry = (*Registry)(nil)

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	logger  *slog.Logger
	matcher entities.SignatureMatcher
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		logger:  slog.Default(),
		matcher: policy.PrefixMatcher{},
	}
}

// RegistryOption configures the Registry.
type RegistryOption func(*registryConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMatcher sets the signature matching strategy of every loaded set.
// Default is prefix matching.
func WithMatcher(m entities.SignatureMatcher) RegistryOption {
	return func(c *registryConfig) {
		if m != nil {
			c.matcher = m
		}
	}
}

// entry is the compute-once slot of one category.
type entry struct {
	once sync.Once
	set  *entities.RuleSet
	err  error
}

// Registry loads each category at most once per instance. Concurrent
// first calls for the same category share one read of the source; a
// failed load is cached and returned to every later caller.
type Registry struct {
	config  registryConfig
	source  ports.RuleSource
	entries sync.Map // entities.Category → *entry
}

// NewRegistry creates a registry reading from source.
func NewRegistry(source ports.RuleSource, opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{config: cfg, source: source}
}

// Load returns the rule set for category. Errors are
// *errors.ConfigurationError.
func (r *Registry) Load(ctx context.Context, category entities.Category) (*entities.RuleSet, error) {
	v, _ := r.entries.LoadOrStore(category, &entry{})
	e := v.(*entry)
	e.once.Do(func() {
		// Shared by every caller; detached from this caller's cancellation.
		e.set, e.err = r.load(context.WithoutCancel(ctx), category)
	})
	return e.set, e.err
}

// Preload loads every category concurrently and returns the first error.
func (r *Registry) Preload(ctx context.Context, categories ...entities.Category) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range categories {
		g.Go(func() error {
			_, err := r.Load(ctx, c)
			return err
		})
	}
	return g.Wait()
}

// Loaded returns the categories that have been requested so far.
func (r *Registry) Loaded() []entities.Category {
	var out []entities.Category
	for _, c := range entities.AllCategories() {
		if _, ok := r.entries.Load(c); ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) load(ctx context.Context, category entities.Category) (*entities.RuleSet, error) {
	source := fmt.Sprintf("%s/%s", r.source.Location(), category)

	sigs, err := r.source.ReadRules(ctx, string(category))
	if err != nil {
		r.config.logger.Error("failed to load rule set",
			slog.String("category", string(category)),
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, &errors.ConfigurationError{Err: err, Source: source}
	}
	for i, s := range sigs {
		if s == "" {
			return nil, &errors.ConfigurationError{
				Err:    fmt.Errorf("entry %d is empty", i),
				Source: source,
			}
		}
	}

	set := entities.NewRuleSet(category, sigs, r.config.matcher)
	r.config.logger.Debug("loaded rule set",
		slog.String("category", string(category)),
		slog.String("source", source),
		slog.String("strategy", set.Strategy()),
		slog.Int("rules", set.Len()))
	return set, nil
}
