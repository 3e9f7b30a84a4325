package registry_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reglet-dev/reglet-verify/application/registry"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	domainerrors "github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/reglet-dev/reglet-verify/infrastructure/rulestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource serves fixed documents and counts reads per category.
type countingSource struct {
	mu    sync.Mutex
	docs  map[string][]string
	reads map[string]int
	gate  chan struct{}
}

func newCountingSource(docs map[string][]string) *countingSource {
	return &countingSource{docs: docs, reads: map[string]int{}}
}

func (s *countingSource) ReadRules(_ context.Context, category string) ([]string, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.reads[category]++
	s.mu.Unlock()

	sigs, ok := s.docs[category]
	if !ok {
		return nil, fmt.Errorf("no document for %s", category)
	}
	return sigs, nil
}

func (s *countingSource) Location() string { return "memory" }

func (s *countingSource) readsOf(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[category]
}

func quiet() registry.RegistryOption {
	return registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_LoadOnceUnderConcurrency(t *testing.T) {
	source := newCountingSource(map[string][]string{"network": {"java.net.", "javax.net."}})
	source.gate = make(chan struct{})
	reg := registry.NewRegistry(source, quiet())

	const callers = 32
	var wg sync.WaitGroup
	sets := make([]*entities.RuleSet, callers)
	var failures atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, err := reg.Load(context.Background(), entities.CategoryNetwork)
			if err != nil {
				failures.Add(1)
			}
			sets[i] = set
		}(i)
	}
	close(source.gate)
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.Equal(t, 1, source.readsOf("network"))
	for _, s := range sets {
		assert.Same(t, sets[0], s)
	}
	assert.Equal(t, 2, sets[0].Len())
	assert.Equal(t, policy.StrategyPrefix, sets[0].Strategy())
}

func TestRegistry_MissingDocumentIsConfigurationError(t *testing.T) {
	source := newCountingSource(map[string][]string{"network": {"java.net."}})
	reg := registry.NewRegistry(source, quiet())

	_, err := reg.Load(context.Background(), entities.CategoryReflection)
	require.Error(t, err)
	assert.True(t, domainerrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "memory/reflection")

	_, err = reg.Load(context.Background(), entities.CategoryReflection)
	require.Error(t, err)
	assert.Equal(t, 1, source.readsOf("reflection"), "failed loads are not retried")

	set, err := reg.Load(context.Background(), entities.CategoryNetwork)
	require.NoError(t, err, "other categories are unaffected")
	assert.Equal(t, 1, set.Len())
}

func TestRegistry_EmptyEntryRejected(t *testing.T) {
	reg := registry.NewRegistry(newCountingSource(map[string][]string{"network": {"java.net.", ""}}), quiet())

	_, err := reg.Load(context.Background(), entities.CategoryNetwork)
	require.Error(t, err)
	assert.True(t, domainerrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "entry 1 is empty")
}

func TestRegistry_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	reg := registry.NewRegistry(rulestore.Embedded(), quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := reg.Load(ctx, entities.CategoryNetwork)
	require.NoError(t, err)
	assert.NotZero(t, set.Len())
}

func TestRegistry_Matcher(t *testing.T) {
	reg := registry.NewRegistry(
		newCountingSource(map[string][]string{"command-execution": {"java.lang.{Runtime,ProcessBuilder}.*"}}),
		registry.WithMatcher(policy.NewGlobMatcher()), quiet())

	set, err := reg.Load(context.Background(), entities.CategoryCommandExecution)
	require.NoError(t, err)
	assert.Equal(t, policy.StrategyGlob, set.Strategy())

	rule, ok := set.Match("java.lang.ProcessBuilder.start")
	assert.True(t, ok)
	assert.Equal(t, "java.lang.{Runtime,ProcessBuilder}.*", rule)
}

func TestRegistry_Preload(t *testing.T) {
	reg := registry.NewRegistry(rulestore.Embedded(), quiet())

	require.NoError(t, reg.Preload(context.Background(), entities.AllCategories()...))
	assert.Equal(t, entities.AllCategories(), reg.Loaded())

	empty := registry.NewRegistry(newCountingSource(nil), quiet())
	err := empty.Preload(context.Background(), entities.CategoryNetwork, entities.CategoryFilesystem)
	assert.True(t, domainerrors.IsConfigurationError(err))
}

func TestHolder_Reload(t *testing.T) {
	docs := map[string][]string{"network": {"java.net."}}
	var mu sync.Mutex
	factory := func() *registry.Registry {
		mu.Lock()
		defer mu.Unlock()
		snapshot := map[string][]string{}
		for k, v := range docs {
			snapshot[k] = append([]string(nil), v...)
		}
		return registry.NewRegistry(newCountingSource(snapshot), quiet())
	}
	holder := registry.NewHolder(factory, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	before, err := holder.Load(ctx, entities.CategoryNetwork)
	require.NoError(t, err)
	assert.Equal(t, 1, before.Len())

	mu.Lock()
	docs["network"] = append(docs["network"], "javax.net.")
	mu.Unlock()
	holder.Reload(ctx, "network.txt changed")

	after, err := holder.Load(ctx, entities.CategoryNetwork)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Len())
	assert.Equal(t, 1, before.Len(), "previously loaded sets are immutable")
	assert.Equal(t, int64(1), holder.Generation())
	assert.Equal(t, []entities.Category{entities.CategoryNetwork}, holder.Current().Loaded())
}
