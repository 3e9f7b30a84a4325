// Package verify wires the verification core into a ready-to-use Verifier:
// configuration selects the rule source, matching strategy, package scopes
// and session options, and the Verifier runs sessions against in-memory
// programs or Java source trees.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/reglet-dev/reglet-verify/application/config"
	"github.com/reglet-dev/reglet-verify/application/registry"
	"github.com/reglet-dev/reglet-verify/application/session"
	"github.com/reglet-dev/reglet-verify/application/validation"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/reglet-dev/reglet-verify/domain/ports"
	"github.com/reglet-dev/reglet-verify/infrastructure/javasrc"
	"github.com/reglet-dev/reglet-verify/infrastructure/parser"
	"github.com/reglet-dev/reglet-verify/infrastructure/rulestore"
)

// verifierConfig holds configuration for the Verifier.
type verifierConfig struct {
	logger     *slog.Logger
	source     ports.RuleSource
	sink       ports.ResultSink
	handler    ports.ViolationHandler
	metrics    *session.Metrics
	loaderOpts []javasrc.LoaderOption
}

func defaultVerifierConfig() verifierConfig {
	return verifierConfig{
		logger: slog.Default(),
	}
}

// Option configures the Verifier.
type Option func(*verifierConfig)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(c *verifierConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRuleSource replaces the rule source chosen from the configuration.
func WithRuleSource(s ports.RuleSource) Option {
	return func(c *verifierConfig) {
		c.source = s
	}
}

// WithResultSink sets the sink that receives every finished report.
func WithResultSink(s ports.ResultSink) Option {
	return func(c *verifierConfig) {
		c.sink = s
	}
}

// WithViolationHandler sets the handler notified of every violation.
// The default logs them.
func WithViolationHandler(h ports.ViolationHandler) Option {
	return func(c *verifierConfig) {
		c.handler = h
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *session.Metrics) Option {
	return func(c *verifierConfig) {
		c.metrics = m
	}
}

// WithLoaderOptions passes options to the Java source loader.
func WithLoaderOptions(opts ...javasrc.LoaderOption) Option {
	return func(c *verifierConfig) {
		c.loaderOpts = append(c.loaderOpts, opts...)
	}
}

// Verifier runs verification sessions with one configuration.
type Verifier struct {
	cfg     *config.Config
	config  verifierConfig
	holder  *registry.Holder
	session *session.Session

	mu      sync.Mutex
	watcher *rulestore.Watcher
	wg      sync.WaitGroup
}

// New creates a Verifier. A nil cfg selects config.Default().
func New(cfg *config.Config, opts ...Option) (*Verifier, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := defaultVerifierConfig()
	for _, opt := range opts {
		opt(&c)
	}

	matcher, err := policy.NewSignatureMatcher(cfg.Strategy)
	if err != nil {
		return nil, &errors.ConfigurationError{Err: err, Source: "config.strategy"}
	}

	source := c.source
	if source == nil {
		if cfg.RulesDir != "" {
			source = rulestore.NewFileStore(rulestore.WithDir(cfg.RulesDir))
		} else {
			source = rulestore.Embedded()
		}
	}
	factory := func() *registry.Registry {
		return registry.NewRegistry(source, registry.WithLogger(c.logger), registry.WithMatcher(matcher))
	}
	holder := registry.NewHolder(factory, c.logger)

	handler := c.handler
	if handler == nil {
		handler = &policy.SlogViolationHandler{Logger: c.logger}
	}
	sessionOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithParallelism(cfg.Parallelism),
		session.WithRegistry(holder),
		session.WithCategories(cfg.CategoryList()...),
		session.WithAllowedPackages(policy.NewPackageScope(cfg.AllowedPackages, policy.WithSubpackages(cfg.Subpackages))),
		session.WithDependencyCheck(cfg.DependencyCheck),
		session.WithMaxPathLength(cfg.MaxPathLength),
		session.WithViolationHandler(handler),
		session.WithResultSink(c.sink),
		session.WithMetrics(c.metrics),
	}
	if len(cfg.TrustedPackages) > 0 {
		sessionOpts = append(sessionOpts,
			session.WithTrustedPackages(policy.NewPackageScope(cfg.TrustedPackages, policy.WithSubpackages(cfg.Subpackages))))
	}

	c.loaderOpts = append([]javasrc.LoaderOption{javasrc.WithLogger(c.logger)}, c.loaderOpts...)
	return &Verifier{
		cfg:     cfg,
		config:  c,
		holder:  holder,
		session: session.NewSession(sessionOpts...),
	}, nil
}

// NewFromValues creates a Verifier from configuration supplied as a decoded
// key-value map, e.g. by an embedding test harness. Keys use the names of
// the YAML configuration file.
func NewFromValues(values config.Values, opts ...Option) (*Verifier, error) {
	cfg, err := config.FromValues(values)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Registry returns the rule registry holder, e.g. to reload rules by hand.
func (v *Verifier) Registry() *registry.Holder {
	return v.holder
}

// Start watches the rules directory when the configuration asks for it
// and reloads the registry on every change. It is a no-op otherwise.
func (v *Verifier) Start(ctx context.Context) error {
	if !v.cfg.WatchRules || v.cfg.RulesDir == "" {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.watcher != nil {
		return fmt.Errorf("verifier already started")
	}

	w, err := rulestore.NewWatcher(rulestore.WatcherConfig{Dir: v.cfg.RulesDir, Logger: v.config.logger})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}
	v.watcher = w

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		for change := range w.Events() {
			reason := "rules changed: " + change.Category
			if change.Removed {
				reason = "rules removed: " + change.Category
			}
			v.holder.Reload(ctx, reason)
		}
	}()
	return nil
}

// Close stops the rule watcher, if any.
func (v *Verifier) Close() error {
	v.mu.Lock()
	w := v.watcher
	v.watcher = nil
	v.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Stop()
	v.wg.Wait()
	return err
}

// Verify runs structural, capability and (if enabled) dependency checks.
func (v *Verifier) Verify(ctx context.Context, oracle *entities.Oracle, program ports.Program) (*entities.Report, error) {
	return v.session.Run(ctx, oracle, program)
}

// VerifyCapabilities runs the capability and dependency checks only.
func (v *Verifier) VerifyCapabilities(ctx context.Context, program ports.Program) (*entities.Report, error) {
	return v.session.RunCapabilities(ctx, program)
}

// LoadProgram loads the Java sources under dir.
func (v *Verifier) LoadProgram(ctx context.Context, dir string) (ports.Program, error) {
	program, err := javasrc.Load(ctx, dir, v.config.loaderOpts...)
	if err != nil {
		return nil, err
	}
	return program, nil
}

// VerifySources loads the oracle at oraclePath and the Java sources under
// srcDir, then runs Verify.
func (v *Verifier) VerifySources(ctx context.Context, oraclePath, srcDir string) (*entities.Report, error) {
	oracle, err := LoadOracle(oraclePath)
	if err != nil {
		return nil, err
	}
	program, err := v.LoadProgram(ctx, srcDir)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, oracle, program)
}

// LoadOracle reads, validates and parses a YAML or JSON oracle document.
func LoadOracle(path string) (*entities.Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigurationError{Err: fmt.Errorf("failed to read oracle: %w", err), Source: path}
	}
	return ParseOracle(data, path)
}

// ParseOracle validates data against the oracle record schema and parses
// it. source names the document in errors.
func ParseOracle(data []byte, source string) (*entities.Oracle, error) {
	result, err := validation.NewOracleValidator().Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			if e.Field == "" {
				msgs = append(msgs, e.Message)
				continue
			}
			msgs = append(msgs, e.Field+": "+e.Message)
		}
		return nil, &errors.ConfigurationError{Err: fmt.Errorf("invalid oracle: %s", strings.Join(msgs, "; ")), Source: source}
	}
	oracle, err := parser.NewYamlOracleParser().Parse(data)
	if err != nil {
		return nil, &errors.ConfigurationError{Err: err, Source: source}
	}
	return oracle, nil
}
