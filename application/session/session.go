// Package session orchestrates a verification run: structural checks for
// every oracle record, capability checks for every configured category and
// an optional package-dependency check, fanned out in parallel and collected
// into one deterministic report.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/ports"
	"github.com/reglet-dev/reglet-verify/domain/reachability"
	"github.com/reglet-dev/reglet-verify/domain/structure"
)

// sessionConfig holds configuration for the Session.
type sessionConfig struct {
	logger          *slog.Logger
	parallelism     int
	registry        ports.RuleRegistry
	categories      []entities.Category
	allowed         ports.PackageScope
	trusted         ports.PackageScope
	dependencyCheck bool
	maxPathLength   int
	handler         ports.ViolationHandler
	sink            ports.ResultSink
	metrics         *Metrics
	now             func() time.Time
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		logger:      slog.Default(),
		parallelism: runtime.GOMAXPROCS(0),
		now:         time.Now,
	}
}

// Option configures the Session.
type Option func(*sessionConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParallelism bounds the number of checks running at once.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(c *sessionConfig) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithRegistry sets the rule registry used by capability checks.
func WithRegistry(r ports.RuleRegistry) Option {
	return func(c *sessionConfig) {
		c.registry = r
	}
}

// WithCategories sets the capability categories to check, in report order.
func WithCategories(categories ...entities.Category) Option {
	return func(c *sessionConfig) {
		c.categories = append([]entities.Category(nil), categories...)
	}
}

// WithAllowedPackages sets the allow-list. Code inside it is not a root for
// capability checks and is a permitted target for dependency checks.
func WithAllowedPackages(scope ports.PackageScope) Option {
	return func(c *sessionConfig) {
		c.allowed = scope
	}
}

// WithTrustedPackages stops capability traversal at trusted nodes.
func WithTrustedPackages(scope ports.PackageScope) Option {
	return func(c *sessionConfig) {
		c.trusted = scope
	}
}

// WithDependencyCheck enables the package-dependency check.
func WithDependencyCheck(enabled bool) Option {
	return func(c *sessionConfig) {
		c.dependencyCheck = enabled
	}
}

// WithMaxPathLength caps reported violation paths.
func WithMaxPathLength(n int) Option {
	return func(c *sessionConfig) {
		c.maxPathLength = n
	}
}

// WithViolationHandler sets the handler notified of every violation.
func WithViolationHandler(h ports.ViolationHandler) Option {
	return func(c *sessionConfig) {
		c.handler = h
	}
}

// WithResultSink sets the sink that receives the finished report.
func WithResultSink(s ports.ResultSink) Option {
	return func(c *sessionConfig) {
		c.sink = s
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *sessionConfig) {
		c.metrics = m
	}
}

// Session runs verification checks. It holds no per-run state and may be
// used for several runs, including concurrent ones.
type Session struct {
	config  sessionConfig
	matcher *structure.Matcher
	checker *reachability.Checker
}

// NewSession creates a new Session.
func NewSession(opts ...Option) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	checkerOpts := []reachability.CheckerOption{
		reachability.WithLogger(cfg.logger),
		reachability.WithMaxPathLength(cfg.maxPathLength),
	}
	if cfg.trusted != nil {
		checkerOpts = append(checkerOpts, reachability.WithTrustedScope(cfg.trusted))
	}
	if cfg.handler != nil {
		checkerOpts = append(checkerOpts, reachability.WithViolationHandler(cfg.handler))
	}

	return &Session{
		config:  cfg,
		matcher: structure.NewMatcher(structure.WithLogger(cfg.logger)),
		checker: reachability.NewChecker(checkerOpts...),
	}
}

// Run verifies program against oracle and the configured capability
// categories. Checks that cannot run are recorded in the report rather
// than returned. The returned error is non-nil when the oracle is unusable
// (the report is still returned, with Error set and capability checks run),
// when ctx is canceled, or when the result sink fails.
func (s *Session) Run(ctx context.Context, oracle *entities.Oracle, program ports.Program) (*entities.Report, error) {
	var suiteErr error
	if program != nil && !oracle.HasFacets() {
		suiteErr = &errors.ConfigurationError{Err: fmt.Errorf("oracle has no checkable facet"), Source: "oracle"}
	}
	return s.run(ctx, oracle, program, suiteErr)
}

// RunCapabilities runs only the capability and dependency checks; no oracle
// is needed.
func (s *Session) RunCapabilities(ctx context.Context, program ports.Program) (*entities.Report, error) {
	return s.run(ctx, nil, program, nil)
}

func (s *Session) run(ctx context.Context, oracle *entities.Oracle, program ports.Program, suiteErr error) (*entities.Report, error) {
	report := &entities.Report{
		ID:        uuid.NewString(),
		StartedAt: s.config.now(),
	}
	log := s.config.logger.With(slog.String("session", report.ID))
	log.Info("verification started",
		slog.Int("classes", oracleSize(oracle)),
		slog.Int("categories", len(s.config.categories)))

	if program == nil {
		suiteErr = &errors.ConfigurationError{Err: fmt.Errorf("no program to verify"), Source: "session"}
	}
	if suiteErr != nil {
		report.Error = errors.ToErrorDetail(suiteErr)
		log.Error("structural checks skipped", slog.String("error", suiteErr.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.parallelism)

	if suiteErr == nil && oracle != nil {
		report.Classes = make([]entities.ClassReport, len(oracle.Classes))
		for i := range oracle.Classes {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				report.Classes[i] = s.CheckClass(gctx, program, &oracle.Classes[i])
				return nil
			})
		}
	}

	if program != nil {
		s.scheduleCapabilities(gctx, g, report, program)
		if s.config.dependencyCheck {
			g.Go(func() error {
				deps, err := s.CheckDependencies(gctx, program)
				report.Dependencies = deps
				return err
			})
		}
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	report.FinishedAt = s.config.now()
	s.config.metrics.observeDuration(report.Duration())
	log.Info("verification finished",
		slog.Bool("passed", report.Passed()),
		slog.Duration("duration", report.Duration()))

	if err != nil {
		return report, err
	}
	if err := s.deliver(ctx, report); err != nil {
		return report, err
	}
	return report, suiteErr
}

func (s *Session) deliver(ctx context.Context, report *entities.Report) error {
	if s.config.sink == nil {
		return nil
	}
	if err := s.config.sink.Consume(ctx, report); err != nil {
		return fmt.Errorf("result sink: %w", err)
	}
	return nil
}

func (s *Session) scheduleCapabilities(ctx context.Context, g *errgroup.Group, report *entities.Report, program ports.Program) {
	if len(s.config.categories) == 0 {
		return
	}
	graph := program.CallGraph()
	roots := reachability.Roots(graph, s.config.allowed)
	report.Capabilities = make([]entities.CategoryReport, len(s.config.categories))
	for i, category := range s.config.categories {
		if ctx.Err() != nil {
			return
		}
		g.Go(func() error {
			report.Capabilities[i] = s.CheckCategory(ctx, graph, roots, category)
			return nil
		})
	}
}

// CheckClass runs the structural check for one oracle record. A class the
// program does not declare yields a failed report, not an error.
func (s *Session) CheckClass(ctx context.Context, program ports.Program, expected *entities.ExpectedClass) entities.ClassReport {
	report := s.classReport(ctx, program, expected)
	s.config.metrics.observeClass(&report)
	return report
}

func (s *Session) classReport(ctx context.Context, program ports.Program, expected *entities.ExpectedClass) entities.ClassReport {
	id := expected.Identity()
	checkID := KindStructure + "[" + id.QualifiedName() + "]"

	if !expected.HasFacets() {
		err := &errors.ConfigurationError{
			Err:    fmt.Errorf("record has no checkable facet"),
			Source: "oracle[" + id.QualifiedName() + "]",
		}
		return entities.ClassReport{ID: checkID, Identity: id, Error: errors.ToErrorDetail(err)}
	}

	observed, err := program.ResolveClass(ctx, id)
	if err != nil {
		report := entities.ClassReport{ID: checkID, Identity: id, Error: errors.ToErrorDetail(err)}
		if errors.IsNotFound(err) {
			report.Class = &entities.MatchResult{Kind: entities.MemberClass, Owner: id, Expected: id.QualifiedName()}
		}
		return report
	}

	report := s.matcher.MatchRecord(observed, expected)
	report.ID = checkID
	return report
}

// CheckCategory runs the capability check for one category. A rule set
// that cannot be loaded aborts this category only.
func (s *Session) CheckCategory(ctx context.Context, graph *entities.CallGraph, roots []entities.NodeID, category entities.Category) entities.CategoryReport {
	report := entities.CategoryReport{
		ID:       KindCapability + "[" + string(category) + "]",
		Category: category,
		Roots:    len(roots),
	}
	defer s.config.metrics.observeCategory(&report)

	if s.config.registry == nil {
		err := &errors.ConfigurationError{Err: fmt.Errorf("no rule registry configured"), Source: string(category)}
		report.Error = errors.ToErrorDetail(err)
		return report
	}
	rules, err := s.config.registry.Load(ctx, category)
	if err != nil {
		s.config.logger.Error("rule set unavailable",
			slog.String("category", string(category)),
			slog.String("error", err.Error()))
		report.Error = errors.ToErrorDetail(err)
		return report
	}
	report.Rules = rules.Len()

	violations, err := s.checker.Check(ctx, graph, roots, rules)
	if err != nil {
		report.Error = errors.ToErrorDetail(err)
		return report
	}
	report.Violations = violations
	return report
}

// CheckDependencies checks every class of program against the allow-list.
// Violations are sorted by root and then by dependency.
func (s *Session) CheckDependencies(ctx context.Context, program ports.Program) ([]entities.DependencyViolation, error) {
	graph := program.DependencyGraph()
	roots := reachability.DependencyRoots(program.Classes())
	results := make([][]entities.DependencyViolation, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.parallelism)
	for i, root := range roots {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vs, err := s.checker.CheckDependencies(gctx, graph, root, s.config.allowed)
			results[i] = vs
			return err
		})
	}
	err := g.Wait()

	var out []entities.DependencyViolation
	for _, vs := range results {
		out = append(out, vs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Root != out[j].Root {
			return out[i].Root < out[j].Root
		}
		return out[i].Dependency < out[j].Dependency
	})
	s.config.metrics.observeDependencies(out, err != nil)
	return out, err
}

func oracleSize(o *entities.Oracle) int {
	if o == nil {
		return 0
	}
	return len(o.Classes)
}
