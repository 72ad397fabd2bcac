package application

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
	"github.com/lenra-io/lenra-cli/internal/domain/manifest"
)

// Suite names a set of checkers.
type Suite string

const (
	// SuiteRoutes checks the manifest and every declared route. Default.
	SuiteRoutes Suite = "routes"
	// SuiteTemplate checks an app built from the Lenra template.
	SuiteTemplate Suite = "template"
)

// Suites lists the known suites, default first.
func Suites() []Suite { return []Suite{SuiteRoutes, SuiteTemplate} }

// ParseSuite returns the named suite. The empty name is SuiteRoutes.
func ParseSuite(name string) (Suite, error) {
	if name == "" {
		return SuiteRoutes, nil
	}
	names := make([]string, 0, 2)
	for _, s := range Suites() {
		if string(s) == name {
			return s, nil
		}
		names = append(names, string(s))
	}
	return "", fmt.Errorf("unknown suite %q (valid: %s)", name, strings.Join(names, ", "))
}

// Checker names that are not route paths.
const (
	ManifestChecker = "manifest"
	ViewChecker     = "view"
	// RoutePlaceholder stands for every route when listing the routes suite.
	RoutePlaceholder = "<route>"
)

// RuleCompiler turns configured query rules into checker rules.
type RuleCompiler interface {
	CompileAll(rules []domain.QueryRule) ([]check.Rule, error)
}

// MemoFactory wraps the app caller for the duration of one run.
type MemoFactory func(next domain.AppCaller) (domain.AppCaller, error)

// RunOptions tunes one check run.
type RunOptions struct {
	ProjectPath string
	URL         string
	Ignore      check.IgnoreList
	Strict      bool
	Parallel    bool
	// Workers bounds parallel checkers. Zero means runtime.NumCPU().
	Workers int
	// OnResult receives each checker result in registration order, as soon
	// as it and every checker registered before it are done.
	OnResult func(domain.CheckerResult)
}

// CheckService orchestrates a check run:
// fetch manifest -> build checkers -> run each checker -> report.
type CheckService struct {
	app    domain.AppCaller
	schema domain.SchemaValidator
	rules  RuleCompiler
	git    domain.GitInfo
	memo   MemoFactory
}

// Option configures a CheckService.
type Option func(*CheckService)

// WithGitInfo records the project commit in reports.
func WithGitInfo(git domain.GitInfo) Option {
	return func(s *CheckService) { s.git = git }
}

// WithMemo makes every run send identical requests once.
func WithMemo(factory MemoFactory) Option {
	return func(s *CheckService) { s.memo = factory }
}

func NewCheckService(
	app domain.AppCaller,
	schema domain.SchemaValidator,
	rules RuleCompiler,
	opts ...Option,
) *CheckService {
	s := &CheckService{
		app:    app,
		schema: schema,
		rules:  rules,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manifest fetches the manifest document and parses it. The raw document is
// returned along with its definition.
func (s *CheckService) Manifest(ctx context.Context) (any, manifest.Definition, error) {
	return fetchManifest(ctx, s.app)
}

func fetchManifest(ctx context.Context, caller domain.AppCaller) (any, manifest.Definition, error) {
	doc, err := caller.Call(ctx, map[string]any{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching manifest: %w", err)
	}
	def, err := manifest.FromValue(doc)
	if err != nil {
		return doc, nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return doc, def, nil
}

// Run builds the checkers of suite and runs them. A manifest that cannot be
// fetched or parsed aborts the run before any checker executes.
func (s *CheckService) Run(ctx context.Context, suite Suite, cfg domain.CheckConfig, opts RunOptions) (*domain.RunReport, error) {
	caller := s.app
	if s.memo != nil {
		memo, err := s.memo(s.app)
		if err != nil {
			return nil, err
		}
		caller = memo
	}

	var checkers []check.Checker
	var err error
	switch suite {
	case SuiteTemplate:
		checkers, err = s.TemplateCheckers(cfg, caller)
	default:
		suite = SuiteRoutes
		var doc any
		var def manifest.Definition
		doc, def, err = fetchManifest(ctx, caller)
		if err != nil {
			return nil, err
		}
		checkers, err = s.RoutesCheckers(doc, def, cfg, caller)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("running checkers",
		slog.String("suite", string(suite)),
		slog.Int("checkers", len(checkers)),
		slog.Bool("parallel", opts.Parallel),
	)

	report := &domain.RunReport{
		Suite:    string(suite),
		URL:      opts.URL,
		Strict:   opts.Strict,
		Checkers: s.execute(ctx, checkers, opts),
	}
	report.Status = domain.ComputeStatus(report.Checkers)
	s.describeHead(report, opts.ProjectPath)
	return report, nil
}

func (s *CheckService) execute(ctx context.Context, checkers []check.Checker, opts RunOptions) []domain.CheckerResult {
	results := make([]domain.CheckerResult, len(checkers))
	emit := func(r domain.CheckerResult) {
		if opts.OnResult != nil {
			opts.OnResult(r)
		}
	}

	if !opts.Parallel {
		for i, c := range checkers {
			results[i] = c.Check(ctx, opts.Ignore)
			emit(results[i])
		}
		return results
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	done := make([]chan struct{}, len(checkers))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i, c := range checkers {
			g.Go(func() error {
				defer close(done[i])
				results[i] = c.Check(ctx, opts.Ignore)
				return nil
			})
		}
	}()

	for i := range checkers {
		<-done[i]
		emit(results[i])
	}
	_ = g.Wait()
	return results
}

func (s *CheckService) describeHead(report *domain.RunReport, projectPath string) {
	if s.git == nil || projectPath == "" || !s.git.IsGitRepo(projectPath) {
		return
	}
	head, err := s.git.Head(projectPath)
	if err != nil {
		slog.Debug("reading git HEAD", slog.String("error", err.Error()))
		return
	}
	report.Commit = head.Commit
	report.Branch = head.Branch
}

// RoutesCheckers builds the routes suite: the manifest checker, then one
// checker per route named by its path.
func (s *CheckService) RoutesCheckers(doc any, def manifest.Definition, cfg domain.CheckConfig, caller domain.AppCaller) ([]check.Checker, error) {
	manifestRules, err := s.withQueryRules(check.RoutesManifestRules(), cfg, ManifestChecker)
	if err != nil {
		return nil, err
	}
	checkers := []check.Checker{{
		Name:   ManifestChecker,
		Action: func(context.Context) (any, error) { return doc, nil },
		Rules:  manifestRules,
	}}

	for _, route := range def.Routes() {
		rules, err := s.routeRules(route.Path(), route.Path(), route.View(), route.Schema(), cfg)
		if err != nil {
			return nil, err
		}
		request := manifest.NewRequest(route)
		checkers = append(checkers, check.Checker{
			Name:   route.Path(),
			Action: call(caller, request),
			Rules:  rules,
		})
	}
	return checkers, nil
}

// TemplateCheckers builds the template suite: the manifest checker and the
// root widget view checker.
func (s *CheckService) TemplateCheckers(cfg domain.CheckConfig, caller domain.AppCaller) ([]check.Checker, error) {
	cfg = cfg.WithDefaults()
	root := cfg.Template.RootWidget

	manifestRules, err := s.withQueryRules(check.TemplateManifestRules(root), cfg, ManifestChecker)
	if err != nil {
		return nil, err
	}
	viewRules, err := s.routeRules(ViewChecker, "", root, domain.SchemaView, cfg)
	if err != nil {
		return nil, err
	}

	return []check.Checker{
		{
			Name:   ManifestChecker,
			Action: call(caller, map[string]any{}),
			Rules:  manifestRules,
		},
		{
			Name: ViewChecker,
			Action: call(caller, map[string]any{
				"widget": root,
				"data":   []any{},
				"props":  map[string]any{},
			}),
			Rules: viewRules,
		},
	}, nil
}

// ListCheckers describes the checkers of a suite without calling the app.
// The routes suite lists the per-route rules once, under RoutePlaceholder.
func (s *CheckService) ListCheckers(suite Suite, cfg domain.CheckConfig) ([]check.Checker, error) {
	if suite == SuiteTemplate {
		return s.TemplateCheckers(cfg, s.app)
	}

	manifestRules, err := s.withQueryRules(check.RoutesManifestRules(), cfg, ManifestChecker)
	if err != nil {
		return nil, err
	}
	routeRules := []check.Rule{check.ResultSchemaRule(s.schema, domain.SchemaView)}
	if len(cfg.Expectations) > 0 {
		routeRules = append(routeRules, check.ExpectedShapeRule(nil))
	}
	var query []domain.QueryRule
	for _, r := range cfg.Rules {
		if r.Checker != ManifestChecker {
			query = append(query, r)
		}
	}
	compiled, err := s.compile(query)
	if err != nil {
		return nil, err
	}

	return []check.Checker{
		{Name: ManifestChecker, Rules: manifestRules},
		{Name: RoutePlaceholder, Rules: append(routeRules, compiled...)},
	}, nil
}

// routeRules returns the rules of a view checker: the result schema, the
// configured expected shape if any, then the query rules attached to it.
func (s *CheckService) routeRules(checker, path, view string, kind domain.SchemaKind, cfg domain.CheckConfig) ([]check.Rule, error) {
	rules := []check.Rule{check.ResultSchemaRule(s.schema, kind)}
	if shape, ok := cfg.ExpectationFor(path, view); ok {
		rules = append(rules, check.ExpectedShapeRule(shape))
	}
	return s.withQueryRules(rules, cfg, checker)
}

func (s *CheckService) withQueryRules(rules []check.Rule, cfg domain.CheckConfig, checker string) ([]check.Rule, error) {
	compiled, err := s.compile(cfg.RulesFor(checker))
	if err != nil {
		return nil, err
	}
	return append(rules, compiled...), nil
}

func (s *CheckService) compile(rules []domain.QueryRule) ([]check.Rule, error) {
	if len(rules) == 0 || s.rules == nil {
		return nil, nil
	}
	compiled, err := s.rules.CompileAll(rules)
	if err != nil {
		return nil, fmt.Errorf("compiling query rules: %w", err)
	}
	return compiled, nil
}

func call(caller domain.AppCaller, request any) check.Action {
	return func(ctx context.Context) (any, error) {
		return caller.Call(ctx, request)
	}
}

// CheckRoute renders a single route and validates the response against its
// result schema. Violations are logged; the result is LevelError if the call
// fails or any violation is found, LevelOk otherwise.
func (s *CheckService) CheckRoute(ctx context.Context, route manifest.Route) domain.Level {
	resp, err := s.app.Call(ctx, manifest.NewRequest(route))
	if err != nil {
		slog.Error("route check failed",
			slog.String("route", route.Path()),
			slog.String("error", err.Error()),
		)
		return domain.LevelError
	}

	violations := s.schema.Validate(route.Schema(), resp)
	for _, v := range violations {
		slog.Warn("schema violation",
			slog.String("route", route.Path()),
			slog.String("path", v.Path),
			slog.String("message", v.Message),
		)
	}
	if len(violations) > 0 {
		return domain.LevelError
	}
	slog.Debug("route check passed", slog.String("route", route.Path()))
	return domain.LevelOk
}
