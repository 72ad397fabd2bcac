package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/config"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/tui"
	"github.com/lenra-io/lenra-cli/internal/application"
	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
)

type checkFlags struct {
	path       string
	url        string
	ignore     []string
	strict     bool
	jsonOutput bool
	parallel   bool
	workers    int
	list       bool
}

func newCheckCmd() *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:       "check [suite]",
		Short:     "Check the running app",
		Long:      "Fetch the app manifest, then run every checker of the suite (routes by default, or template) and report its outcomes.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: suiteNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			suite, err := application.ParseSuite(name)
			if err != nil {
				return err
			}
			return runCheck(cmd, suite, f)
		},
	}

	cmd.Flags().StringVar(&f.path, "path", ".", "Project path holding "+config.FileName)
	cmd.Flags().StringVar(&f.url, "url", "", "App URL (overrides app_url)")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "Checkers or rules to skip: checker, checker:rule, or a prefix ending with *")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on warnings")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "Run checkers concurrently, reporting in order")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent checkers with --parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&f.list, "list", false, "List checkers and rules without calling the app")

	return cmd
}

func suiteNames() []string {
	var names []string
	for _, s := range application.Suites() {
		names = append(names, string(s))
	}
	return names
}

func runCheck(cmd *cobra.Command, suite application.Suite, f checkFlags) error {
	cfg, err := loadConfig(f.path, f.url)
	if err != nil {
		return err
	}
	ignore := check.NewIgnoreList(append(cfg.Ignore, f.ignore...)...)
	strict := f.strict || cfg.Strict

	svc, err := newCheckService(cfg.AppURL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if f.list {
		checkers, err := svc.ListCheckers(suite, cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tui.RenderRuleList(string(suite), checkers, ignore))
		return nil
	}

	opts := application.RunOptions{
		ProjectPath: f.path,
		URL:         cfg.AppURL,
		Ignore:      ignore,
		Strict:      strict,
		Parallel:    f.parallel,
		Workers:     f.workers,
	}
	if !f.jsonOutput {
		fmt.Fprint(out, tui.RenderRunHeader(string(suite), cfg.AppURL))
		opts.OnResult = func(r domain.CheckerResult) {
			fmt.Fprint(out, tui.RenderCheckerResult(r))
		}
	}

	report, err := svc.Run(cmd.Context(), suite, cfg, opts)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if f.jsonOutput {
		if err := renderJSON(cmd, report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, tui.RenderRunFooter(report))
	}

	if report.Failed() {
		warnings, errors := report.Count()
		return fmt.Errorf("check %s: %d error(s), %d warning(s)", report.Status, errors, warnings)
	}
	return nil
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
