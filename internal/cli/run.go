package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/internal/config"
	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/runner"
)

type runOpts struct {
	all         bool
	pick        bool
	resume      bool
	dryRun      bool
	syncCommand string
	testCommand string
	always      []string
	noAlways    bool
	env         map[string]string
}

// runCommand syncs and tests groups one after another.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts
	cmd := &cobra.Command{
		Use:   "run [groups...]",
		Short: "Sync and test each group in isolation",
		Long: `For each group, sync the environment to the group's lockfile and run the
group's tests. Groups run one at a time in the given order and the run
stops at the first failure, exiting with the failing command's exit code.

Without arguments every group with a test file runs. Use --all for every
declared group or --pick to choose interactively.

Templates may use {group}, {lockfile}, {testpath}, {manifest} and {always}.`,
		Example: `  groupsync run
  groupsync run git pytest-check
  groupsync run --resume --test-command "pytest -x {testpath}"
  groupsync run --pick --dry-run`,
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGroups(cmd.Context(), args, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.all, "all", false, "run every declared group")
	f.BoolVar(&opts.pick, "pick", false, "choose groups interactively")
	f.BoolVar(&opts.resume, "resume", false, "skip groups that passed in an earlier run")
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "print commands without running them")
	f.StringVar(&opts.syncCommand, "sync-command", "", "sync command template")
	f.StringVar(&opts.testCommand, "test-command", "", "test command template")
	f.StringSliceVar(&opts.always, "always", nil, "groups expanded by {always} (default from config)")
	f.BoolVar(&opts.noAlways, "no-always", false, "expand {always} to nothing")
	f.StringToStringVarP(&opts.env, "env", "e", nil, "extra environment for commands (KEY=VALUE)")
	cmd.MarkFlagsMutuallyExclusive("all", "pick")
	cmd.MarkFlagsMutuallyExclusive("always", "no-always")
	return cmd
}

func (c *CLI) runGroups(ctx context.Context, args []string, opts runOpts) error {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return err
	}
	groups, err := c.selectGroups(ctx, cfg, args, opts)
	if err != nil {
		return err
	}

	ropts := cfg.RunnerOptions(c.root, groups)
	ropts.Resume = opts.resume
	ropts.DryRun = opts.dryRun
	ropts.Env = opts.env
	if opts.syncCommand != "" {
		ropts.SyncCommand = opts.syncCommand
	}
	if opts.testCommand != "" {
		ropts.TestCommand = opts.testCommand
	}
	switch {
	case opts.noAlways:
		ropts.AlwaysGroups = []string{}
	case len(opts.always) > 0:
		ropts.AlwaysGroups = opts.always
	}

	res, err := c.newRunner().Run(ctx, ropts)
	if res != nil && !opts.dryRun {
		c.printRunSummary(res, "tested")
	}
	return err
}

// selectGroups decides which groups to run: explicit arguments, --all,
// --pick, or every group with a test file.
func (c *CLI) selectGroups(ctx context.Context, cfg *config.Config, args []string, opts runOpts) ([]string, error) {
	logger := loggerFromContext(ctx)
	switch {
	case len(args) > 0:
		if m, err := manifest.Load(c.path(cfg.Manifest)); err == nil {
			for _, a := range args {
				if _, ok := m.Group(a); !ok {
					logger.Warn("group is not declared in the manifest", "group", a, "manifest", m.Path)
				}
			}
		}
		return args, nil
	case opts.all:
		_, m, err := c.loadManifest(ctx)
		if err != nil {
			return nil, err
		}
		return m.GroupNames(), nil
	case opts.pick:
		_, m, err := c.loadManifest(ctx)
		if err != nil {
			return nil, err
		}
		return pickGroups(ctx, c.pickItems(cfg, m))
	}

	groups, err := cfg.Layout(c.root).DiscoverGroups()
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no test files match %s in %s", cfg.TestPattern, cfg.TestDir)
	}
	logger.Debug("discovered groups", "count", len(groups))
	return groups, nil
}

func (c *CLI) pickItems(cfg *config.Config, m *manifest.Manifest) []PickItem {
	layout := cfg.Layout(c.root)
	items := make([]PickItem, 0, len(m.Groups))
	for _, g := range m.Groups {
		items = append(items, PickItem{
			Name:     g.Name,
			Kind:     string(g.Kind),
			Packages: len(g.Constraints),
			Locked:   exists(layout.Abs(layout.LockPath(g.Name))),
			Passed:   exists(layout.Abs(layout.MarkerPath(g.Name))),
		})
	}
	return items
}

func (c *CLI) newRunner() *runner.Runner {
	r := runner.New(c.exec, c.Logger)
	r.Out = c.Out
	r.Hooks = stepPrinter{c}
	return r
}

// stepPrinter prints one status line per finished step.
type stepPrinter struct{ c *CLI }

func (p stepPrinter) OnStepStart(context.Context, runner.StepResult) {}

func (p stepPrinter) OnStepComplete(_ context.Context, s runner.StepResult, err error) {
	took := StyleDim.Render(s.Duration.Round(time.Millisecond).String())
	if err != nil {
		p.c.printError("%s %s %s", s.Group, s.Step, took)
		return
	}
	p.c.printSuccess("%s %s %s", s.Group, s.Step, took)
}

func (p stepPrinter) OnGroupSkipped(_ context.Context, group string) {
	p.c.println(styleIconInfo.Render(iconSkipped) + " " + group + " " + StyleDim.Render("passed earlier"))
}

// printRunSummary reports passed, skipped and failed groups.
func (c *CLI) printRunSummary(res *runner.Result, verb string) {
	passed, skipped := res.Groups()
	c.println("")
	if failed, ok := res.Failed(); ok {
		c.printError("%s failed at %s (exit %d)", StyleValue.Render(failed.Group), failed.Step, failed.ExitCode)
	} else if res.ExitCode == runner.ExitInterrupted {
		c.printWarning("interrupted")
	}
	if len(passed) > 0 {
		c.printSuccess("%s %s", plural(len(passed), "group"), verb)
	}
	if len(skipped) > 0 {
		c.println(styleIconInfo.Render(iconSkipped) + " " + fmt.Sprintf("%s skipped: %s", plural(len(skipped), "group"), joinOrDash(skipped)))
	}
	c.printDetail("run %s in %s", res.RunID[:8], res.Duration.Round(time.Millisecond))
}

type compileOpts struct {
	dryRun  bool
	command string
}

// compileCommand regenerates group lockfiles.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts
	cmd := &cobra.Command{
		Use:   "compile [groups...]",
		Short: "Regenerate group lockfiles",
		Long: `Run the compile command for each group, writing the group's lockfile.
Without arguments every declared group is compiled. Stops at the first
failure.`,
		Example: `  groupsync compile
  groupsync compile git --dry-run
  groupsync compile --command "uv pip compile --group={group} -o {lockfile} {manifest}"`,
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, m, err := c.loadManifest(ctx)
			if err != nil {
				return err
			}
			groups := args
			if len(groups) == 0 {
				groups = m.GroupNames()
			} else if err := requireGroups(m, groups); err != nil {
				return err
			}

			ropts := cfg.RunnerOptions(c.root, groups)
			ropts.DependencyGroups = dependencyGroups(m)
			ropts.DryRun = opts.dryRun
			if opts.command != "" {
				ropts.CompileCommand = opts.command
			}
			res, err := c.newRunner().Compile(ctx, ropts)
			if res != nil && !opts.dryRun {
				c.printRunSummary(res, "compiled")
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print commands without running them")
	cmd.Flags().StringVar(&opts.command, "command", "", "compile command template")
	return cmd
}
