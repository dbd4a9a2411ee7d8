package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultManifest       = "pyproject.toml"
	DefaultLockDir        = "requirements"
	DefaultLockPattern    = "{group}.txt"
	DefaultTestDir        = "src/tests"
	DefaultTestPattern    = "test_{module}.py"
	DefaultMarkerDir      = ".pytest_cache"
	DefaultSyncCommand    = "uv pip sync {lockfile}"
	DefaultTestCommand    = "pytest {testpath}"
	DefaultCompileCommand = "uv pip compile {selector} --output-file={lockfile} {manifest}"
	DefaultAlwaysPrefix   = "--only-group="
)

// ExitInterrupted is the exit code of a run cancelled by a signal.
const ExitInterrupted = 130

// DefaultAlwaysGroups are added to every test invocation through {always}.
var DefaultAlwaysGroups = []string{"core", "hypothesis", "pytest"}

// Step names one phase of a group's run.
type Step string

const (
	StepSync    Step = "sync"
	StepTest    Step = "test"
	StepCompile Step = "compile"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a run.
type Options struct {
	Layout

	// Groups is the ordered list of group names to process.
	Groups []string

	SyncCommand    string
	TestCommand    string
	CompileCommand string

	// AlwaysGroups expand {always}; nil means DefaultAlwaysGroups, an empty
	// non-nil slice disables them.
	AlwaysGroups []string
	AlwaysPrefix string

	// DependencyGroups names the groups declared under [dependency-groups].
	// {selector} expands to --group= for these and --extra= otherwise.
	DependencyGroups []string

	Resume bool
	DryRun bool
	Env    map[string]string

	sync, test, compile Template
}

// ValidateAndSetDefaults fills unset fields and parses the command
// templates. It must be called before the options are used.
func (o *Options) ValidateAndSetDefaults() error {
	o.Layout.setDefaults()
	if o.SyncCommand == "" {
		o.SyncCommand = DefaultSyncCommand
	}
	if o.TestCommand == "" {
		o.TestCommand = DefaultTestCommand
	}
	if o.CompileCommand == "" {
		o.CompileCommand = DefaultCompileCommand
	}
	if o.AlwaysGroups == nil {
		o.AlwaysGroups = slices.Clone(DefaultAlwaysGroups)
	}
	if o.AlwaysPrefix == "" {
		o.AlwaysPrefix = DefaultAlwaysPrefix
	}
	if len(o.Groups) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no groups to run")
	}

	var err error
	if o.sync, err = ParseTemplate(o.SyncCommand); err != nil {
		return err
	}
	if o.test, err = ParseTemplate(o.TestCommand); err != nil {
		return err
	}
	if o.compile, err = ParseTemplate(o.CompileCommand); err != nil {
		return err
	}
	return nil
}

func (o *Options) vars(group string) Vars {
	always := make([]string, len(o.AlwaysGroups))
	for i, g := range o.AlwaysGroups {
		always[i] = o.AlwaysPrefix + g
	}
	selector := "--extra=" + group
	if slices.Contains(o.DependencyGroups, group) {
		selector = "--group=" + group
	}
	return Vars{
		Group:    group,
		Selector: selector,
		Lockfile: o.LockPath(group),
		TestPath: o.TestPath(group),
		Manifest: o.Manifest,
		Always:   always,
	}
}

// =============================================================================
// Result
// =============================================================================

// StepResult is the outcome of one step.
type StepResult struct {
	Group    string
	Step     Step
	Args     []string
	ExitCode int
	Duration time.Duration
	// Skipped is set for groups bypassed by a resume marker.
	Skipped bool
	// DryRun is set when the command was only printed.
	DryRun bool
}

// Result summarises a run.
type Result struct {
	RunID    string
	Steps    []StepResult
	ExitCode int
	Duration time.Duration
}

// Failed returns the step that aborted the run, if any.
func (r *Result) Failed() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.ExitCode != 0 {
			return s, true
		}
	}
	return StepResult{}, false
}

// Groups returns the groups that completed, skipped ones included.
func (r *Result) Groups() (passed, skipped []string) {
	failed, _ := r.Failed()
	seen := make(map[string]bool)
	for _, s := range r.Steps {
		if seen[s.Group] || s.Group == failed.Group {
			continue
		}
		seen[s.Group] = true
		if s.Skipped {
			skipped = append(skipped, s.Group)
		} else {
			passed = append(passed, s.Group)
		}
	}
	return passed, skipped
}

// =============================================================================
// Runner
// =============================================================================

// Runner executes runs. It holds no per-run state.
type Runner struct {
	Exec   Executor
	Logger *log.Logger
	// Out receives dry-run command lines.
	Out io.Writer
	// Hooks receives step events; never nil after New.
	Hooks Hooks
}

// New creates a runner. A nil executor uses [ExecExecutor]; a nil logger
// uses the charm default logger.
func New(exec Executor, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if exec == nil {
		exec = NewExecExecutor(logger)
	}
	return &Runner{Exec: exec, Logger: logger, Out: os.Stdout, Hooks: NoopHooks{}}
}

// Run syncs and tests each group in order, stopping at the first failure.
// The returned error is a *errors.CommandError carrying the failing exit
// code, the context's error on cancellation, or nil.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return r.execute(ctx, opts, []Step{StepSync, StepTest})
}

// Compile regenerates each group's lockfile in order, stopping at the
// first failure. Resume markers do not apply.
func (r *Runner) Compile(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	opts.Resume = false
	return r.execute(ctx, opts, []Step{StepCompile})
}

func (r *Runner) template(opts *Options, s Step) Template {
	switch s {
	case StepSync:
		return opts.sync
	case StepTest:
		return opts.test
	}
	return opts.compile
}

func (r *Runner) execute(ctx context.Context, opts Options, steps []Step) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", res.RunID[:8])
	logger.Debug("starting run", "groups", opts.Groups, "steps", steps, "dry_run", opts.DryRun)

	finish := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		res.ExitCode = errors.ExitCode(err)
		if ctx.Err() != nil && err == ctx.Err() {
			res.ExitCode = ExitInterrupted
		}
		return res, err
	}

	for _, group := range opts.Groups {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if opts.Resume && opts.markerExists(group) {
			logger.Info("skipping group with resume marker", "group", group, "marker", opts.MarkerPath(group))
			res.Steps = append(res.Steps, StepResult{Group: group, Skipped: true})
			if !opts.DryRun {
				r.Hooks.OnGroupSkipped(ctx, group)
			}
			continue
		}

		for _, step := range steps {
			args := r.template(&opts, step).Expand(opts.vars(group))
			sr := StepResult{Group: group, Step: step, Args: args}

			if opts.DryRun {
				sr.DryRun = true
				fmt.Fprintln(r.Out, Quote(args))
				res.Steps = append(res.Steps, sr)
				continue
			}

			logger.Info("running", "group", group, "step", step, "cmd", Quote(args))
			r.Hooks.OnStepStart(ctx, sr)
			t0 := time.Now()
			err := r.Exec.Run(ctx, Command{Group: group, Step: step, Args: args, Dir: opts.Root, Env: opts.Env})
			sr.Duration = time.Since(t0)
			if err != nil {
				sr.ExitCode = errors.ExitCode(err)
				res.Steps = append(res.Steps, sr)
				r.Hooks.OnStepComplete(ctx, sr, err)
				logger.Error("step failed", "group", group, "step", step, "exit_code", sr.ExitCode, "duration", sr.Duration)
				return finish(err)
			}
			res.Steps = append(res.Steps, sr)
			r.Hooks.OnStepComplete(ctx, sr, nil)
			logger.Debug("step passed", "group", group, "step", step, "duration", sr.Duration)
		}

		if opts.Resume && !opts.DryRun {
			if err := opts.touchMarker(group); err != nil {
				logger.Warn("could not write resume marker", "group", group, "error", err)
			}
		}
	}
	return finish(nil)
}
