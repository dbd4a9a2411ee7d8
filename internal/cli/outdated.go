package cli

import (
	"context"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/outdated"
	"github.com/matzehuels/groupsync/pkg/version"
)

type outdatedOpts struct {
	refresh bool
	all     bool
	fail    bool
}

// outdatedCommand compares version ranges with the latest PyPI releases.
func (c *CLI) outdatedCommand() *cobra.Command {
	var opts outdatedOpts
	cmd := &cobra.Command{
		Use:   "outdated [groups...]",
		Short: "Find ranges that exclude the latest release",
		Long: `Look up the latest release of every constrained package on PyPI and
report the ranges that exclude it, with a suggested replacement range.

Without arguments the project dependencies and every group are checked.
Responses are cached; use --refresh to bypass the cache.`,
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOutdated(cmd.Context(), args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().BoolVar(&opts.all, "all", false, "also list up-to-date constraints")
	cmd.Flags().BoolVar(&opts.fail, "fail", false, "exit 1 when any range is outdated")
	return cmd
}

// countingLookup reports progress to a spinner.
type countingLookup struct {
	outdated.Lookup
	done    atomic.Int64
	spinner *Spinner
}

func (l *countingLookup) LatestVersion(ctx context.Context, name string, refresh bool) (version.Version, error) {
	v, err := l.Lookup.LatestVersion(ctx, name, refresh)
	l.spinner.SetMessage("Checking PyPI (%d done)", l.done.Add(1))
	return v, err
}

func (c *CLI) runOutdated(ctx context.Context, groups []string, opts outdatedOpts) error {
	cfg, m, err := c.loadManifest(ctx)
	if err != nil {
		return err
	}
	client, backend, err := c.newPyPI(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	spinner := newSpinnerWithContext(ctx, "Checking PyPI")
	spinner.Start()
	lookup := &countingLookup{Lookup: client, spinner: spinner}
	report, err := outdated.Check(ctx, m, lookup, outdated.Options{
		Groups:      groups,
		Concurrency: cfg.PyPI.Concurrency,
		Refresh:     opts.refresh,
		All:         opts.all,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	for _, le := range report.Errors {
		c.printWarning("%s", le.Error())
	}
	if len(report.Findings) == 0 {
		c.printSuccess("All ranges admit the latest release")
		return nil
	}

	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		status := StyleSuccess.Render(string(f.Status))
		switch f.Status {
		case outdated.StatusOutdated:
			status = StyleWarning.Render(string(f.Status))
		case outdated.StatusAhead:
			status = StyleError.Render(string(f.Status))
		case outdated.StatusExcluded:
			status = StyleDim.Render(string(f.Status))
		}
		suggested := f.Suggested
		if f.Status == outdated.StatusCurrent || suggested == "" {
			suggested = "-"
		}
		rows = append(rows, []string{f.Group, f.Constraint.Name, f.Range.String(), f.Latest.String(), status, suggested})
	}
	c.printTable([]string{"Group", "Package", "Range", "Latest", "Status", "Suggested"}, rows)

	n := len(report.Outdated())
	if n == 0 {
		c.printSuccess("No range has fallen behind the latest release")
		return nil
	}
	c.printInfo("%s outside the latest release", plural(n, "range"))
	if opts.fail {
		return errors.New(errors.ErrCodeOutdated, "%s outdated", plural(n, "range"))
	}
	return nil
}
