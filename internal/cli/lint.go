package cli

import (
	"encoding/json"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/lint"
)

type lintOpts struct {
	strict bool
	json   bool
}

// lintCommand checks the project's dependency configuration.
func (c *CLI) lintCommand() *cobra.Command {
	var opts lintOpts
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check manifest, lockfiles, scripts, hooks and workflows",
		Long: `Check that the project's dependency configuration is well formed.

Exits 1 when any error is found (or any warning, with --strict).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, m, err := c.loadManifest(ctx)
			if err != nil {
				return err
			}
			in, err := c.lintInput(ctx, cfg, m)
			if err != nil {
				return err
			}
			report := lint.Run(in)
			return c.printLintReport(report, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print diagnostics as JSON")
	return cmd
}

func (c *CLI) printLintReport(r *lint.Report, opts lintOpts) error {
	errs, warnings := r.Count()
	if opts.json {
		diags := r.Diagnostics
		if diags == nil {
			diags = []lint.Diagnostic{}
		}
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diags); err != nil {
			return err
		}
	} else {
		for _, d := range r.Diagnostics {
			c.printDiagnostic(d)
		}
		if len(r.Diagnostics) == 0 {
			c.printSuccess("No problems found")
		} else {
			c.printInfo("%s, %s", plural(errs, "error"), plural(warnings, "warning"))
		}
		if slices.ContainsFunc(r.Diagnostics, func(d lint.Diagnostic) bool { return d.Code == lint.CodeMissingLockfile }) {
			c.printNextStep("Generate missing lockfiles", appName+" compile")
		}
	}

	if errs > 0 || opts.strict && warnings > 0 {
		return errors.New(errors.ErrCodeLintFailed, "lint found %s and %s", plural(errs, "error"), plural(warnings, "warning"))
	}
	return nil
}
