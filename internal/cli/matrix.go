package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/workflow"
)

type matrixOpts struct {
	job   string
	count bool
}

// matrixCommand expands CI workflow job matrices.
func (c *CLI) matrixCommand() *cobra.Command {
	var opts matrixOpts
	cmd := &cobra.Command{
		Use:   "matrix [workflow files...]",
		Short: "Expand CI workflow matrices",
		Long: `Print the concrete matrix combinations of each workflow job, applying
exclude and include entries the way the CI system does.

Without arguments the configured workflow files are read.`,
		Example: `  groupsync matrix
  groupsync matrix .github/workflows/tests.yml --job test
  groupsync matrix --count`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				cfg, err := c.loadConfig(cmd.Context())
				if err != nil {
					return err
				}
				if paths, err = c.glob(cfg.Workflows); err != nil {
					return err
				}
			}
			if len(paths) == 0 {
				c.printInfo("no workflow files found")
				return nil
			}

			found := opts.job == ""
			for _, p := range paths {
				wf, err := workflow.Load(p)
				if err != nil {
					return err
				}
				if c.printMatrix(wf, opts) {
					found = true
				}
			}
			if !found {
				return errors.New(errors.ErrCodeNotFound, "no workflow declares job %q", opts.job)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.job, "job", "", "only this job id")
	cmd.Flags().BoolVar(&opts.count, "count", false, "print combination counts only")
	return cmd
}

// printMatrix prints wf's jobs and reports whether any job was printed.
func (c *CLI) printMatrix(wf *workflow.Workflow, opts matrixOpts) bool {
	printed := false
	for _, id := range wf.JobIDs() {
		if opts.job != "" && id != opts.job {
			continue
		}
		combos := wf.Jobs[id].Expand()
		if !printed {
			c.println(StyleTitle.Render(filepath.Base(wf.Path)))
			printed = true
		}
		if opts.count {
			c.printKeyValue(id, plural(len(combos), "combination"))
			continue
		}
		c.printInfo("%s %s", StyleValue.Render(id), StyleDim.Render(fmt.Sprintf("(%s)", plural(len(combos), "combination"))))
		for _, combo := range combos {
			s := combo.String()
			if s == "" {
				s = "no matrix"
			}
			c.printDetail("%s", s)
		}
	}
	return printed
}
