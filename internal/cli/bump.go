package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/bump"
	"github.com/matzehuels/groupsync/pkg/version"
)

// bumpCommand rewrites the project version.
func (c *CLI) bumpCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "bump major|minor|patch",
		Short: "Bump the project version",
		Long: `Compute the next version and rewrite every version assignment in the
manifest and the files listed under [[tool.bumpversion.files]].`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(version.Major), string(version.Minor), string(version.Patch)},
		RunE: func(cmd *cobra.Command, args []string) error {
			part, err := version.ParsePart(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			bc, err := bump.Load(c.path(cfg.Manifest))
			if err != nil {
				return err
			}
			plan, err := bump.Apply(bc, part, dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				c.printInfo("would bump %s %s %s", plan.Old, iconArrow, StyleValue.Render(plan.New.String()))
			} else {
				c.printSuccess("bumped %s %s %s", plan.Old, iconArrow, StyleValue.Render(plan.New.String()))
			}
			for _, ch := range plan.Changes {
				c.printFile(ch.Path)
				c.printDetail("%s", plural(ch.Replacements, "replacement"))
			}
			if dryRun {
				c.printNextStep("Apply", appName+" bump "+string(part))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report changes without writing files")
	return cmd
}
