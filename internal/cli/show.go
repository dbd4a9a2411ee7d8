package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/lockfile"
)

// showCommand prints one group with its resolved constraints.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show GROUP",
		Short:             "Show a group's resolved constraints",
		Long:              `Show a group's constraints, including those pulled in through include-group, with their version ranges and locked pins.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGroups,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, m, err := c.loadManifest(cmd.Context())
			if err != nil {
				return err
			}
			g, ok := m.Group(args[0])
			if !ok {
				return errors.New(errors.ErrCodeGroupNotFound, "%s declares no group %q", m.Path, args[0])
			}
			constraints, err := m.Resolve(g.Name)
			if err != nil {
				return err
			}

			layout := cfg.Layout(c.root)
			lockPath := layout.Abs(layout.LockPath(g.Name))
			var lf *lockfile.Lockfile
			if exists(lockPath) {
				if lf, err = lockfile.Load(lockPath); err != nil {
					return err
				}
			}

			c.println(StyleTitle.Render(g.Name))
			c.printKeyValue("kind", string(g.Kind))
			c.printKeyValue("includes", joinOrDash(g.Includes))
			c.printKeyValue("lockfile", layout.LockPath(g.Name))
			c.printKeyValue("tests", layout.TestPath(g.Name))
			c.println("")

			if len(constraints) == 0 {
				c.printInfo("no constraints")
				return nil
			}
			rows := make([][]string, 0, len(constraints))
			for _, con := range constraints {
				rng := "-"
				if con.URL != "" {
					rng = con.URL
				} else if r, err := con.Range(); err == nil {
					rng = r.String()
				}
				pin := "-"
				if lf != nil {
					if p, ok := lf.Pin(con.Name); ok {
						pin = p.Version
					}
				}
				marker := con.Marker
				if marker == "" {
					marker = "-"
				}
				rows = append(rows, []string{con.Name, rng, pin, marker})
			}
			c.printTable([]string{"Package", "Range", "Pin", "Marker"}, rows)
			for _, inv := range g.Invalid {
				c.printWarning("unparsable requirement %q: %v", inv.Raw, inv.Err)
			}
			return nil
		},
	}
}
