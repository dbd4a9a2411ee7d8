package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/internal/config"
	"github.com/matzehuels/groupsync/pkg/manifest"
)

type groupsOpts struct {
	names    bool
	discover bool
}

// groupsCommand lists the manifest's extras and dependency groups.
func (c *CLI) groupsCommand() *cobra.Command {
	var opts groupsOpts
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"ls"},
		Short:   "List extras and dependency groups",
		Long: `List the manifest's extras and dependency groups together with the
state of their lockfiles, test files and resume markers.

With --discover, compare the groups that have a test file with the groups
the manifest declares.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, m, err := c.loadManifest(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case opts.names:
				for _, n := range m.GroupNames() {
					c.println(n)
				}
				return nil
			case opts.discover:
				return c.printDiscovered(cfg, m)
			}
			c.printGroups(cfg, m)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.names, "names", false, "print group names only")
	cmd.Flags().BoolVar(&opts.discover, "discover", false, "compare test files with declared groups")
	return cmd
}

func (c *CLI) printGroups(cfg *config.Config, m *manifest.Manifest) {
	if len(m.Groups) == 0 {
		c.printInfo("%s declares no groups", m.Path)
		return
	}
	layout := cfg.Layout(c.root)
	rows := make([][]string, 0, len(m.Groups))
	for _, g := range m.Groups {
		rows = append(rows, []string{
			g.Name,
			string(g.Kind),
			fmt.Sprint(len(g.Constraints)),
			joinOrDash(g.Includes),
			yesNo(exists(layout.Abs(layout.LockPath(g.Name)))),
			yesNo(exists(layout.Abs(layout.TestPath(g.Name)))),
			yesNo(exists(layout.Abs(layout.MarkerPath(g.Name)))),
		})
	}
	c.printTable([]string{"Name", "Kind", "Packages", "Includes", "Lock", "Tests", "Passed"}, rows)
	c.printDetail("%s in %s", plural(len(m.Groups), "group"), m.Path)
}

// printDiscovered reports test files without a group and groups without a
// test file.
func (c *CLI) printDiscovered(cfg *config.Config, m *manifest.Manifest) error {
	discovered, err := cfg.Layout(c.root).DiscoverGroups()
	if err != nil {
		return err
	}
	var untested, undeclared []string
	for _, g := range m.Groups {
		if !slices.Contains(discovered, manifest.Normalize(g.Name)) {
			untested = append(untested, g.Name)
		}
	}
	for _, d := range discovered {
		if _, ok := m.Group(d); !ok {
			undeclared = append(undeclared, d)
		}
	}

	c.printSuccess("%s with test files", plural(len(discovered), "group"))
	for _, d := range discovered {
		c.printDetail("%s", d)
	}
	if len(untested) > 0 {
		c.printWarning("no test file: %s", strings.Join(untested, ", "))
	}
	if len(undeclared) > 0 {
		c.printWarning("not in %s: %s", cfg.Manifest, strings.Join(undeclared, ", "))
	}
	return nil
}
