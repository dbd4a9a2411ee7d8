package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/precommit"
)

// hooksCommand lists pre-commit hooks and their problems.
func (c *CLI) hooksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List pre-commit hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			cfgHooks, err := precommit.Load(c.path(cfg.Precommit))
			if err != nil {
				return err
			}

			hooks := cfgHooks.Hooks()
			rows := make([][]string, 0, len(hooks))
			for _, h := range hooks {
				name := h.Hook.Name
				if name == "" {
					name = "-"
				}
				rev := h.Rev
				if rev == "" {
					rev = "-"
				}
				rows = append(rows, []string{h.Hook.ID, name, h.Repo, rev, joinOrDash(h.Hook.Stages)})
			}
			if len(rows) > 0 {
				c.printTable([]string{"ID", "Name", "Repo", "Rev", "Stages"}, rows)
			}
			c.printDetail("%s from %s", plural(len(hooks), "hook"), cfg.Precommit)

			for _, p := range cfgHooks.Check() {
				if p.Error {
					c.printError("%s", p)
				} else {
					c.printWarning("%s", p)
				}
			}
			return nil
		},
	}
}
