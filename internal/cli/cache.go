package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached registry response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(ctx)
			if err != nil {
				return err
			}
			backend, err := c.newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.Clear(ctx); err != nil {
				return err
			}
			switch b := backend.(type) {
			case *cache.FileCache:
				c.printSuccess("Cleared cache")
				c.printDetail("Directory: %s", b.Dir())
			case *cache.RedisCache:
				c.printSuccess("Cleared %s* keys in Redis", cache.DefaultRedisPrefix)
			default:
				c.printInfo("Cache is disabled")
			}
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory (or Redis URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case cfg.Cache.RedisURL != "":
				c.println(cfg.Cache.RedisURL)
			case cfg.Cache.Dir != "":
				c.println(cfg.Cache.Dir)
			default:
				dir, err := cache.DefaultDir()
				if err != nil {
					return err
				}
				c.println(dir)
			}
			return nil
		},
	}
}
