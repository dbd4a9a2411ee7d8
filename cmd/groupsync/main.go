package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/groupsync/internal/cli"
	gserrors "github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/runner"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(runner.ExitInterrupted)
		}
		fmt.Fprintln(os.Stderr, cli.StyleError.Render("error:")+" "+err.Error())
		// External exit codes pass through unchanged.
		os.Exit(gserrors.ExitCode(err))
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
