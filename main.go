package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/degyb/cmd"
	"github.com/conneroisu/degyb/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprint(os.Stderr, errors.AsFailure(err, "degyb failed").String())
		stop()
		os.Exit(1)
	}
}
