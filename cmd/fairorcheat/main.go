// Package main is the entry point for the fair-or-cheat simulator.
//
// The binary scores coin-testing stopping policies. Every policy pays one unit
// per flip and is rewarded or penalised for each verdict; the subcommands run
// whole sessions, batches of single games, or print each policy's decision grid.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Cancel running simulations on SIGINT/SIGTERM; workers finish the
	// session in hand and the command returns context.Canceled
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
