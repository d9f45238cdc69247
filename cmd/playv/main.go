// playv runs the build and simulation of hardware-design lab problems and
// keeps a PASS/FAIL score board.
//
// Usage:
//
//	playv                      # interactive dashboard
//	playv test lab1/adder      # one simulation, visible output only
//	playv test-all             # every problem in order
//	playv status --json        # score board for automation
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkoosis/playv/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
