// Command harmonizer converts clinical study source files into the shared
// clinical-data model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/harmonizer/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
