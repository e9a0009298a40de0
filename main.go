package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bcomnes/releasekit/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewApp(cli.Version), os.Args)
	stop()
	os.Exit(code)
}
