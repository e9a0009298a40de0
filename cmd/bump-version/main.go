// Command bump-version bumps the version line of a project manifest and
// prints NEW_VERSION=<version>.
//
//	bump-version [--manifest pubspec.yaml] [explicit_version]
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
	code := cli.Execute(ctx, cli.NewBumpVersion(cli.Version), os.Args)
	stop()
	os.Exit(code)
}
