package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/bcomnes/releasekit/pkg/config"
	"github.com/bcomnes/releasekit/pkg/errors"
	"github.com/bcomnes/releasekit/pkg/logging"
)

const (
	name = "releasekit"

	// BumpVersionName is the name of the standalone bump binary.
	BumpVersionName = "bump-version"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	version string
	cfg     *config.Config
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   config.DefaultPath,
			Usage:   "project file; a missing default file is ignored",
			Sources: cli.EnvVars("RELEASEKIT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Sources: cli.EnvVars("RELEASEKIT_LOG_LEVEL", logging.EnvLogLevel),
		},
	}
}

// NewApp returns the releasekit command with all of its subcommands.
func NewApp(version string) *cli.Command {
	a := &app{version: version}
	return &cli.Command{
		Name:                  name,
		Usage:                 "Release tooling: version bumps, site configs, changelogs",
		Version:               version,
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Before:                a.before,
		ExitErrHandler:        func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			a.bumpVersionCmd(),
			a.siteConfigCmd(),
			a.commitsCmd(),
			a.releaseNotesCmd(),
		},
	}
}

// NewBumpVersion returns the bump-version command as a standalone program.
func NewBumpVersion(version string) *cli.Command {
	a := &app{version: version}
	cmd := a.bumpVersionCmd()
	cmd.Name = BumpVersionName
	cmd.Version = version
	cmd.Flags = append(globalFlags(), cmd.Flags...)
	cmd.Before = a.before
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return cmd
}

// before configures logging and loads the project file once flags are
// parsed, so --log-level and --config take effect for every command.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logging.SetDefaultStructuredLoggerWithLevel(name, a.version, cmd.String("log-level"))

	cfg, err := config.Load(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	slog.Debug("starting", "command", cmd.Name, "version", a.version, "config", cmd.String("config"))
	return ctx, nil
}

// Execute runs cmd with args and reports a failure on stderr. It returns the
// process exit status.
func Execute(ctx context.Context, cmd *cli.Command, args []string) int {
	err := cmd.Run(ctx, args)
	if err == nil {
		return 0
	}
	w := cmd.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	PrintError(w, err)
	slog.Debug("command failed", "code", errors.CodeOf(err), "error", err)
	return errors.ExitCode(err)
}

// PrintError writes err as a single red "Error:" line.
func PrintError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed).Fprintf(w, "Error: %v\n", err)
}
