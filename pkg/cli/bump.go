package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bcomnes/releasekit/pkg/bump"
	"github.com/bcomnes/releasekit/pkg/errors"
)

func (a *app) bumpVersionCmd() *cli.Command {
	return &cli.Command{
		Name:      "bump-version",
		Usage:     "Bump the manifest version and print NEW_VERSION=<version>",
		ArgsUsage: "[explicit_version]",
		Description: `Reads the first "version:" line of the manifest and writes back the next
version. Without an argument the last core component is incremented and a
numeric build counter is carried forward (1.2.3+5 becomes 1.2.4+6). With an
explicit version that version is used; it inherits the incremented build
counter unless it carries its own +build or --no-inherit-build is given.

On success the only line on stdout is NEW_VERSION=<version>.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "manifest holding the version line (default: " + bump.DefaultManifest + ")",
				Sources: cli.EnvVars("RELEASEKIT_MANIFEST"),
			},
			&cli.StringSliceFlag{
				Name:  "bump-file",
				Usage: "additional file whose main version is set to the new version; may be repeated",
			},
			&cli.StringSliceFlag{
				Name:  "file",
				Usage: "additional file to stage with the release commit; may be repeated",
			},
			&cli.BoolFlag{
				Name:  "commit",
				Usage: "record a release commit (and tag) after writing",
			},
			&cli.BoolFlag{
				Name:  "no-tag",
				Usage: "do not tag the release commit",
			},
			&cli.StringFlag{
				Name:  "tag-prefix",
				Usage: "prefix of the release tag (default: " + bump.DefaultTagPrefix + ")",
			},
			&cli.BoolFlag{
				Name:  "no-inherit-build",
				Usage: "never append the inherited build counter to an explicit version",
			},
			&cli.BoolFlag{
				Name:  "dry",
				Usage: "compute the new version without writing files or committing",
			},
		},
		Action: a.bumpVersion,
	}
}

func (a *app) bumpVersion(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 1 {
		return errors.Newf(errors.ErrCodeInvalidInput,
			"expected at most one explicit version, got %d arguments", cmd.NArg())
	}

	opts := a.bumpOptions(cmd)
	meta, err := bump.Run(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if opts.DryRun {
		errOut := cmd.Root().ErrWriter
		fmt.Fprintf(errOut, "Dry run complete, no files were modified (%s -> %s).\n", meta.OldVersion, meta.NewVersion)
		for _, f := range meta.UpdatedFiles {
			fmt.Fprintf(errOut, "  would update %s\n", f)
		}
	}
	_, err = fmt.Fprintf(out, "NEW_VERSION=%s\n", meta.NewVersion)
	return err
}

// bumpOptions merges flags over the project file.
func (a *app) bumpOptions(cmd *cli.Command) bump.Options {
	cfg := a.cfg
	opts := bump.Options{
		ManifestPath:   cfg.Manifest,
		Explicit:       cmd.Args().First(),
		BumpFiles:      append(append([]string(nil), cfg.BumpFiles...), cmd.StringSlice("bump-file")...),
		ExtraFiles:     cmd.StringSlice("file"),
		NoInheritBuild: !cfg.InheritBuild || cmd.Bool("no-inherit-build"),
		Commit:         cfg.Git.Commit || cmd.Bool("commit"),
		Tag:            cfg.Git.Tag && !cmd.Bool("no-tag"),
		TagPrefix:      cfg.Git.TagPrefix,
		CommitPrefix:   cfg.Git.CommitPrefix,
		DryRun:         cmd.Bool("dry"),
	}
	if cmd.IsSet("manifest") {
		opts.ManifestPath = cmd.String("manifest")
	}
	if cmd.IsSet("tag-prefix") {
		opts.TagPrefix = cmd.String("tag-prefix")
	}
	return opts
}
