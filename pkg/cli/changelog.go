package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bcomnes/releasekit/pkg/bump"
	"github.com/bcomnes/releasekit/pkg/changelog"
	"github.com/bcomnes/releasekit/pkg/errors"
	"github.com/bcomnes/releasekit/pkg/fileutil"
)

// now is replaced in tests.
var now = time.Now

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Value: ".",
			Usage: "directory inside the repository",
		},
		&cli.StringFlag{
			Name:  "marker",
			Usage: "message prefix of release commits (default: " + changelog.DefaultMarker + ")",
		},
		&cli.StringFlag{
			Name: "backend",
			Usage: fmt.Sprintf("history backend (supported values: %s)",
				strings.Join(changelog.Backends(), ", ")),
		},
	}
}

func (a *app) historyOptions(cmd *cli.Command) changelog.Options {
	opts := changelog.Options{
		Dir:     cmd.String("dir"),
		Marker:  a.cfg.Git.ReleaseMarker,
		Backend: a.cfg.Git.Backend,
	}
	if cmd.IsSet("marker") {
		opts.Marker = cmd.String("marker")
	}
	if cmd.IsSet("backend") {
		opts.Backend = cmd.String("backend")
	}
	return opts
}

func (a *app) commitsCmd() *cli.Command {
	return &cli.Command{
		Name:  "commits",
		Usage: "List the commits made since the last release commit",
		Description: `Prints COMMIT_COUNT=<n> followed by the full message of every commit
since the newest commit whose message starts with the release marker, newest
first, each message followed by a blank line. Without a release commit the
whole history is listed.`,
		Flags: append(historyFlags(),
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "output format (text, json, yaml)",
			},
		),
		Action: a.commits,
	}
}

func (a *app) commits(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case "text", "json", "yaml":
	default:
		return errors.Newf(errors.ErrCodeInvalidInput, "unknown output format %q (supported: text, json, yaml)", format)
	}

	log, err := changelog.Extract(ctx, a.historyOptions(cmd))
	if err != nil {
		return err
	}
	return writeCommitLog(cmd.Root().Writer, log, format)
}

func writeCommitLog(w io.Writer, log changelog.CommitLog, format string) error {
	var buf bytes.Buffer
	switch format {
	case "json":
		e := json.NewEncoder(&buf)
		e.SetEscapeHTML(false)
		e.SetIndent("", "  ")
		if err := e.Encode(log); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "encoding commit log", err)
		}
	case "yaml":
		raw, err := yaml.Marshal(log)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "encoding commit log", err)
		}
		buf.Write(raw)
	default:
		fmt.Fprintf(&buf, "COMMIT_COUNT=%d\n", log.Count)
		for _, msg := range log.Messages {
			buf.WriteString(msg)
			buf.WriteString("\n\n")
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (a *app) releaseNotesCmd() *cli.Command {
	return &cli.Command{
		Name:      "release-notes",
		Usage:     "Render release notes for a version",
		ArgsUsage: "[version]",
		Description: `Renders the release notes template for the given version, or for the
manifest version when none is given. Every section holds a placeholder item
unless --from-commits is set, in which case the commits since the last release
are filed under the sections by their conventional-commit type.

The json format is the payload the update server accepts when a version is
published: version, release_notes, download_url and is_beta.`,
		Flags: append(historyFlags(),
			&cli.BoolFlag{
				Name:  "from-commits",
				Usage: "fill the sections from the commits since the last release",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("output format (supported values: %s)", strings.Join(changelog.AvailableEncodings(), ", ")),
			},
			&cli.StringFlag{
				Name:  "download-url",
				Usage: "download URL included in the json payload",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "manifest to read the version from when no version is given",
				Sources: cli.EnvVars("RELEASEKIT_MANIFEST"),
			},
		),
		Action: a.releaseNotes,
	}
}

func (a *app) releaseNotes(ctx context.Context, cmd *cli.Command) error {
	format := a.cfg.ReleaseNotes.Format
	if cmd.IsSet("format") {
		format = cmd.String("format")
	}
	enc, err := changelog.ParseEncoding(format)
	if err != nil {
		return err
	}

	version := cmd.Args().First()
	if version == "" {
		if version, err = a.manifestVersion(cmd); err != nil {
			return err
		}
	}

	var commits []string
	if cmd.Bool("from-commits") {
		log, err := changelog.Extract(ctx, a.historyOptions(cmd))
		if err != nil {
			return err
		}
		commits = log.Messages
	}

	notes := changelog.NewNotes(version, commits, now())
	notes.DownloadURL = a.cfg.ReleaseNotes.DownloadURL
	if cmd.IsSet("download-url") {
		notes.DownloadURL = cmd.String("download-url")
	}

	output := cmd.String("output")
	if output == "" {
		return changelog.Render(cmd.Root().Writer, notes, enc)
	}
	var buf bytes.Buffer
	if err := changelog.Render(&buf, notes, enc); err != nil {
		return err
	}
	if err := fileutil.AtomicWriteFile(output, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to write %s", output), err)
	}
	return nil
}

func (a *app) manifestVersion(cmd *cli.Command) (string, error) {
	path := a.cfg.Manifest
	if cmd.IsSet("manifest") {
		path = cmd.String("manifest")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.ErrCodeInvalidInput,
				"no version given and manifest file not found: %s", path)
		}
		return "", errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	version, err := bump.ExtractManifestVersion(content)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, fmt.Sprintf("cannot read version from %s", path), err)
	}
	return version, nil
}
