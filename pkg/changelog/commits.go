package changelog

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"

	"github.com/bcomnes/releasekit/pkg/errors"
	"github.com/bcomnes/releasekit/pkg/gitrepo"
)

// DefaultMarker prefixes the message of every release commit.
const DefaultMarker = "release:"

// History backends.
const (
	BackendGoGit = "go-git"
	BackendExec  = "exec"
)

// Backends lists the supported history backends.
func Backends() []string {
	return []string{BackendGoGit, BackendExec}
}

// Options configures Extract.
type Options struct {
	Dir     string // defaults to the current directory
	Marker  string // defaults to DefaultMarker
	Backend string // defaults to BackendGoGit
}

// CommitLog is the list of commits made since the last release.
type CommitLog struct {
	// Since is the hash of the release commit the log starts after. Empty when
	// no release commit exists and the log covers the full history.
	Since    string   `json:"since,omitempty" yaml:"since,omitempty"`
	Count    int      `json:"count" yaml:"count"`
	Messages []string `json:"messages" yaml:"messages"`
}

// Extract lists the full messages of the commits made since the last
// release, newest first. The last release is the newest commit reachable
// from HEAD whose message starts with the release marker; the log holds
// every commit reachable from HEAD but not from it, so branches merged after
// the release are included.
func Extract(ctx context.Context, opts Options) (CommitLog, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}

	var (
		log CommitLog
		err error
	)
	switch opts.Backend {
	case "", BackendGoGit:
		log, err = extractGoGit(ctx, opts)
	case BackendExec:
		log, err = extractExec(ctx, opts)
	default:
		return CommitLog{}, errors.Newf(errors.ErrCodeInvalidInput,
			"unknown history backend %q (supported: %s)", opts.Backend, strings.Join(Backends(), ", "))
	}
	if err != nil {
		return CommitLog{}, err
	}

	if log.Messages == nil {
		log.Messages = []string{}
	}
	log.Count = len(log.Messages)
	slog.Debug("extracted commits", "count", log.Count, "since", log.Since, "backend", opts.Backend)
	return log, nil
}

func extractGoGit(ctx context.Context, opts Options) (CommitLog, error) {
	repo, err := gitrepo.Open(opts.Dir)
	if err != nil {
		return CommitLog{}, err
	}

	var since plumbing.Hash
	err = repo.Walk(ctx, func(c *object.Commit) error {
		if strings.HasPrefix(c.Message, opts.Marker) {
			since = c.Hash
			return gitrepo.ErrStop
		}
		return nil
	})
	if err != nil {
		return CommitLog{}, err
	}

	var log CommitLog
	if !since.IsZero() {
		log.Since = since.String()
	}
	err = repo.WalkRange(ctx, since, func(c *object.Commit) error {
		if msg := strings.TrimSpace(c.Message); msg != "" {
			log.Messages = append(log.Messages, msg)
		}
		return nil
	})
	if err != nil {
		return CommitLog{}, err
	}
	return log, nil
}

// extractExec reads history through the git command line. The first pass
// finds the last release; the second lists the range after it.
func extractExec(ctx context.Context, opts Options) (CommitLog, error) {
	empty, err := isEmptyRepo(ctx, opts.Dir)
	if err != nil {
		return CommitLog{}, err
	}
	if empty {
		return CommitLog{}, nil
	}

	records, err := logRecords(ctx, opts.Dir, "HEAD")
	if err != nil {
		return CommitLog{}, err
	}
	var log CommitLog
	for _, r := range records {
		if strings.HasPrefix(r.message, opts.Marker) {
			log.Since = r.hash
			break
		}
	}
	if log.Since != "" {
		records, err = logRecords(ctx, opts.Dir, log.Since+"..HEAD")
		if err != nil {
			return CommitLog{}, err
		}
	}

	for _, r := range records {
		if msg := strings.TrimSpace(r.message); msg != "" {
			log.Messages = append(log.Messages, msg)
		}
	}
	return log, nil
}

type record struct {
	hash    string
	message string
}

// logRecords runs git log over rev. Each record is the commit hash on its own
// line followed by the raw message, terminated by a separator that is unique
// to this run.
func logRecords(ctx context.Context, dir, rev string) ([]record, error) {
	sep := "--releasekit-" + uuid.NewString() + "--"
	out, err := runGit(ctx, dir, "log", "--format=%H%n%B"+sep, rev, "--")
	if err != nil {
		return nil, err
	}

	var records []record
	for _, chunk := range strings.Split(out, sep) {
		chunk = strings.TrimLeft(chunk, "\r\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		hash, message, _ := strings.Cut(chunk, "\n")
		records = append(records, record{hash: strings.TrimSpace(hash), message: message})
	}
	return records, nil
}

// isEmptyRepo reports whether the repository at dir has no commits yet.
func isEmptyRepo(ctx context.Context, dir string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", "HEAD")
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
		return true, nil
	}
	return false, gitError(ctx, "rev-parse", err, stderr.String())
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", gitError(ctx, args[0], err, stderr.String())
	}
	return stdout.String(), nil
}

func gitError(ctx context.Context, sub string, err error, detail string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeIO, "git is not available on the system", err)
	}
	return errors.WrapWithContext(errors.ErrCodeIO, fmt.Sprintf("git %s failed", sub), err,
		map[string]any{"detail": strings.TrimSpace(detail)})
}
