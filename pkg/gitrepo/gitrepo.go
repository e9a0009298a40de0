// Package gitrepo wraps go-git with the handful of repository operations the
// release commands need: a dirty check, committing a set of files, tagging,
// and walking history.
package gitrepo

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/bcomnes/releasekit/pkg/errors"
)

// ErrStop stops a Walk without reporting an error.
var ErrStop = storer.ErrStop

const (
	defaultAuthorName  = "releasekit"
	defaultAuthorEmail = "releasekit@localhost"
)

// Repo is an opened git working tree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing dir, searching parent directories.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Sprintf("no git repository at %q", dir), err)
	}
	return newRepo(r)
}

// Init creates a new repository in dir.
func Init(dir string) (*Repo, error) {
	r, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("initializing repository in %q", dir), err)
	}
	return newRepo(r)
}

func newRepo(r *git.Repository) (*Repo, error) {
	wt, err := r.Worktree()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "repository has no working tree", err)
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, "resolving repository root", err)
	}
	return &Repo{repo: r, root: root}, nil
}

// Root returns the absolute, symlink-free path of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// Rel converts a filesystem path to a slash-separated path relative to the
// working tree root.
func (r *Repo) Rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if resolvedDir, dirErr := filepath.EvalSymlinks(filepath.Dir(abs)); dirErr == nil {
		abs = filepath.Join(resolvedDir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Dirty returns the paths that are modified, staged or untracked and are not
// listed in allowed.
func (r *Repo) Dirty(allowed []string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "opening worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, "reading git status", err)
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		rel, err := r.Rel(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Sprintf("resolving path %q", f), err)
		}
		allowedSet[rel] = struct{}{}
	}

	var disallowed []string
	for path, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		if _, ok := allowedSet[path]; !ok {
			disallowed = append(disallowed, path)
		}
	}
	sort.Strings(disallowed)
	return disallowed, nil
}

// CheckClean fails when files other than allowed have uncommitted changes.
func (r *Repo) CheckClean(allowed []string) error {
	disallowed, err := r.Dirty(allowed)
	if err != nil {
		return err
	}
	if len(disallowed) > 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidInput,
			fmt.Sprintf("working directory is dirty; uncommitted files not included in commit: %v", disallowed),
			map[string]any{"files": disallowed})
	}
	return nil
}

// Commit stages files and records a commit with message.
func (r *Repo) Commit(files []string, message string) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeInternal, "opening worktree", err)
	}
	for _, f := range files {
		rel, err := r.Rel(f)
		if err != nil {
			return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Sprintf("resolving path %q", f), err)
		}
		if _, err := wt.Add(rel); err != nil {
			return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("git add %s failed", rel), err)
		}
	}

	sig := r.signature()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(errors.ErrCodeIO, "git commit failed", err)
	}
	return hash, nil
}

// Tag creates a lightweight tag pointing at hash.
func (r *Repo) Tag(name string, hash plumbing.Hash) error {
	if _, err := r.repo.CreateTag(name, hash, nil); err != nil {
		if stderrors.Is(err, git.ErrTagExists) {
			return errors.Wrap(errors.ErrCodeConflict, fmt.Sprintf("tag %s already exists", name), err)
		}
		return errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("git tag %s failed", name), err)
	}
	return nil
}

// Tags returns the names of all tags, sorted.
func (r *Repo) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, "listing tags", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, "listing tags", err)
	}
	sort.Strings(names)
	return names, nil
}

// Walk calls fn for every commit reachable from HEAD, newest first. Returning
// ErrStop from fn ends the walk early. An empty repository yields no commits.
func (r *Repo) Walk(ctx context.Context, fn func(*object.Commit) error) error {
	head, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeIO, "resolving HEAD", err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "reading git log", err)
	}
	defer iter.Close()

	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

// WalkRange calls fn for every commit reachable from HEAD but not from
// exclude, the way "git log <exclude>..HEAD" selects them. A zero exclude
// hash walks the whole history. Returning ErrStop from fn ends the walk early.
func (r *Repo) WalkRange(ctx context.Context, exclude plumbing.Hash, fn func(*object.Commit) error) error {
	if exclude.IsZero() {
		return r.Walk(ctx, fn)
	}
	head, err := r.repo.Head()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "resolving HEAD", err)
	}
	tip, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "reading HEAD commit", err)
	}

	hidden := make(map[plumbing.Hash]bool)
	excluded, err := r.repo.Log(&git.LogOptions{From: exclude})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("reading history of %s", exclude), err)
	}
	err = excluded.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		hidden[c.Hash] = true
		return nil
	})
	excluded.Close()
	if err != nil {
		return err
	}

	iter := object.NewCommitPreorderIter(tip, hidden, nil)
	defer iter.Close()
	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

func (r *Repo) signature() *object.Signature {
	name, email := os.Getenv("GIT_AUTHOR_NAME"), os.Getenv("GIT_AUTHOR_EMAIL")
	if name == "" || email == "" {
		if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}
	if name == "" {
		name = defaultAuthorName
	}
	if email == "" {
		email = defaultAuthorEmail
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}
