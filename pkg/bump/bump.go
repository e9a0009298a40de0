package bump

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bcomnes/releasekit/pkg/errors"
	"github.com/bcomnes/releasekit/pkg/fileutil"
	"github.com/bcomnes/releasekit/pkg/gitrepo"
)

// Bump types reported in VersionMeta.
const (
	BumpTypeAuto     = "auto"
	BumpTypeExplicit = "explicit"
)

// Defaults used when Options leave the corresponding field empty.
const (
	DefaultManifest     = "pubspec.yaml"
	DefaultCommitPrefix = "release: "
	DefaultTagPrefix    = "v"
)

// VersionMeta holds metadata about the version bump operation.
type VersionMeta struct {
	OldVersion   string   // The version found in the manifest.
	NewVersion   string   // The version written back.
	BumpType     string   // "auto" or "explicit".
	UpdatedFiles []string // Files written (or that would be written on a dry run).
	Commit       string   // Hash of the release commit, when one was made.
	Tag          string   // Tag created for the release commit, when one was made.
}

// Options configures Run.
type Options struct {
	// ManifestPath is the file holding the "version:" line.
	ManifestPath string
	// Explicit is the caller-supplied target version; empty means auto-bump.
	Explicit string
	// BumpFiles are additional files whose main version declaration is
	// replaced with the new version.
	BumpFiles []string
	// ExtraFiles are staged alongside the written files when committing.
	ExtraFiles []string
	// NoInheritBuild selects the legacy explicit-version behavior that never
	// appends an inherited build counter.
	NoInheritBuild bool
	// Commit records a release commit after writing.
	Commit bool
	// Tag creates a tag for the release commit. Ignored unless Commit is set.
	Tag          bool
	TagPrefix    string
	CommitPrefix string
	// DryRun computes everything but writes nothing.
	DryRun bool
}

func (o Options) withDefaults() Options {
	if o.ManifestPath == "" {
		o.ManifestPath = DefaultManifest
	}
	if o.CommitPrefix == "" {
		o.CommitPrefix = DefaultCommitPrefix
	}
	if o.TagPrefix == "" {
		o.TagPrefix = DefaultTagPrefix
	}
	return o
}

// Run reads the current version from the manifest, bumps it and writes it
// back, along with any bump files. Every new file content is computed before
// the first write, so a parse failure leaves the tree untouched, and the
// files are replaced as one batch.
func Run(ctx context.Context, opts Options) (VersionMeta, error) {
	opts = opts.withDefaults()
	var meta VersionMeta

	// 1. Read the current version
	content, err := readManifest(opts.ManifestPath)
	if err != nil {
		return meta, err
	}
	match, err := FindManifestVersion(content)
	if err != nil {
		return meta, errors.WrapWithContext(errors.ErrCodeParse,
			fmt.Sprintf("cannot read version from %s", opts.ManifestPath), err,
			map[string]any{"path": opts.ManifestPath})
	}
	meta.OldVersion = match.Version

	// 2. Determine new version
	meta.BumpType = BumpTypeAuto
	if opts.Explicit != "" {
		meta.BumpType = BumpTypeExplicit
	}
	meta.NewVersion, err = Bump(meta.OldVersion, opts.Explicit, WithBuildInheritance(!opts.NoInheritBuild))
	if err != nil {
		return meta, err
	}
	if IsDowngrade(meta.OldVersion, meta.NewVersion) {
		slog.Warn("new version orders before the current version",
			"old", meta.OldVersion, "new", meta.NewVersion)
	}
	slog.Debug("computed new version",
		"old", meta.OldVersion, "new", meta.NewVersion, "bumpType", meta.BumpType)

	// 3. Prepare every write before touching disk
	writes := []fileutil.File{{Path: opts.ManifestPath, Data: ReplaceMatch(content, match, meta.NewVersion)}}
	for _, bf := range opts.BumpFiles {
		data, ok, err := bumpFileContent(bf, meta.NewVersion)
		if err != nil {
			return meta, err
		}
		if !ok {
			slog.Warn("no version declaration found in bump file, skipping", "path", bf)
			continue
		}
		writes = append(writes, fileutil.File{Path: bf, Data: data})
	}
	for _, w := range writes {
		meta.UpdatedFiles = append(meta.UpdatedFiles, w.Path)
	}

	if opts.DryRun {
		return meta, nil
	}

	// 4. Refuse to commit over unrelated changes
	var repo *gitrepo.Repo
	if opts.Commit {
		repo, err = gitrepo.Open(filepath.Dir(opts.ManifestPath))
		if err != nil {
			return meta, err
		}
		allowed := append(slices.Clone(meta.UpdatedFiles), opts.ExtraFiles...)
		if err := repo.CheckClean(allowed); err != nil {
			return meta, err
		}
	}

	// 5. Write files
	if err := fileutil.WriteFiles(writes, 0o644); err != nil {
		return meta, errors.Wrap(errors.ErrCodeIO, "failed to write version files", err)
	}
	for _, path := range meta.UpdatedFiles {
		slog.Info("updated version", "path", path, "version", meta.NewVersion)
	}

	// 6. Stage, commit, and tag
	if opts.Commit {
		if err := ctx.Err(); err != nil {
			return meta, err
		}
		files := append(slices.Clone(meta.UpdatedFiles), opts.ExtraFiles...)
		hash, err := repo.Commit(files, opts.CommitPrefix+meta.NewVersion)
		if err != nil {
			return meta, err
		}
		meta.Commit = hash.String()
		if opts.Tag {
			tag := opts.TagPrefix + meta.NewVersion
			if err := repo.Tag(tag, hash); err != nil {
				return meta, err
			}
			meta.Tag = tag
		}
	}

	return meta, nil
}

// DryRun reports what Run would do without writing files or committing.
func DryRun(ctx context.Context, opts Options) (VersionMeta, error) {
	opts.DryRun = true
	return Run(ctx, opts)
}

func readManifest(path string) ([]byte, error) {
	exists, err := fileutil.Exists(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to stat %s", path), err)
	}
	if !exists {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidInput,
			fmt.Sprintf("manifest file not found: %s", path),
			map[string]any{"path": path})
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	return content, nil
}

// bumpFileContent returns the content of path with its main version replaced.
// The bool result is false when the file holds no recognizable version.
func bumpFileContent(path, newVersion string) ([]byte, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, errors.Newf(errors.ErrCodeInvalidInput, "bump file not found: %s", path)
		}
		return nil, false, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	m := FindMainVersion(content)
	if m == nil {
		return nil, false, nil
	}
	slog.Debug("found version in bump file", "path", path, "match", m.String())
	return ReplaceMatch(content, *m, newVersion), true, nil
}
