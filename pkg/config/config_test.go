package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/releasekit/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pubspec.yaml", cfg.Manifest)
	assert.True(t, cfg.InheritBuild)
	assert.False(t, cfg.Git.Commit)
	assert.True(t, cfg.Git.Tag)
	assert.Equal(t, "v", cfg.Git.TagPrefix)
	assert.Equal(t, "release: ", cfg.Git.CommitPrefix)
	assert.Equal(t, "release:", cfg.Git.ReleaseMarker)
	assert.Equal(t, "go-git", cfg.Git.Backend)
	assert.Equal(t, "markdown", cfg.ReleaseNotes.Format)
	require.NoError(t, cfg.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
manifest: app/pubspec.yaml
bumpFiles:
  - web/package.json
  - VERSION
inheritBuild: false
git:
  commit: true
  tagPrefix: app-v
  backend: exec
siteConfig:
  templates: config/templates.json
releaseNotes:
  format: json
  downloadUrl: https://downloads.example.com/latest
`))
	require.NoError(t, err)

	assert.Equal(t, "app/pubspec.yaml", cfg.Manifest)
	assert.Equal(t, []string{"web/package.json", "VERSION"}, cfg.BumpFiles)
	assert.False(t, cfg.InheritBuild)
	assert.True(t, cfg.Git.Commit)
	assert.Equal(t, "app-v", cfg.Git.TagPrefix)
	assert.Equal(t, "exec", cfg.Git.Backend)
	assert.Equal(t, "config/templates.json", cfg.SiteConfig.Templates)
	assert.Equal(t, "json", cfg.ReleaseNotes.Format)

	// untouched keys keep their defaults
	assert.True(t, cfg.Git.Tag)
	assert.Equal(t, "release: ", cfg.Git.CommitPrefix)
	assert.Equal(t, ".", cfg.SiteConfig.OutputDir)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{name: "syntax", content: "manifest: [unclosed", code: errors.ErrCodeParse},
		{name: "unknown key", content: "manfest: pubspec.yaml\n", code: errors.ErrCodeParse},
		{name: "wrong type", content: "bumpFiles: 3\n", code: errors.ErrCodeParse},
		{name: "bad backend", content: "git:\n  backend: hg\n", code: errors.ErrCodeInvalidInput},
		{name: "bad format", content: "releaseNotes:\n  format: html\n", code: errors.ErrCodeInvalidInput},
		{name: "empty manifest", content: "manifest: \"\"\n", code: errors.ErrCodeInvalidInput},
		{name: "empty marker", content: "git:\n  releaseMarker: \"\"\n", code: errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".releasekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manifest: mobile/pubspec.yaml\n"), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "mobile/pubspec.yaml", cfg.Manifest)
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".releasekit.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestLoadInvalidKeepsCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releasekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("git:\n  backend: hg\n"), 0o644))

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	assert.Contains(t, err.Error(), path)
}
