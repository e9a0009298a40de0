// Package config loads the releasekit project file (.releasekit.yaml).
//
// Every setting has a default, so the file is optional. Values present in the
// file replace the defaults; command-line flags and RELEASEKIT_* environment
// variables take precedence over both.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bcomnes/releasekit/pkg/bump"
	"github.com/bcomnes/releasekit/pkg/changelog"
	"github.com/bcomnes/releasekit/pkg/errors"
)

// DefaultPath is the project file looked up when no path is given.
const DefaultPath = ".releasekit.yaml"

// Config is the content of the project file.
type Config struct {
	// Manifest holds the "version:" line.
	Manifest string `yaml:"manifest"`
	// BumpFiles are kept in sync with the manifest version.
	BumpFiles []string `yaml:"bumpFiles"`
	// InheritBuild appends the incremented build counter to explicit
	// versions that carry none.
	InheritBuild bool `yaml:"inheritBuild"`

	Git          Git          `yaml:"git"`
	SiteConfig   SiteConfig   `yaml:"siteConfig"`
	ReleaseNotes ReleaseNotes `yaml:"releaseNotes"`
}

type Git struct {
	Commit        bool   `yaml:"commit"`
	Tag           bool   `yaml:"tag"`
	TagPrefix     string `yaml:"tagPrefix"`
	CommitPrefix  string `yaml:"commitPrefix"`
	ReleaseMarker string `yaml:"releaseMarker"`
	Backend       string `yaml:"backend"`
}

type SiteConfig struct {
	Templates string `yaml:"templates"`
	OutputDir string `yaml:"outputDir"`
}

type ReleaseNotes struct {
	Format      string `yaml:"format"`
	DownloadURL string `yaml:"downloadUrl"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Manifest:     bump.DefaultManifest,
		InheritBuild: true,
		Git: Git{
			Tag:           true,
			TagPrefix:     bump.DefaultTagPrefix,
			CommitPrefix:  bump.DefaultCommitPrefix,
			ReleaseMarker: changelog.DefaultMarker,
			Backend:       changelog.BackendGoGit,
		},
		SiteConfig: SiteConfig{
			Templates: "site_templates.json",
			OutputDir: ".",
		},
		ReleaseNotes: ReleaseNotes{
			Format: string(changelog.EncodingMarkdown),
		},
	}
}

// Load reads the project file at path over the defaults. A missing file is
// only an error when required is set, which is the case for a path the user
// named explicitly.
func Load(path string, required bool) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			slog.Debug("no project file, using defaults", "path", path)
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidInput,
				fmt.Sprintf("config file not found: %s", path), map[string]any{"path": path})
		}
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WrapWithContext(errors.CodeOf(err),
			fmt.Sprintf("invalid config file %s", path), err, map[string]any{"path": path})
	}
	slog.Debug("loaded project file", "path", path)
	return cfg, nil
}

// Parse decodes a project file over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeParse, "decoding YAML", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manifest) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "manifest must not be empty")
	}
	if !slices.Contains(changelog.Backends(), c.Git.Backend) {
		return errors.Newf(errors.ErrCodeInvalidInput, "git.backend %q is not one of %s",
			c.Git.Backend, strings.Join(changelog.Backends(), ", "))
	}
	if _, err := changelog.ParseEncoding(c.ReleaseNotes.Format); err != nil {
		return err
	}
	if c.Git.ReleaseMarker == "" {
		return errors.New(errors.ErrCodeInvalidInput, "git.releaseMarker must not be empty")
	}
	return nil
}
