package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bcomnes/releasekit/pkg/errors"
	"github.com/bcomnes/releasekit/pkg/fileutil"
)

// Keys written into every generated configuration.
const (
	KeyID         = "id"
	KeyName       = "name"
	KeyPrimaryURL = "primaryUrl"
	KeyBaseURLs   = "baseUrls"
	KeySiteType   = "siteType"
	// KeyBaseURL is the legacy singular form, removed from generated files.
	KeyBaseURL = "baseUrl"
)

// Library is a loaded template library.
type Library struct {
	path      string
	templates *object
}

type libraryDocument struct {
	DefaultTemplates *object `json:"defaultTemplates"`
}

// LoadLibrary reads and parses the template library at path.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidInput,
				fmt.Sprintf("template file not found: %s", path), map[string]any{"path": path})
		}
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}

	var doc libraryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, fmt.Sprintf("invalid template file %s", path), err)
	}
	if doc.DefaultTemplates == nil {
		return nil, errors.Newf(errors.ErrCodeParse, "template file %s has no defaultTemplates", path)
	}
	return &Library{path: path, templates: doc.DefaultTemplates}, nil
}

// Types returns the available site types in natural order.
func (l *Library) Types() []string {
	types := l.templates.Keys()
	natsort.Sort(types)
	return types
}

// template decodes the template for siteType.
func (l *Library) template(siteType string) (*object, error) {
	raw, ok := l.templates.Get(siteType)
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown site type %q (supported types: %s)", siteType, strings.Join(l.Types(), ", ")),
			map[string]any{"siteType": siteType})
	}
	tmpl := newObject()
	if err := json.Unmarshal(raw, tmpl); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse,
			fmt.Sprintf("template %q in %s is not an object", siteType, l.path), err)
	}
	return tmpl, nil
}

// Options describes the site to generate.
type Options struct {
	// TemplatesPath is the template library read by the package-level
	// Generate.
	TemplatesPath string
	SiteID        string
	URL           string
	SiteType      string
	Name          string // defaults to the site ID
	// TitleName derives the default name by title-casing the site ID.
	TitleName bool
	// OutputDir defaults to the current directory and must already exist.
	OutputDir string
}

// Result describes a generated configuration.
type Result struct {
	Path   string
	Config []byte
}

// OutputPath returns the file a site configuration is written to.
func OutputPath(outputDir, siteID string) string {
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(outputDir, siteID+".json")
}

// DisplayName derives a human-readable name from a site ID.
func DisplayName(siteID string) string {
	words := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(siteID)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(words), " "))
}

// Render builds the configuration document for opts without writing it.
func (l *Library) Render(opts Options) ([]byte, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	tmpl, err := l.template(opts.SiteType)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	switch {
	case name != "":
	case opts.TitleName:
		name = DisplayName(opts.SiteID)
	default:
		name = opts.SiteID
	}

	cfg := tmpl.Clone()
	fields := []struct {
		key   string
		value any
	}{
		{KeyID, opts.SiteID},
		{KeyName, name},
		{KeyPrimaryURL, opts.URL},
		{KeyBaseURLs, []string{opts.URL}},
		{KeySiteType, opts.SiteType},
	}
	for _, f := range fields {
		if err := cfg.Set(f.key, f.value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "building site config", err)
		}
	}
	cfg.Delete(KeyBaseURL)

	compact, err := marshalNoEscape(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "encoding site config", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "indenting site config", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Generate renders the configuration and writes it to its output path. It
// fails without writing when the output file already exists.
func (l *Library) Generate(opts Options) (Result, error) {
	if err := validate(opts); err != nil {
		return Result{}, err
	}
	path := OutputPath(opts.OutputDir, opts.SiteID)
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return Result{}, errors.NewWithContext(errors.ErrCodeInvalidInput,
			fmt.Sprintf("output directory does not exist: %s", filepath.Dir(path)),
			map[string]any{"outputDir": filepath.Dir(path)})
	}
	exists, err := fileutil.Exists(path)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to stat %s", path), err)
	}
	if exists {
		return Result{}, errors.NewWithContext(errors.ErrCodeConflict,
			fmt.Sprintf("output file already exists: %s", path), map[string]any{"path": path})
	}

	data, err := l.Render(opts)
	if err != nil {
		return Result{}, err
	}

	if err := fileutil.AtomicWriteFile(path, data, 0o644); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to write %s", path), err)
	}
	slog.Info("generated site config", "path", path, "siteType", opts.SiteType)
	return Result{Path: path, Config: data}, nil
}

// Generate loads the library at opts.TemplatesPath and generates one site.
func Generate(opts Options) (Result, error) {
	lib, err := LoadLibrary(opts.TemplatesPath)
	if err != nil {
		return Result{}, err
	}
	return lib.Generate(opts)
}

// Types lists the site types of the library at path.
func Types(path string) ([]string, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return lib.Types(), nil
}

func validate(opts Options) error {
	if strings.TrimSpace(opts.SiteID) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "site ID is required")
	}
	if strings.ContainsAny(opts.SiteID, `/\`) {
		return errors.Newf(errors.ErrCodeInvalidInput, "site ID %q must not contain path separators", opts.SiteID)
	}
	if opts.SiteType == "" {
		return errors.New(errors.ErrCodeInvalidInput, "site type is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewWithContext(errors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid site URL %q", opts.URL), map[string]any{"url": opts.URL})
	}
	return nil
}
