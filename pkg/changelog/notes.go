package changelog

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/MakeNowJust/heredoc"
	"gopkg.in/yaml.v3"

	"github.com/bcomnes/releasekit/pkg/errors"
)

// Encoding selects the output format of Render.
type Encoding string

const (
	EncodingMarkdown Encoding = "markdown"
	EncodingJSON     Encoding = "json"
	EncodingYAML     Encoding = "yaml"
)

// AvailableEncodings lists the encodings Render understands.
func AvailableEncodings() []string {
	return []string{
		string(EncodingMarkdown),
		string(EncodingJSON),
		string(EncodingYAML),
	}
}

// ParseEncoding validates s as an Encoding. The empty string selects
// markdown.
func ParseEncoding(s string) (Encoding, error) {
	if s == "" {
		return EncodingMarkdown, nil
	}
	for _, e := range AvailableEncodings() {
		if strings.EqualFold(s, e) {
			return Encoding(e), nil
		}
	}
	return "", errors.Newf(errors.ErrCodeInvalidInput,
		"unknown release notes format %q (supported: %s)", s, strings.Join(AvailableEncodings(), ", "))
}

// Section titles, in the order they appear in the notes.
const (
	SectionHighlights   = "Highlights"
	SectionFeatures     = "Features"
	SectionBugFixes     = "Bug Fixes"
	SectionImprovements = "Improvements"
	SectionOther        = "Other Changes"
)

// Placeholder is the item listed in a section with nothing to report.
const Placeholder = "TBD"

// Notes are the release notes of one version.
type Notes struct {
	Version     string    `json:"version" yaml:"version"`
	Prerelease  bool      `json:"prerelease" yaml:"prerelease"`
	Date        string    `json:"date" yaml:"date"`
	DownloadURL string    `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

type Section struct {
	Title string   `json:"title" yaml:"title"`
	Items []string `json:"items" yaml:"items"`
}

// conventional matches a conventional-commit subject such as
// "feat(login)!: add passkeys".
var conventional = regexp.MustCompile(`^([A-Za-z]+)(?:\([^)]*\))?!?:[ \t]*(.+)$`)

// NewNotes builds release notes for version. Each commit message is filed
// under a section by its conventional-commit type; sections left empty hold
// the placeholder item. Highlights are written by hand and always start as
// the placeholder.
func NewNotes(version string, commits []string, now time.Time) Notes {
	titles := []string{SectionHighlights, SectionFeatures, SectionBugFixes, SectionImprovements, SectionOther}
	items := make(map[string][]string, len(titles))

	for _, msg := range commits {
		subject, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
		subject = strings.TrimSpace(subject)
		if subject == "" || strings.HasPrefix(subject, DefaultMarker) {
			continue
		}
		title, item := categorize(subject)
		items[title] = append(items[title], item)
	}

	n := Notes{
		Version:    version,
		Prerelease: IsPrerelease(version),
		Date:       now.UTC().Format("2006-01-02"),
	}
	for _, t := range titles {
		s := Section{Title: t, Items: items[t]}
		if len(s.Items) == 0 {
			s.Items = []string{Placeholder}
		}
		n.Sections = append(n.Sections, s)
	}
	return n
}

func categorize(subject string) (string, string) {
	m := conventional.FindStringSubmatch(subject)
	if m == nil {
		return SectionOther, subject
	}
	switch strings.ToLower(m[1]) {
	case "feat", "feature":
		return SectionFeatures, m[2]
	case "fix", "bugfix":
		return SectionBugFixes, m[2]
	case "perf", "refactor":
		return SectionImprovements, m[2]
	default:
		return SectionOther, subject
	}
}

var prereleaseMarkers = []string{"-", "alpha", "beta", "rc", "preview", "pre"}

// IsPrerelease reports whether version looks like a pre-release.
func IsPrerelease(version string) bool {
	v := strings.ToLower(version)
	for _, m := range prereleaseMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

var markdownTemplate = template.Must(template.New("release notes").Parse(heredoc.Doc(`
	## {{.Version}}{{if .Prerelease}} (pre-release){{end}} - {{.Date}}
	{{range .Sections}}
	### {{.Title}}
	{{range .Items}}
	- {{.}}{{end}}
	{{end -}}
`)))

// Markdown renders the notes as a Markdown document.
func (n Notes) Markdown() (string, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, n); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "rendering release notes", err)
	}
	return buf.String(), nil
}

// payload is the body accepted by the update server when a version is
// published.
type payload struct {
	Version      string `json:"version"`
	ReleaseNotes string `json:"release_notes"`
	DownloadURL  string `json:"download_url"`
	IsBeta       bool   `json:"is_beta"`
}

// Render writes the notes to w in the given encoding.
func Render(w io.Writer, n Notes, enc Encoding) error {
	var out []byte
	switch enc {
	case "", EncodingMarkdown:
		md, err := n.Markdown()
		if err != nil {
			return err
		}
		out = []byte(md)
	case EncodingJSON:
		md, err := n.Markdown()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		e := json.NewEncoder(&buf)
		e.SetEscapeHTML(false)
		e.SetIndent("", "  ")
		if err := e.Encode(payload{
			Version:      n.Version,
			ReleaseNotes: md,
			DownloadURL:  n.DownloadURL,
			IsBeta:       n.Prerelease,
		}); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "encoding release notes", err)
		}
		out = buf.Bytes()
	case EncodingYAML:
		var buf bytes.Buffer
		e := yaml.NewEncoder(&buf)
		e.SetIndent(2)
		if err := e.Encode(n); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "encoding release notes", err)
		}
		if err := e.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "encoding release notes", err)
		}
		out = buf.Bytes()
	default:
		return errors.Newf(errors.ErrCodeInvalidInput,
			"unknown release notes format %q (supported: %s)", enc, strings.Join(AvailableEncodings(), ", "))
	}

	if _, err := w.Write(out); err != nil {
		return errors.Wrap(errors.ErrCodeIO, "writing release notes", err)
	}
	return nil
}
