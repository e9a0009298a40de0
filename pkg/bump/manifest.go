package bump

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/bcomnes/releasekit/pkg/errors"
)

// ManifestPattern matches the version declaration of a manifest such as
// pubspec.yaml. Only the first match is ever used; the capture group is the
// version value.
var ManifestPattern = regexp.MustCompile(`(?m)^version:[ \t\f\v]*([^\s#]+)`)

// VersionPattern represents a pattern for finding the version in a file.
// Group 1 of Pattern must capture the bare version (without a "v" prefix).
type VersionPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

const versionExpr = `v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?)`

// MainVersionPatterns match the primary version declaration of common
// project files. They are line-anchored so that dependency versions, which
// are usually indented or keyed by name, are left alone.
var MainVersionPatterns = []VersionPattern{
	{
		Pattern: regexp.MustCompile(`(?m)^[ \t]{0,2}"version"[ \t]*:[ \t]*"` + versionExpr + `"`),
		Name:    "root JSON version field",
	},
	{
		Pattern: regexp.MustCompile(`(?m)^version[ \t]*=[ \t]*"` + versionExpr + `"`),
		Name:    "root TOML version field",
	},
	{
		Pattern: regexp.MustCompile(`(?mi)^VERSION[ \t]*[:=][ \t]*["']?` + versionExpr),
		Name:    "root VERSION assignment",
	},
}

// VersionMatch is a located version declaration. Start and End are byte
// offsets of the version value within the file content.
type VersionMatch struct {
	Line    int
	Start   int
	End     int
	Version string
	Pattern string
}

// FindManifestVersion locates the first "version:" line of a manifest.
func FindManifestVersion(content []byte) (VersionMatch, error) {
	loc := ManifestPattern.FindSubmatchIndex(content)
	if loc == nil {
		return VersionMatch{}, errors.New(errors.ErrCodeParse, "version line not found in manifest")
	}
	return newMatch(content, loc, "manifest version line"), nil
}

// ExtractManifestVersion returns the value of the first "version:" line.
func ExtractManifestVersion(content []byte) (string, error) {
	m, err := FindManifestVersion(content)
	if err != nil {
		return "", err
	}
	return m.Version, nil
}

// ReplaceManifestVersion substitutes newVersion into the first "version:"
// line. Every other byte of content is left as is.
func ReplaceManifestVersion(content []byte, newVersion string) ([]byte, error) {
	m, err := FindManifestVersion(content)
	if err != nil {
		return nil, err
	}
	return ReplaceMatch(content, m, newVersion), nil
}

// FindMainVersion returns the earliest main version declaration in content,
// or nil when none of MainVersionPatterns match.
func FindMainVersion(content []byte) *VersionMatch {
	var best *VersionMatch
	for _, vp := range MainVersionPatterns {
		loc := vp.Pattern.FindSubmatchIndex(content)
		if loc == nil {
			continue
		}
		if best == nil || loc[2] < best.Start {
			m := newMatch(content, loc, vp.Name)
			best = &m
		}
	}
	return best
}

// ReplaceMatch splices newVersion over the matched version value.
func ReplaceMatch(content []byte, m VersionMatch, newVersion string) []byte {
	out := make([]byte, 0, len(content)-(m.End-m.Start)+len(newVersion))
	out = append(out, content[:m.Start]...)
	out = append(out, newVersion...)
	out = append(out, content[m.End:]...)
	return out
}

func newMatch(content []byte, loc []int, name string) VersionMatch {
	return VersionMatch{
		Line:    bytes.Count(content[:loc[2]], []byte("\n")) + 1,
		Start:   loc[2],
		End:     loc[3],
		Version: string(content[loc[2]:loc[3]]),
		Pattern: name,
	}
}

func (m VersionMatch) String() string {
	return m.Version + " (line " + strconv.Itoa(m.Line) + ", " + m.Pattern + ")"
}
