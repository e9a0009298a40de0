package bump

import (
	stderrors "errors"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/bcomnes/releasekit/pkg/errors"
)

// Sentinel causes carried inside the structured errors returned by Bump.
var (
	ErrEmptyVersion    = stderrors.New("version string is empty")
	ErrNonNumeric      = stderrors.New("version component is not numeric")
	ErrInvalidExplicit = stderrors.New("explicit version core is not numeric")
)

// minCoreComponents is the number of core components a version is padded to.
const minCoreComponents = 3

// Version is a parsed core[-prerelease][+build] version string.
// Components are kept as text so that reassembly reproduces the input
// exactly except for the parts a bump changes.
type Version struct {
	Core          []string
	Prerelease    string
	HasPrerelease bool
	Build         string
	HasBuild      bool
}

// ParseVersion splits s into its core, prerelease and build parts. It does
// not validate the core components; Bump does that when it needs them.
func ParseVersion(s string) (Version, error) {
	var v Version
	if s == "" {
		return v, errors.Wrap(errors.ErrCodeInvalidInput, "current version is required", ErrEmptyVersion)
	}

	base := s
	if i := strings.Index(s, "+"); i >= 0 {
		base, v.Build, v.HasBuild = s[:i], s[i+1:], true
	}
	core := base
	if i := strings.Index(base, "-"); i >= 0 {
		core, v.Prerelease, v.HasPrerelease = base[:i], base[i+1:], true
	}
	v.Core = strings.Split(core, ".")
	return v, nil
}

// String reassembles the version.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(v.Core, "."))
	if v.HasPrerelease {
		b.WriteString("-")
		b.WriteString(v.Prerelease)
	}
	if v.HasBuild {
		b.WriteString("+")
		b.WriteString(v.Build)
	}
	return b.String()
}

// BuildCounter returns the numeric build counter, if the build segment is one.
// Counters have no upper bound.
func (v Version) BuildCounter() (*big.Int, bool) {
	if !v.HasBuild || !isDigits(v.Build) {
		return nil, false
	}
	return new(big.Int).SetString(v.Build, 10)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// nextBuild returns the "+N" suffix that follows current's build counter, or
// "" when current has no numeric counter.
func nextBuild(current Version) string {
	n, ok := current.BuildCounter()
	if !ok {
		return ""
	}
	return "+" + increment(n)
}

func increment(n *big.Int) string {
	return new(big.Int).Add(n, big.NewInt(1)).String()
}

type bumper struct {
	inheritBuild bool
}

// Option configures Bump.
type Option func(*bumper)

// WithBuildInheritance controls whether an explicit target without a build
// segment inherits the incremented build counter of the current version.
// Inheritance is on by default; passing false selects the legacy behavior
// where the explicit target is always returned unchanged.
func WithBuildInheritance(inherit bool) Option {
	return func(b *bumper) {
		b.inheritBuild = inherit
	}
}

// Bump returns the version that follows current. When explicit is non-empty
// it is the target version; otherwise the last core component of current is
// incremented.
//
// Prerelease tags are carried over untouched. A numeric build counter is
// incremented; a non-numeric build segment is dropped.
func Bump(current, explicit string, opts ...Option) (string, error) {
	b := bumper{inheritBuild: true}
	for _, opt := range opts {
		opt(&b)
	}

	cur, err := ParseVersion(current)
	if err != nil {
		return "", err
	}

	if explicit != "" {
		return b.explicit(cur, explicit)
	}
	return autoBump(cur)
}

func (b bumper) explicit(cur Version, explicit string) (string, error) {
	target, _ := ParseVersion(explicit)
	for _, part := range target.Core {
		if !isDigits(part) {
			return "", errors.WrapWithContext(errors.ErrCodeInvalidInput,
				"explicit version "+strconv.Quote(explicit)+" is not valid", ErrInvalidExplicit,
				map[string]any{"explicit": explicit, "component": part})
		}
	}
	if strings.Contains(explicit, "+") || !b.inheritBuild {
		return explicit, nil
	}
	return explicit + nextBuild(cur), nil
}

func autoBump(cur Version) (string, error) {
	core := make([]string, len(cur.Core), max(len(cur.Core), minCoreComponents))
	copy(core, cur.Core)
	for len(core) < minCoreComponents {
		core = append(core, "0")
	}

	nums := make([]*big.Int, len(core))
	for i, part := range core {
		n, err := parseComponent(part)
		if err != nil {
			return "", errors.WrapWithContext(errors.ErrCodeParse,
				"invalid version "+strconv.Quote(cur.String()), err,
				map[string]any{"component": part, "index": i})
		}
		nums[i] = n
	}
	last := len(core) - 1
	core[last] = increment(nums[last])

	next := Version{
		Core:          core,
		Prerelease:    cur.Prerelease,
		HasPrerelease: cur.HasPrerelease,
	}
	return next.String() + nextBuild(cur), nil
}

func parseComponent(part string) (*big.Int, error) {
	if !isDigits(part) {
		return nil, errors.Wrap(errors.ErrCodeParse, strconv.Quote(part), ErrNonNumeric)
	}
	n, _ := new(big.Int).SetString(part, 10)
	return n, nil
}

// IsDowngrade reports whether next orders before current. Versions that are
// not semantic versions never count as a downgrade; build metadata is
// ignored.
func IsDowngrade(current, next string) bool {
	cur, nxt := "v"+current, "v"+next
	if !semver.IsValid(cur) || !semver.IsValid(nxt) {
		return false
	}
	return semver.Compare(nxt, cur) < 0
}
