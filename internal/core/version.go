package core

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"
)

// ModuleVersion is an ordered module version. A module whose version is
// absent or unparsable is unversioned and sorts below every versioned one.
type ModuleVersion struct {
	raw    string
	parsed debversion.Version
	valid  bool
}

// ParseModuleVersion never fails; malformed input yields an unversioned
// value that still remembers the raw text.
func ParseModuleVersion(raw string) ModuleVersion {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ModuleVersion{}
	}
	parsed, err := debversion.NewVersion(trimmed)
	if err != nil {
		return ModuleVersion{raw: trimmed}
	}
	return ModuleVersion{raw: trimmed, parsed: parsed, valid: true}
}

func (v ModuleVersion) Versioned() bool {
	return v.valid
}

func (v ModuleVersion) String() string {
	return v.raw
}

// Compare returns -1, 0, or 1. Unversioned values compare equal to each
// other and lower than any versioned value.
func (v ModuleVersion) Compare(other ModuleVersion) int {
	switch {
	case !v.valid && !other.valid:
		return 0
	case !v.valid:
		return -1
	case !other.valid:
		return 1
	default:
		return cmp.Compare(v.parsed.Compare(other.parsed), 0)
	}
}

// versionCache memoizes parsed module versions during a registry scan.
type versionCache struct {
	parsed map[string]ModuleVersion
}

func newVersionCache() *versionCache {
	return &versionCache{parsed: map[string]ModuleVersion{}}
}

func (c *versionCache) version(raw string) ModuleVersion {
	if parsed, ok := c.parsed[raw]; ok {
		return parsed
	}
	parsed := ParseModuleVersion(raw)
	c.parsed[raw] = parsed
	return parsed
}

func (c *versionCache) compare(a string, b string) int {
	return c.version(a).Compare(c.version(b))
}

// VersionInRange reports whether version satisfies a PEP 440 specifier set
// such as ">=7,<8". An unparsable version is never in range.
func VersionInRange(version string, specifier string) (bool, error) {
	spec, err := pep440.NewSpecifiers(strings.TrimSpace(specifier))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version range %q", specifier)).
			WithCause(err)
	}
	parsed, err := pep440.Parse(strings.TrimSpace(version))
	if err != nil {
		return false, nil
	}
	return spec.Check(parsed), nil
}
