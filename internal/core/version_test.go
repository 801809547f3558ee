package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ModuleVersion
// ---------------------------------------------------------------------------

func TestParseModuleVersion(t *testing.T) {
	v := ParseModuleVersion("13.0.1.0")
	assert.True(t, v.Versioned())
	assert.Equal(t, "13.0.1.0", v.String())
}

func TestParseModuleVersionEmpty(t *testing.T) {
	v := ParseModuleVersion("  ")
	assert.False(t, v.Versioned())
	assert.Equal(t, "", v.String())
}

func TestParseModuleVersionMalformed(t *testing.T) {
	v := ParseModuleVersion("banana")
	assert.False(t, v.Versioned())
	assert.Equal(t, "banana", v.String())
}

func TestModuleVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "2.0", -1},
		{"2.3", "2.1", 1},
		{"2.10", "2.3", 1},
		{"1.0.0.0", "1.0.0.0", 0},
		{"1.0.0.1", "1.0.0.0", 1},
		{"", "0.0.1", -1},
		{"0.0.1", "banana", 1},
		{"", "banana", 0},
	}
	for _, tc := range tests {
		got := ParseModuleVersion(tc.a).Compare(ParseModuleVersion(tc.b))
		assert.Equal(t, tc.want, got, "compare(%q, %q)", tc.a, tc.b)
	}
}

func TestVersionCacheMemoizes(t *testing.T) {
	cache := newVersionCache()
	first := cache.version("1.2.3")
	second := cache.version("1.2.3")
	assert.Equal(t, first, second)
	assert.Len(t, cache.parsed, 1)
	assert.Equal(t, -1, cache.compare("1.2.3", "1.10.0"))
}

// ---------------------------------------------------------------------------
// VersionInRange
// ---------------------------------------------------------------------------

func TestVersionInRange(t *testing.T) {
	ok, err := VersionInRange("7.0.0.0", ">=7,<8")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VersionInRange("13.0.1.0", ">=7,<8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionInRangeUnparsableVersion(t *testing.T) {
	ok, err := VersionInRange("not-a-version!!!", ">=7,<8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionInRangeInvalidSpecifier(t *testing.T) {
	_, err := VersionInRange("7.0", ">>invalid<<")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version range")
}
