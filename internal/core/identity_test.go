package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"moduleshim/internal/types"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		identity types.ModuleIdentity
		version  string
	}{
		{
			name:     "full name",
			input:    "Acme.Json, Version=13.0.1.0, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed",
			identity: "Acme.Json, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed",
			version:  "13.0.1.0",
		},
		{
			name:     "bare name",
			input:    "Acme.Json",
			identity: "Acme.Json",
			version:  "",
		},
		{
			name:     "version only",
			input:    "Foo, Version=2.3",
			identity: "Foo",
			version:  "2.3",
		},
		{
			name:     "lowercase version key",
			input:    "Foo, version=1.0, Culture=neutral",
			identity: "Foo, Culture=neutral",
			version:  "1.0",
		},
		{
			name:     "extra whitespace",
			input:    "  Foo ,  Version = 1.2 ,Culture=neutral ",
			identity: "Foo, Culture=neutral",
			version:  "1.2",
		},
		{
			name:     "malformed version kept verbatim",
			input:    "Foo, Version=banana",
			identity: "Foo",
			version:  "banana",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, version := NormalizeName(tc.input)
			assert.Equal(t, tc.identity, identity)
			assert.Equal(t, tc.version, version)
		})
	}
}

func TestNormalizeNameSameIdentityAcrossVersions(t *testing.T) {
	a, _ := NormalizeName("Foo, Version=1.0, Culture=neutral, PublicKeyToken=null")
	b, _ := NormalizeName("Foo, Version=2.3, Culture=neutral, PublicKeyToken=null")
	assert.Equal(t, a, b)
}

func TestNormalizeNameIsCaseSensitive(t *testing.T) {
	a, _ := NormalizeName("Foo, Version=1.0")
	b, _ := NormalizeName("foo, Version=1.0")
	assert.NotEqual(t, a, b)
}

func TestIdentityName(t *testing.T) {
	assert.Equal(t, "Foo", IdentityName("Foo, Culture=neutral"))
	assert.Equal(t, "Foo", IdentityName("Foo"))
}
