package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	assert.Equal(t, "redox.unturned", FoldName("  Redox.Unturned "))
	assert.Equal(t, "", FoldName("   "))
}

func TestHTTPStatusError(t *testing.T) {
	err := HTTPStatusError(503, "http://ocsp.example.test")
	assert.EqualError(t, err, "status=503 url=http://ocsp.example.test")
}

func TestSplitModuleName(t *testing.T) {
	name, version := SplitModuleName("Acme.Json, Version=13.0.1.0, Culture=neutral")
	assert.Equal(t, "Acme.Json, Culture=neutral", name)
	assert.Equal(t, "13.0.1.0", version)

	name, version = SplitModuleName("Acme.Version=2, Culture=neutral")
	assert.Equal(t, "Acme.Version=2, Culture=neutral", name, "the leading token is never a Version token")
	assert.Equal(t, "", version)
}
