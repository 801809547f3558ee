package core

import (
	"strings"

	"moduleshim/internal/shared"
	"moduleshim/internal/types"
)

// NormalizeName splits a fully qualified module name such as
// "Acme.Json, Version=13.0.1.0, Culture=neutral, PublicKeyToken=abc" into
// its version-independent identity and the raw value of its Version token.
// The identity is compared case-sensitively.
func NormalizeName(fullName string) (types.ModuleIdentity, string) {
	identity, version := shared.SplitModuleName(fullName)
	return types.ModuleIdentity(identity), version
}

// IdentityName returns the leading simple name of an identity.
func IdentityName(identity types.ModuleIdentity) string {
	name, _, _ := strings.Cut(string(identity), ",")
	return strings.TrimSpace(name)
}
