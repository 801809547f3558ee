package policies

import (
	"strings"

	"moduleshim/internal/ports"
	"moduleshim/internal/shared"
	"moduleshim/internal/types"
)

// CompatibilityPolicy classifies sibling install directories against the
// compatible and incompatible name lists. Names match case-insensitively;
// an entry ending in "*" matches by prefix. The compatible list takes
// precedence over the incompatible list.
type CompatibilityPolicy struct {
	compatible   nameMatcher
	incompatible nameMatcher
	migrations   map[string]string
}

type nameMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewCompatibilityPolicy(lists types.CompatibilityLists) CompatibilityPolicy {
	policy := CompatibilityPolicy{
		compatible:   compileMatcher(lists.Compatible),
		incompatible: compileMatcher(lists.Incompatible),
		migrations:   map[string]string{},
	}
	for _, legacy := range lists.Legacy {
		name := shared.FoldName(legacy.Name)
		url := strings.TrimSpace(legacy.MigrationURL)
		if name == "" || url == "" {
			continue
		}
		policy.migrations[name] = url
	}
	return policy
}

func (p CompatibilityPolicy) Classify(name string, selfName string) types.Classification {
	normalized := shared.FoldName(name)
	switch {
	case normalized == shared.FoldName(selfName):
		return types.ClassificationSelf
	case p.compatible.matches(normalized):
		return types.ClassificationCompatible
	case p.incompatible.matches(normalized):
		return types.ClassificationIncompatible
	default:
		return types.ClassificationUnknown
	}
}

// MigrationURL returns the migration guide for a known legacy predecessor.
func (p CompatibilityPolicy) MigrationURL(name string) (string, bool) {
	url, ok := p.migrations[shared.FoldName(name)]
	return url, ok
}

func compileMatcher(patterns []string) nameMatcher {
	matcher := nameMatcher{exact: map[string]struct{}{}}
	for _, pattern := range patterns {
		normalized := shared.FoldName(pattern)
		if normalized == "" || normalized == "*" {
			continue
		}
		if strings.HasSuffix(normalized, "*") {
			matcher.prefixes = append(matcher.prefixes, strings.TrimSuffix(normalized, "*"))
			continue
		}
		matcher.exact[normalized] = struct{}{}
	}
	return matcher
}

func (m nameMatcher) matches(normalized string) bool {
	if _, ok := m.exact[normalized]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

var _ ports.CompatibilityPolicyPort = CompatibilityPolicy{}
