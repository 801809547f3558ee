package ports

import "moduleshim/internal/types"

// CompatibilityPolicyPort classifies a sibling install directory name.
type CompatibilityPolicyPort interface {
	Classify(name string, selfName string) types.Classification
	MigrationURL(name string) (string, bool)
}

// ScanReporterPort surfaces scanner findings to the operator.
type ScanReporterPort interface {
	Incompatible(name string, migrationURL string)
	Unknown(name string)
}
