package app

import "moduleshim/internal/types"

type InitializeRequest struct {
	// IsDynamicLoad is set when the host loads the shim after startup; the
	// TLS shim and the resolver are then left alone.
	IsDynamicLoad bool
}

type CheckResult struct {
	OwnDirectory string
	Scan         types.ScanResult
}

type IdentifyResult struct {
	Path     string
	Identity types.ModuleIdentity
	Version  string
	FullName string
}
