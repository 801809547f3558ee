package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// Scanner is the startup gate that inspects sibling installed modules for
// known conflicts.
type Scanner struct {
	Fs       afero.Fs
	Policy   ports.CompatibilityPolicyPort
	Reporter ports.ScanReporterPort
}

func NewScanner(fs afero.Fs, policy ports.CompatibilityPolicyPort, reporter ports.ScanReporterPort) Scanner {
	return Scanner{Fs: fs, Policy: policy, Reporter: reporter}
}

// Scan classifies every subdirectory of installRoot in name order. The
// first incompatible entry is reported and ends the scan with
// DecisionAbort; unknown entries are reported as warnings.
func (s Scanner) Scan(ctx context.Context, installRoot string, selfName string) (types.ScanResult, error) {
	if s.Fs == nil || s.Policy == nil {
		return types.ScanResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("scanner requires filesystem and policy")
	}
	entries, err := afero.ReadDir(s.Fs, installRoot)
	if err != nil {
		return types.ScanResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("install root not readable: %s", installRoot)).
			WithCause(err)
	}

	result := types.ScanResult{Decision: types.DecisionProceed}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		classification := s.Policy.Classify(name, selfName)
		result.Entries = append(result.Entries, types.ClassifiedEntry{
			Name:           name,
			Classification: classification,
		})

		switch classification {
		case types.ClassificationIncompatible:
			url, _ := s.Policy.MigrationURL(name)
			if s.Reporter != nil {
				s.Reporter.Incompatible(name, url)
			}
			log.Ctx(ctx).Error().Str("module", name).Msg("incompatible module detected")
			result.Decision = types.DecisionAbort
			result.Offender = name
			return result, nil
		case types.ClassificationUnknown:
			if s.Reporter != nil {
				s.Reporter.Unknown(name)
			}
			log.Ctx(ctx).Warn().Str("module", name).Msg("unknown module detected")
		}
	}
	return result, nil
}
