package adapters

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// PolicyFileAdapter loads compatibility lists from a YAML document of the
// form:
//
//	compatible: [AviRockets]
//	incompatible: [Redox.Unturned]
//	legacy:
//	  - name: Rocket.Unturned
//	    migration_url: https://...
type PolicyFileAdapter struct {
	fs afero.Fs
}

func NewPolicyFileAdapter(fs afero.Fs) PolicyFileAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return PolicyFileAdapter{fs: fs}
}

func (a PolicyFileAdapter) LoadPolicy(path string) (types.CompatibilityLists, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return types.CompatibilityLists{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("policy file not found").
			WithCause(err)
	}
	var lists types.CompatibilityLists
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return types.CompatibilityLists{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse policy yaml").
			WithCause(err)
	}
	for i, legacy := range lists.Legacy {
		if strings.TrimSpace(legacy.Name) == "" || strings.TrimSpace(legacy.MigrationURL) == "" {
			return types.CompatibilityLists{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("legacy entry %d needs name and migration_url", i))
		}
	}
	return lists, nil
}

var _ ports.PolicyFilePort = PolicyFileAdapter{}
