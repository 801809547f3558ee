package types

import "time"

// LegacyModule is a known predecessor module that cannot coexist with the
// shim and has a documented migration path.
type LegacyModule struct {
	Name         string `yaml:"name" mapstructure:"name"`
	MigrationURL string `yaml:"migration_url" mapstructure:"migration_url"`
}

type CompatibilityLists struct {
	Compatible   []string       `yaml:"compatible" mapstructure:"compatible"`
	Incompatible []string       `yaml:"incompatible" mapstructure:"incompatible"`
	Legacy       []LegacyModule `yaml:"legacy" mapstructure:"legacy"`
}

type JSONLibraryConfig struct {
	FileName     string   `yaml:"file_name" mapstructure:"file_name"`
	HostDir      string   `yaml:"host_dir" mapstructure:"host_dir"`
	ReplaceRange string   `yaml:"replace_range" mapstructure:"replace_range"`
	Companions   []string `yaml:"companions" mapstructure:"companions"`
}

type ShimConfig struct {
	InstallRoot     string             `mapstructure:"install_root"`
	MarkerFile      string             `mapstructure:"marker_file"`
	ModuleExtension string             `mapstructure:"module_extension"`
	Compatibility   CompatibilityLists `mapstructure:"compatibility"`
	JSONLibrary     JSONLibraryConfig  `mapstructure:"json_library"`
	RevocationWait  time.Duration      `mapstructure:"revocation_timeout"`
}

const (
	DefaultMarkerFile      = "moduleshim.module"
	DefaultModuleExtension = ".wasm"
	DefaultJSONLibrary     = "Newtonsoft.Json.wasm"
	DefaultReplaceRange    = ">=7,<8"
	DefaultRevocationWait  = time.Minute
)

// DefaultShimConfig returns the built-in compatibility lists and staging
// settings used when no config file overrides them.
func DefaultShimConfig() ShimConfig {
	return ShimConfig{
		MarkerFile:      DefaultMarkerFile,
		ModuleExtension: DefaultModuleExtension,
		Compatibility: CompatibilityLists{
			Compatible:   []string{"AviRockets", "Rocket.Unturned"},
			Incompatible: []string{"Redox.Unturned"},
			Legacy: []LegacyModule{{
				Name:         "Rocket.Unturned",
				MigrationURL: "https://openmod.github.io/openmod-docs/user-guide/migration/rocketmod/",
			}},
		},
		JSONLibrary: JSONLibraryConfig{
			FileName:     DefaultJSONLibrary,
			ReplaceRange: DefaultReplaceRange,
			Companions:   []string{"System.Runtime.Serialization.wasm", "System.Xml.Linq.wasm"},
		},
		RevocationWait: DefaultRevocationWait,
	}
}
