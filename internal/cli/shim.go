package cli

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"moduleshim/internal/adapters"
	"moduleshim/internal/app"
	"moduleshim/internal/types"
)

type shimOptions struct {
	InstallRoot string
	MarkerFile  string
	PolicyFile  string
	JSONHostDir string
}

// shimConfig merges defaults, the config file, environment and flags.
func shimConfig(cmd *cobra.Command, opts shimOptions) (types.ShimConfig, error) {
	config := types.DefaultShimConfig()
	if viper.IsSet("compatibility") {
		var lists types.CompatibilityLists
		if err := viper.UnmarshalKey("compatibility", &lists); err != nil {
			return types.ShimConfig{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid compatibility config").
				WithCause(err)
		}
		config.Compatibility = lists
	}
	if policyFile := resolveString(cmd, opts.PolicyFile, "policy_file", "policy-file"); policyFile != "" {
		lists, err := adapters.NewPolicyFileAdapter(afero.NewOsFs()).LoadPolicy(policyFile)
		if err != nil {
			return types.ShimConfig{}, err
		}
		config.Compatibility = lists
	}

	config.InstallRoot = resolveString(cmd, opts.InstallRoot, "install_root", "install-root")
	if strings.TrimSpace(config.InstallRoot) == "" {
		return types.ShimConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install root is required (--install-root)")
	}
	if marker := resolveString(cmd, opts.MarkerFile, "marker_file", "marker-file"); marker != "" {
		config.MarkerFile = marker
	}
	if ext := viper.GetString("module_extension"); ext != "" {
		config.ModuleExtension = ext
	}
	config.JSONLibrary.HostDir = resolveString(cmd, opts.JSONHostDir, "json_library.host_dir", "json-host-dir")
	if replaceRange := viper.GetString("json_library.replace_range"); replaceRange != "" {
		config.JSONLibrary.ReplaceRange = replaceRange
	}
	if viper.IsSet("json_library.companions") {
		config.JSONLibrary.Companions = viper.GetStringSlice("json_library.companions")
	}
	if wait := viper.GetDuration("revocation_timeout"); wait > 0 {
		config.RevocationWait = wait
	}
	return config, nil
}

// newShim builds a shim whose banners go to the command's stderr and whose
// host is returned for direct dispatch.
func newShim(ctx context.Context, cmd *cobra.Command, opts shimOptions) (*app.Shim, *adapters.ProcessHost, error) {
	config, err := shimConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	shim := app.NewShim(ctx, config)
	host := adapters.NewProcessHost()
	shim.Host = host
	shim.Reporter = adapters.NewConsoleScanReporter(cmd.ErrOrStderr(), "moduleshim")
	return shim, host, nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if flagChanged(cmd, flagName) {
		return value
	}
	if fromConfig := viper.GetString(key); fromConfig != "" {
		return fromConfig
	}
	return value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.InheritedFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
