package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"moduleshim/internal/adapters"
	"moduleshim/internal/app"
)

func newIdentityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identity FILE...",
		Short: "Print the identity and version of module files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentity(cmd.Context(), cmd, args)
		},
	}
}

func runIdentity(ctx context.Context, cmd *cobra.Command, paths []string) error {
	reader := adapters.NewWasmModuleReader(ctx)
	defer func() { _ = reader.Close(context.WithoutCancel(ctx)) }()
	shim := &app.Shim{Fs: afero.NewOsFs(), Reader: reader}

	results, err := shim.Identify(ctx, paths)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, result := range results {
		version := result.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", result.Path, result.Identity, version)
	}
	return nil
}
