package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"moduleshim/internal/types"
)

func newCheckCommand(opts *shimOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Scan the install root for incompatible modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd, *opts)
		},
	}
}

func runCheck(ctx context.Context, cmd *cobra.Command, opts shimOptions) error {
	shim, _, err := newShim(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = shim.Close(context.WithoutCancel(ctx)) }()

	result, err := shim.Check(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, entry := range result.Scan.Entries {
		fmt.Fprintf(out, "%-12s %s\n", entry.Classification, entry.Name)
	}
	if result.Scan.Decision == types.DecisionAbort {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("incompatible module detected: %s", result.Scan.Offender))
	}
	fmt.Fprintf(out, "ok: %s\n", result.OwnDirectory)
	return nil
}
