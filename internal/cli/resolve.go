package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
)

func newResolveCommand(shimOpts *shimOptions) *cobra.Command {
	opts := loadOptions{}
	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Initialize the shim and resolve fully qualified module names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cmd, *shimOpts, opts, args)
		},
	}
	addLoadFlags(cmd, &opts)
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, shimOpts shimOptions, opts loadOptions, names []string) error {
	shim, host, err := newShim(ctx, cmd, shimOpts)
	if err != nil {
		return err
	}
	session, err := startSession(ctx, shim, opts)
	if err != nil {
		return err
	}
	defer session.end(ctx)

	out := cmd.OutOrStdout()
	var unresolved []string
	for _, name := range names {
		module, ok := host.Resolve(ctx, name)
		if !ok {
			unresolved = append(unresolved, name)
			fmt.Fprintf(out, "%s\t<unresolved>\n", name)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", name, module.FullName, module.Path)
	}
	if err := session.writeMetrics(); err != nil {
		return err
	}
	if len(unresolved) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unresolved modules: %s", strings.Join(unresolved, "; ")))
	}
	return nil
}
