package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"moduleshim/internal/adapters"
	"moduleshim/internal/app"
)

type loadOptions struct {
	DynamicLoad bool
	MetricsFile string
}

func newLoadCommand(shimOpts *shimOptions) *cobra.Command {
	opts := loadOptions{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Initialize the shim and list the loaded modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd.Context(), cmd, *shimOpts, opts)
		},
	}
	addLoadFlags(cmd, &opts)
	return cmd
}

func addLoadFlags(cmd *cobra.Command, opts *loadOptions) {
	cmd.Flags().BoolVar(&opts.DynamicLoad, "dynamic", false, "Initialize as a dynamic load (no TLS shim, no resolver)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write resolver metrics in Prometheus text format to this file")
}

func runLoad(ctx context.Context, cmd *cobra.Command, shimOpts shimOptions, opts loadOptions) error {
	shim, _, err := newShim(ctx, cmd, shimOpts)
	if err != nil {
		return err
	}
	session, err := startSession(ctx, shim, opts)
	if err != nil {
		return err
	}
	defer session.end(ctx)

	out := cmd.OutOrStdout()
	for _, module := range shim.Modules() {
		version := module.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", module.Identity, version, module.Path)
	}
	return session.writeMetrics()
}

// session is one Initialize/Shutdown cycle run by a command.
type session struct {
	shim        *app.Shim
	registry    *prometheus.Registry
	metricsFile string
}

func startSession(ctx context.Context, shim *app.Shim, opts loadOptions) (*session, error) {
	s := &session{shim: shim, metricsFile: strings.TrimSpace(opts.MetricsFile)}
	if s.metricsFile != "" {
		s.registry = prometheus.NewRegistry()
		shim.Observer = adapters.NewPrometheusResolverObserver(s.registry)
	}
	ok, err := shim.Initialize(ctx, app.InitializeRequest{IsDynamicLoad: opts.DynamicLoad})
	if err != nil {
		s.end(ctx)
		return nil, err
	}
	if !ok {
		s.end(ctx)
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("incompatible module detected: initialization aborted")
	}
	shim.OnPostInitialize(ctx)
	return s, nil
}

func (s *session) end(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	_ = s.shim.Shutdown(ctx)
	_ = s.shim.Close(ctx)
}

func (s *session) writeMetrics() error {
	if s.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics file").
			WithCause(err)
	}
	return nil
}
