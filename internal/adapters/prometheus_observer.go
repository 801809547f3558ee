package adapters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// PrometheusResolverObserver counts resolver outcomes.
type PrometheusResolverObserver struct {
	requests *prometheus.CounterVec
}

// NewPrometheusResolverObserver registers its collectors on registry, or on
// the default registerer when registry is nil.
func NewPrometheusResolverObserver(registry prometheus.Registerer) *PrometheusResolverObserver {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	return &PrometheusResolverObserver{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moduleshim",
			Subsystem: "resolver",
			Name:      "requests_total",
			Help:      "Module resolution requests by outcome.",
		}, []string{"outcome"}),
	}
}

func (o *PrometheusResolverObserver) ObserveResolve(_ types.ModuleIdentity, outcome types.ResolveOutcome) {
	o.requests.WithLabelValues(string(outcome)).Inc()
}

var _ ports.ResolverObserver = (*PrometheusResolverObserver)(nil)
