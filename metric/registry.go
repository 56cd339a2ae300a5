package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Registrar defines the interface for registering component-specific metrics.
type Registrar interface {
	RegisterCollector(component, metricName string, collector prometheus.Collector) error
	Unregister(component, metricName string) bool
}

// Registry manages the registration and lifecycle of metrics. Core metrics
// and Go runtime collectors are registered on construction; components add
// their own collectors under a component-qualified key so a metric name can
// only ever be claimed once.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	core               *Metrics
	registered         map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a metrics registry with the core metrics installed.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		core:               NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(
		r.core.RunsTotal,
		r.core.FramesProcessed,
		r.core.FrameDuration,
		r.core.FrameRetries,
		r.core.WorkersActive,
		r.core.PluginsLoaded,
	)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Core returns the core processing metrics.
func (r *Registry) Core() *Metrics {
	return r.core
}

// RegisterCollector registers a component-specific collector. Registering the
// same component/metric pair twice, or a collector Prometheus considers a
// duplicate, is a configuration error.
func (r *Registry) RegisterCollector(component, metricName string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", component, metricName)
	if _, exists := r.registered[key]; exists {
		return errors.WrapConfig(
			fmt.Errorf("metric %s already registered for component %s: %w",
				metricName, component, errors.ErrInvalidConfig),
			"Registry", "RegisterCollector", "duplicate registration check")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegistered) {
			return errors.WrapConfig(err, "Registry", "RegisterCollector",
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapStructural(err, "Registry", "RegisterCollector", "prometheus registration")
	}

	r.registered[key] = collector
	return nil
}

// Unregister removes a component-specific collector. It reports whether the
// metric was registered.
func (r *Registry) Unregister(component, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", component, metricName)
	collector, exists := r.registered[key]
	if !exists {
		return false
	}
	r.prometheusRegistry.Unregister(collector)
	delete(r.registered, key)
	return true
}
