package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/metric"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

func gaugeValue(t *testing.T, reg *metric.Registry, name, labelName, labelValue string) float64 {
	t.Helper()
	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if labelName == "" {
				return m.GetGauge().GetValue()
			}
			for _, pair := range m.GetLabel() {
				if pair.GetName() == labelName && pair.GetValue() == labelValue {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s=%q} not gathered", name, labelName, labelValue)
	return 0
}

func TestRegisterRunInfo(t *testing.T) {
	reg := metric.NewRegistry()
	require.NoError(t, registerRunInfo(reg))
	assert.Equal(t, 1.0, gaugeValue(t, reg, "pydidas_cli_run_info", "version", Version))

	err := registerRunInfo(reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestRecordCatalogueSize(t *testing.T) {
	app := &appContext{
		logger:   slog.Default(),
		registry: plugin.NewRegistry(nil, slog.Default()),
	}
	reg := metric.NewRegistry()
	require.NoError(t, recordCatalogueSize(reg.Core(), app))

	metas, err := app.registry.AllOfKind(plugin.KindInput)
	require.NoError(t, err)
	assert.Equal(t, float64(len(metas)),
		gaugeValue(t, reg, "pydidas_plugins_loaded", "kind", "input"))
}

func TestParseShape(t *testing.T) {
	shape, err := parseShape("100, 256,256")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 256, 256}, shape)

	for _, arg := range []string{"", "a,b", "4,-2", "4,,5"} {
		_, err := parseShape(arg)
		assert.Error(t, err, "shape %q", arg)
	}
}
