package plot

import (
	"testing"
	"time"

	"github.com/mdouchement/tenmactl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readings() []tenmactl.Reading {
	origin := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	return []tenmactl.Reading{
		{
			SampledAt: origin,
			Samples: []tenmactl.Sample{
				{Channel: 2, Voltage: 5, Current: tenmactl.ToPtr(0.5)},
				{Channel: 3, Voltage: 3.3},
			},
		},
		{
			SampledAt: origin.Add(500 * time.Millisecond),
			Samples: []tenmactl.Sample{
				{Channel: 2, Voltage: 5.01, Current: tenmactl.ToPtr(0.49)},
				{Channel: 3, Voltage: 3.31},
			},
		},
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"0.0", "0.5"}, labels(readings()))
}

func TestSeries(t *testing.T) {
	voltage := series(readings(), func(s tenmactl.Sample) (float64, bool) {
		return s.Voltage, true
	})
	require.Len(t, voltage, 2)
	assert.Equal(t, "CH2", voltage[0].Name)
	assert.Equal(t, []float64{5, 5.01}, voltage[0].Values)
	assert.Equal(t, "CH3", voltage[1].Name)
	assert.Equal(t, []float64{3.3, 3.31}, voltage[1].Values)

	current := series(readings(), func(s tenmactl.Sample) (float64, bool) {
		if s.Current == nil {
			return 0, false
		}
		return *s.Current, true
	})
	require.Len(t, current, 1)
	assert.Equal(t, "CH2", current[0].Name)
	assert.Equal(t, []float64{0.5, 0.49}, current[0].Values)
}

func TestRender(t *testing.T) {
	set := series(readings(), func(s tenmactl.Sample) (float64, bool) {
		return s.Voltage, true
	})

	b, err := render("72-13330 Voltage", "V", labels(readings()), set, 400)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), b[:4])
}
