package main

import (
	"testing"

	"github.com/mdouchement/tenmactl/tenma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwitch(t *testing.T) {
	v, err := parseSwitch("ON")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = parseSwitch("0")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = parseSwitch("maybe")
	assert.Error(t, err)
}

func TestParseTracking(t *testing.T) {
	m, err := parseTracking("series")
	require.NoError(t, err)
	assert.Equal(t, tenma.TrackingSeries, m)

	m, err = parseTracking("2")
	require.NoError(t, err)
	assert.Equal(t, tenma.TrackingParallel, m)

	_, err = parseTracking("3")
	assert.Error(t, err)
}
