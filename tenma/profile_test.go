package tenma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		slots    int
		ma       int
		mv       int
		eol      string
	}{
		{"72-2540", 1, 5, 5000, 30000, ""},
		{"72-2535", 1, 5, 3000, 30000, ""},
		{"72-2545", 1, 5, 2000, 60000, ""},
		{"72-2550", 1, 5, 3000, 60000, ""},
		{"72-2930", 1, 5, 10000, 30000, ""},
		{"72-2705", 1, 5, 3100, 31000, ""},
		{"72-2940", 1, 5, 5000, 60000, ""},
		{"72-13330", 3, 0, 5000, 30000, "\n"},
		{"72-13320", 3, 0, 3000, 30000, "\n"},
	}

	require.Len(t, Profiles, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profiles[i]
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.channels, p.Channels)
			assert.Equal(t, tt.slots, p.ConfigSlots)
			assert.Equal(t, tt.ma, p.MaxMilliamps)
			assert.Equal(t, tt.mv, p.MaxMillivolts)
			assert.Equal(t, tt.eol, p.EOL)
		})
	}
}

func TestCapabilities(t *testing.T) {
	base := DefaultProfile()
	assert.True(t, base.Supports(CapOCP|CapOVP|CapBeep))
	assert.False(t, base.Supports(CapLock))
	assert.False(t, base.Supports(CapOCP|CapLock))
	assert.Equal(t, "ocp, ovp, beep", base.Capabilities.String())

	triple, ok := Lookup("72-13320")
	require.True(t, ok)
	assert.False(t, triple.Supports(CapOCP))
	assert.True(t, triple.Supports(CapTracking|CapAutoStep|CapManualStep|CapChannelOutput))
}

func TestMatch(t *testing.T) {
	p, ok := Match("KORADKA6003PV2.0")
	require.True(t, ok)
	assert.Equal(t, "72-2550", p.Name)

	_, ok = Match("")
	assert.False(t, ok)

	_, ok = Match("TENMA 72-9999")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("72-13330")
	require.True(t, ok)
	assert.Equal(t, StatusLayoutTriple, p.Status)

	_, ok = Lookup("KORADKA6003P")
	assert.False(t, ok)

	assert.Equal(t, DefaultProfileName, DefaultProfile().Name)
}

func TestRule(t *testing.T) {
	p, _ := Lookup("72-13330")

	r, ok := p.Rule(3)
	require.True(t, ok)
	assert.Equal(t, []int{2500, 3300, 5000}, r.Voltages)
	assert.True(t, r.NoCurrentReadback)

	_, ok = p.Rule(1)
	assert.False(t, ok)
}

func TestDecimal(t *testing.T) {
	tests := map[int]string{
		5000:  "5.0",
		1500:  "1.5",
		50:    "0.05",
		12345: "12.345",
		0:     "0.0",
	}

	for milli, want := range tests {
		assert.Equal(t, want, decimal(milli), milli)
	}

	assert.Equal(t, "30.00", volts(30000))
	assert.Equal(t, "0.125", amps(125))
}
