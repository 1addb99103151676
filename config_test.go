package tenmactl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "tenmactl.yml"))
	require.NoError(t, err)

	assert.True(t, c.Debug)
	assert.Equal(t, "/dev/ttyACM0", c.Port)
	assert.Equal(t, "72-2550", c.Model)
	assert.Equal(t, "/tmp/tenmactl.tlog", c.Capture)
	assert.Equal(t, 250*time.Millisecond, c.SettleDelay.Duration)
	assert.Equal(t, 1, c.Monitor.Channel)
	assert.Equal(t, time.Second, c.Monitor.Interval.Duration)

	memories := c.SortedMemories()
	require.Len(t, memories, 3)

	assert.Equal(t, 1, memories[0].Slot)
	assert.Equal(t, "3.3V logic", memories[0].Label)
	assert.Equal(t, 1, memories[0].Channel)
	assert.Equal(t, 3300, memories[0].Millivolts)
	assert.Equal(t, 500, memories[0].Milliamps)

	assert.Equal(t, 2, memories[1].Slot)
	assert.Equal(t, 5000, memories[1].Millivolts)
	assert.Equal(t, 1500, memories[1].Milliamps)

	m, ok := c.Memory(5)
	require.True(t, ok)
	assert.Equal(t, "m5", m.Label)
	assert.Equal(t, 12000, m.Millivolts)
	assert.Equal(t, 2000, m.Milliamps)

	_, ok = c.Memory(3)
	assert.False(t, ok)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenmactl.yml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 200*time.Millisecond, c.SettleDelay.Duration)
	assert.Equal(t, 500*time.Millisecond, c.Monitor.Interval.Duration)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		err    string
	}{
		{
			name:   "settle delay too short",
			config: "settle_delay: 50ms",
			err:    "settle_delay: must be at least 200ms",
		},
		{
			name:   "unknown model",
			config: "model: 72-0000",
			err:    `model: unknown model "72-0000"`,
		},
		{
			name:   "invalid memory name",
			config: "memories:\n  mem1:\n    voltage: 1V\n    current: 1A",
			err:    "mem1: invalid name",
		},
		{
			name:   "memory out of range",
			config: "memories:\n  m11:\n    voltage: 1V\n    current: 1A",
			err:    "m11: invalid number range",
		},
		{
			name:   "invalid voltage",
			config: "memories:\n  m1:\n    voltage: 1A\n    current: 1A",
			err:    `m1: voltage: "1A": expected unit V`,
		},
		{
			name:   "missing current",
			config: "memories:\n  m1:\n    voltage: 1V",
			err:    `m1: current: invalid format ""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tenmactl.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o600))

			_, err := Load(path)
			assert.EqualError(t, err, tt.err)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		unit byte
		want int
	}{
		{"12V", 'V', 12000},
		{"12.5 V", 'V', 12500},
		{"3300mV", 'V', 3300},
		{"0.1A", 'A', 100},
		{"1.234A", 'A', 1234},
		{"750mA", 'A', 750},
	}

	for _, tt := range tests {
		got, err := ParseQuantity(tt.in, tt.unit)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseQuantity("-1V", 'V')
	assert.Error(t, err)
	_, err = ParseQuantity("1", 'V')
	assert.Error(t, err)
}

func TestParseMilli(t *testing.T) {
	tests := []struct {
		in   string
		unit byte
		want int
	}{
		{"12", 'V', 12000},
		{"12.5", 'V', 12500},
		{"12.5V", 'V', 12500},
		{"3300mV", 'V', 3300},
		{"0.25", 'A', 250},
		{"250mA", 'A', 250},
		{" 1A ", 'A', 1000},
		{"3.3v", 'V', 3300},
		{"-1", 'V', -1000},
	}

	for _, tt := range tests {
		got, err := ParseMilli(tt.in, tt.unit)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMilli("twelve", 'V')
	assert.Error(t, err)
	_, err = ParseMilli("1A", 'V')
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(KeyConfigDir, dir)

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tenmactl.yml"), path)
}

func TestSavePort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tenmactl.yml")

	require.NoError(t, SavePort(path, "/dev/ttyACM0"))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", c.Port)

	require.NoError(t, os.WriteFile(path, []byte("debug: true\nport: /dev/ttyACM0\n"), 0o600))
	require.NoError(t, SavePort(path, "/dev/ttyUSB1"))

	c, err = Load(path)
	require.NoError(t, err)
	assert.True(t, c.Debug)
	assert.Equal(t, "/dev/ttyUSB1", c.Port)
}

func TestDuration(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
		C Duration `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1m30s\nb: 2\nc: \"\"\n"), &v))
	assert.Equal(t, 90*time.Second, v.A.Duration)
	assert.Equal(t, 2*time.Second, v.B.Duration)
	assert.Zero(t, v.C.Duration)

	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"250ms"`)))
	assert.Equal(t, 250*time.Millisecond, d.Duration)
	require.NoError(t, d.UnmarshalJSON([]byte(`3`)))
	assert.Equal(t, 3*time.Second, d.Duration)

	p, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"3s"`, string(p))
}
