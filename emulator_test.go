package tenmactl

import (
	"testing"
	"time"

	"github.com/mdouchement/tenmactl/tenma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emulated(t *testing.T, model string) (*Emulator, *tenma.PowerSupply) {
	t.Helper()

	p, ok := tenma.Lookup(model)
	require.True(t, ok)

	e := NewEmulator(p)
	ps, err := tenma.Detect(e.Port(), e, tenma.WithSettleDelay(0), tenma.WithOpener(e.Open))
	require.NoError(t, err)
	return e, ps
}

func TestEmulatorDetect(t *testing.T) {
	for _, p := range tenma.Profiles {
		t.Run(p.Name, func(t *testing.T) {
			_, ps := emulated(t, p.Name)
			assert.Equal(t, p.Name, ps.Profile().Name)
			assert.False(t, ps.Identification().Inconclusive)
		})
	}
}

func TestEmulatorSetAndRead(t *testing.T) {
	e, ps := emulated(t, "72-2550")

	v, err := ps.SetVoltage(1, 12000)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	a, err := ps.SetCurrent(1, 2500)
	require.NoError(t, err)
	assert.Equal(t, 2.5, a)

	mv, ma := e.Settings(1)
	assert.Equal(t, 12000, mv)
	assert.Equal(t, 2500, ma)

	// Output off
	v, err = ps.RunningVoltage(1)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, ps.On())
	assert.True(t, e.Output(1))

	// 12V on 10 ohms
	v, err = ps.RunningVoltage(1)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)
	a, err = ps.RunningCurrent(1)
	require.NoError(t, err)
	assert.Equal(t, 1.2, a)

	m, err := ps.Status()
	require.NoError(t, err)
	assert.True(t, m.Output1)
	assert.Equal(t, tenma.ConstantVoltage, m.Channel1)
	require.NotNil(t, m.Beep)
	assert.True(t, *m.Beep)
}

func TestEmulatorConstantCurrent(t *testing.T) {
	e, ps := emulated(t, "72-2540")
	e.SetLoad(2)

	_, err := ps.SetVoltage(1, 10000)
	require.NoError(t, err)
	_, err = ps.SetCurrent(1, 1000)
	require.NoError(t, err)
	require.NoError(t, ps.On())

	v, err := ps.RunningVoltage(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	m, err := ps.Status()
	require.NoError(t, err)
	assert.Equal(t, tenma.ConstantCurrent, m.Channel1)
}

func TestEmulatorStrayCurrentByte(t *testing.T) {
	e, _ := emulated(t, "72-2550")
	e.SetIdentity("KORADKA6003PV2.0")

	_, err := e.Write([]byte("ISET1?"))
	require.NoError(t, err)
	reply, err := e.ReadAvailable()
	require.NoError(t, err)
	assert.Equal(t, "1.000K", string(reply))

	p, _ := tenma.Lookup("72-2550")
	ps := tenma.New(e.Port(), e, p, tenma.WithSettleDelay(0))
	a, err := ps.Current(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a)
}

func TestEmulatorSaveConfFlow(t *testing.T) {
	e, ps := emulated(t, "72-2545")

	_, err := ps.SetVoltage(1, 5000)
	require.NoError(t, err)
	_, err = ps.SetCurrent(1, 500)
	require.NoError(t, err)
	require.NoError(t, ps.On())

	require.NoError(t, ps.SaveConfFlow(3, 1))
	assert.False(t, e.Output(1))

	mv, ma, ok := e.Slot(3)
	require.True(t, ok)
	assert.Equal(t, 5000, mv)
	assert.Equal(t, 500, ma)

	_, err = ps.SetVoltage(1, 1000)
	require.NoError(t, err)
	require.NoError(t, ps.RecallConf(3))

	v, err := ps.Voltage(1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestEmulatorTriple(t *testing.T) {
	e, ps := emulated(t, "72-13330")

	_, err := ps.SetVoltage(2, 15000)
	require.NoError(t, err)
	_, err = ps.SetVoltage(3, 3300)
	require.NoError(t, err)

	require.NoError(t, ps.OnChannel(2))
	assert.False(t, e.Output(1))
	assert.True(t, e.Output(2))

	m, err := ps.Status()
	require.NoError(t, err)
	assert.False(t, m.Output1)
	require.NotNil(t, m.Output2)
	assert.True(t, *m.Output2)
	assert.Nil(t, m.Beep)

	require.NoError(t, ps.On())
	assert.True(t, e.Output(1))
	assert.True(t, e.Output(3))

	require.NoError(t, ps.SetTracking(tenma.TrackingSeries))
	m, err = ps.Status()
	require.NoError(t, err)
	assert.Equal(t, tenma.TrackingSeries, m.Tracking)
}

func TestEmulatorAutoStep(t *testing.T) {
	e, ps := emulated(t, "72-13320")

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return now })

	require.NoError(t, ps.StartAutoVoltageStep(1, 1000, 3000, 500, 2))

	v, err := ps.Voltage(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	now = now.Add(5 * time.Second)
	v, err = ps.Voltage(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	require.NoError(t, ps.StopAutoVoltageStep(1))
	now = now.Add(time.Minute)

	mv, _ := e.Settings(1)
	assert.Equal(t, 2000, mv)
}

func TestEmulatorManualStep(t *testing.T) {
	e, ps := emulated(t, "72-13330")

	_, err := ps.SetVoltage(1, 5000)
	require.NoError(t, err)
	require.NoError(t, ps.SetManualVoltageStep(1, 250))
	require.NoError(t, ps.StepVoltageUp(1))
	require.NoError(t, ps.StepVoltageUp(1))
	require.NoError(t, ps.StepVoltageDown(1))

	mv, _ := e.Settings(1)
	assert.Equal(t, 5250, mv)

	require.NoError(t, ps.SetManualCurrentStep(1, 100))
	require.NoError(t, ps.StepCurrentDown(1))
	_, ma := e.Settings(1)
	assert.Equal(t, 900, ma)
}

func TestEmulatorSetPort(t *testing.T) {
	_, ps := emulated(t, "72-2545")

	require.NoError(t, ps.SetPort("x-testing"))
	_, err := ps.SetVoltage(1, 1000)
	require.NoError(t, err)

	require.NoError(t, ps.Close())
	_, err = ps.Voltage(1)
	assert.ErrorIs(t, err, tenma.ErrTransport)
}
