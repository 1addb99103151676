package tenmactl

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/tenmactl/tenma"
)

var ErrEmulatorClosed = errors.New("emulator: port closed")

var reCommand = regexp.MustCompile(`^([A-Z*]+)(\d*)(\?)?(?::(.+))?$`)

// An Emulator mimics the firmware of a 72-XXXX unit behind a serial port.
// It should only be used for dev & tests.
type Emulator struct {
	sync     sync.Mutex
	profile  tenma.Profile
	identity string
	channels []*emulatedChannel
	slots    map[int]memorySlot
	beep     bool
	lock     bool
	ocp      bool
	ovp      bool
	tracking tenma.TrackingMode
	load     float64 // ohms
	pending  []byte
	closed   bool
	now      func() time.Time
	log      logger.Logger
}

type emulatedChannel struct {
	voltage     int
	current     int
	output      bool
	voltageStep int
	currentStep int
	voltageRamp *activeRamp
	currentRamp *activeRamp
}

type activeRamp struct {
	Ramp
	startedAt time.Time
}

type memorySlot struct {
	voltage int
	current int
}

func NewEmulator(p tenma.Profile) *Emulator {
	e := &Emulator{
		profile:  p,
		identity: fmt.Sprintf("TENMA %s V2.0", p.Name),
		slots:    make(map[int]memorySlot),
		beep:     true,
		load:     10,
		now:      time.Now,
	}

	for ch := 1; ch <= p.Channels; ch++ {
		c := &emulatedChannel{
			current:     min(1000, p.MaxMilliamps),
			voltageStep: 100,
			currentStep: 10,
		}
		if r, ok := p.Rule(ch); ok && len(r.Voltages) > 0 {
			c.voltage = r.Voltages[0]
		}
		e.channels = append(e.channels, c)
	}

	return e
}

func (e *Emulator) SetLogger(l logger.Logger) {
	e.log = l
}

// SetIdentity overrides the *IDN? reply.
func (e *Emulator) SetIdentity(identity string) {
	e.sync.Lock()
	defer e.sync.Unlock()

	e.identity = identity
}

// SetLoad sets the resistance wired on the outputs, zero meaning no load.
func (e *Emulator) SetLoad(ohms float64) {
	e.sync.Lock()
	defer e.sync.Unlock()

	e.load = ohms
}

// SetClock replaces the clock driving auto-steps.
func (e *Emulator) SetClock(now func() time.Time) {
	e.sync.Lock()
	defer e.sync.Unlock()

	e.now = now
}

func (e *Emulator) Port() string {
	return "x-testing"
}

// Open reopens the emulator, it satisfies tenma.Opener.
func (e *Emulator) Open(string) (tenma.Transport, error) {
	e.sync.Lock()
	defer e.sync.Unlock()

	e.closed = false
	e.pending = nil
	return e, nil
}

func (e *Emulator) Close() error {
	e.sync.Lock()
	defer e.sync.Unlock()

	e.closed = true
	return nil
}

// Settings returns the voltage and current settings of the channel in milli-units.
func (e *Emulator) Settings(channel int) (mv, ma int) {
	e.sync.Lock()
	defer e.sync.Unlock()

	c := e.channel(channel)
	if c == nil {
		return 0, 0
	}
	return e.settings(c)
}

func (e *Emulator) Output(channel int) bool {
	e.sync.Lock()
	defer e.sync.Unlock()

	c := e.channel(channel)
	return c != nil && c.output
}

// Slot returns the settings stored in a memory slot.
func (e *Emulator) Slot(slot int) (mv, ma int, ok bool) {
	e.sync.Lock()
	defer e.sync.Unlock()

	m, ok := e.slots[slot]
	return m.voltage, m.current, ok
}

func (e *Emulator) Write(p []byte) (int, error) {
	e.sync.Lock()
	defer e.sync.Unlock()

	if e.closed {
		return 0, ErrEmulatorClosed
	}

	raw := string(p)
	command := strings.TrimSuffix(raw, "\n")
	if e.log != nil {
		e.log.Debugf("emulator: %s", command)
	}

	reply := e.handle(command, len(command) != len(raw))
	if reply != "" {
		e.pending = append(e.pending, reply...)
		e.pending = append(e.pending, e.profile.EOL...)
	}

	return len(p), nil
}

func (e *Emulator) ReadAvailable() ([]byte, error) {
	e.sync.Lock()
	defer e.sync.Unlock()

	if e.closed {
		return nil, ErrEmulatorClosed
	}

	reply := e.pending
	e.pending = nil
	return reply, nil
}

//
// Firmware
//

func (e *Emulator) handle(command string, terminated bool) string {
	match := reCommand.FindStringSubmatch(command)
	if match == nil {
		if e.log != nil {
			e.log.Warnf("emulator: unknown command %s", strconv.Quote(command))
		}
		return ""
	}

	name, digits, query, arg := match[1], match[2], match[3] == "?", match[4]
	n, _ := strconv.Atoi(digits)
	c := e.channel(n)

	switch name {
	case "*IDN":
		if e.profile.EOL != tenma.EOLNone && !terminated {
			// The 3-channel firmware ignores unterminated queries.
			return ""
		}
		return e.identity
	case "STATUS":
		return string([]byte{e.status()})
	case tenma.CommandVoltageSet:
		if c == nil {
			return ""
		}
		if query {
			mv, _ := e.settings(c)
			return fmt.Sprintf("%05.2f", float64(mv)/1000)
		}
		if mv, ok := e.parse(arg, e.profile.MaxMillivolts); ok && e.allowed(n, mv) {
			c.voltage = mv
			c.voltageRamp = nil
		}
	case tenma.CommandCurrentSet:
		if c == nil {
			return ""
		}
		if query {
			_, ma := e.settings(c)
			return e.amps(ma)
		}
		if ma, ok := e.parse(arg, e.profile.MaxMilliamps); ok {
			c.current = ma
			c.currentRamp = nil
		}
	case tenma.CommandVoltageOut:
		if c == nil || !query {
			return ""
		}
		mv, _, _ := e.running(c)
		return fmt.Sprintf("%05.2f", float64(mv)/1000)
	case tenma.CommandCurrentOut:
		if c == nil || !query {
			return ""
		}
		_, ma, _ := e.running(c)
		return fmt.Sprintf("%.3f", float64(ma)/1000)
	case tenma.CommandOutput:
		e.output(digits, arg)
	case tenma.CommandSave:
		if c := e.channel(1); c != nil && n > 0 {
			mv, ma := e.settings(c)
			e.slots[n] = memorySlot{voltage: mv, current: ma}
		}
	case tenma.CommandRecall:
		if m, ok := e.slots[n]; ok {
			if c := e.channel(1); c != nil {
				c.voltage, c.current = m.voltage, m.current
				c.voltageRamp, c.currentRamp = nil, nil
			}
		}
	case tenma.CommandOCP:
		e.ocp = digits == "1"
	case tenma.CommandOVP:
		e.ovp = digits == "1"
	case tenma.CommandBeep:
		e.beep = digits == "1"
	case tenma.CommandLock:
		e.lock = digits == "1"
	case tenma.CommandTrack:
		if n <= int(tenma.TrackingParallel) {
			e.tracking = tenma.TrackingMode(n)
		}
	case tenma.CommandVoltageAutoRun, tenma.CommandCurrentAutoRun:
		if c == nil {
			return ""
		}
		r, ok := e.ramp(arg)
		if !ok {
			return ""
		}
		if name == tenma.CommandVoltageAutoRun {
			c.voltageRamp = r
		} else {
			c.currentRamp = r
		}
	case tenma.CommandVoltageAutoEnd:
		if c != nil {
			c.voltage, _ = e.settings(c)
			c.voltageRamp = nil
		}
	case tenma.CommandCurrentAutoEnd:
		if c != nil {
			_, c.current = e.settings(c)
			c.currentRamp = nil
		}
	case tenma.CommandVoltageStep:
		if v, ok := e.parse(arg, e.profile.MaxMillivolts); ok && c != nil {
			c.voltageStep = v
		}
	case tenma.CommandCurrentStep:
		if v, ok := e.parse(arg, e.profile.MaxMilliamps); ok && c != nil {
			c.currentStep = v
		}
	case tenma.CommandVoltageUp, tenma.CommandVoltageDown:
		if c != nil {
			step := c.voltageStep
			if name == tenma.CommandVoltageDown {
				step = -step
			}
			mv, _ := e.settings(c)
			c.voltage = min(max(mv+step, 0), e.profile.MaxMillivolts)
			c.voltageRamp = nil
		}
	case tenma.CommandCurrentUp, tenma.CommandCurrentDown:
		if c != nil {
			step := c.currentStep
			if name == tenma.CommandCurrentDown {
				step = -step
			}
			_, ma := e.settings(c)
			c.current = min(max(ma+step, 0), e.profile.MaxMilliamps)
			c.currentRamp = nil
		}
	default:
		if e.log != nil {
			e.log.Warnf("emulator: unknown command %s", strconv.Quote(command))
		}
	}

	return ""
}

func (e *Emulator) channel(n int) *emulatedChannel {
	if n < 1 || n > len(e.channels) {
		return nil
	}
	return e.channels[n-1]
}

func (e *Emulator) output(digits, arg string) {
	enable := arg == "1"
	switch {
	case arg == "":
		// OUT0 or OUT1
		for _, c := range e.channels {
			c.output = digits == "1"
		}
	case digits == "12":
		for _, c := range e.channels {
			c.output = enable
		}
	default:
		n, _ := strconv.Atoi(digits)
		if c := e.channel(n); c != nil {
			c.output = enable
		}
	}
}

func (e *Emulator) allowed(channel, mv int) bool {
	r, ok := e.profile.Rule(channel)
	return !ok || len(r.Voltages) == 0 || slices.Contains(r.Voltages, mv)
}

func (e *Emulator) parse(arg string, limit int) (int, bool) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false
	}

	milli := int(math.Round(v * 1000))
	if milli < 0 || milli > limit {
		return 0, false
	}
	return milli, true
}

// ramp parses "{start},{stop},{step},{seconds}".
func (e *Emulator) ramp(arg string) (*activeRamp, bool) {
	fields := strings.Split(arg, ",")
	if len(fields) != 4 {
		return nil, false
	}

	var values [3]int
	for i := range values {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, false
		}
		values[i] = int(math.Round(v * 1000))
	}
	seconds, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, false
	}

	r, err := NewRamp(values[0], values[1], values[2], time.Duration(seconds)*time.Second)
	if err != nil {
		return nil, false
	}
	return &activeRamp{Ramp: r, startedAt: e.now()}, true
}

func (e *Emulator) settings(c *emulatedChannel) (mv, ma int) {
	mv, ma = c.voltage, c.current
	if c.voltageRamp != nil {
		mv = c.voltageRamp.At(e.now().Sub(c.voltageRamp.startedAt))
	}
	if c.currentRamp != nil {
		ma = c.currentRamp.At(e.now().Sub(c.currentRamp.startedAt))
	}
	return mv, ma
}

// running returns the output of the channel given the load, and whether it
// regulates the voltage (C.V) or the current (C.C).
func (e *Emulator) running(c *emulatedChannel) (mv, ma int, cv bool) {
	if !c.output {
		return 0, 0, true
	}

	mv, ma = e.settings(c)
	if e.load <= 0 {
		return mv, 0, true
	}

	demand := int(math.Round(float64(mv) / e.load)) // mV / ohm = mA
	if demand > ma {
		return int(math.Round(float64(ma) * e.load)), ma, false
	}
	return mv, demand, true
}

// amps renders a current setting, with the stray byte appended by 72-2550 firmwares.
func (e *Emulator) amps(ma int) string {
	s := fmt.Sprintf("%.3f", float64(ma)/1000)
	if e.profile.Name == "72-2550" && len(e.identity) > 5 {
		s += e.identity[5:6]
	}
	return s
}

func (e *Emulator) status() byte {
	var status byte
	if c := e.channel(1); c != nil {
		if _, _, cv := e.running(c); cv {
			status |= tenma.StatusChannel1
		}
		if c.output {
			status |= tenma.StatusOutput1
		}
	}
	if c := e.channel(2); c != nil {
		if _, _, cv := e.running(c); cv {
			status |= tenma.StatusChannel2
		}
	}

	status |= byte(e.tracking<<2) & tenma.StatusTracking

	switch e.profile.Status {
	case tenma.StatusLayoutTriple:
		if c := e.channel(2); c != nil && c.output {
			status |= tenma.StatusOutput2
		}
	default:
		if e.beep {
			status |= tenma.StatusBeep
		}
		if e.lock {
			status |= tenma.StatusLock
		}
	}

	return status
}
