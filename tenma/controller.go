package tenma

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mdouchement/logger"
)

// PowerSupply drives one unit through a Transport, bound to the Profile
// selected at connection time. The unit is the source of truth: nothing but
// the profile is kept between calls.
type PowerSupply struct {
	sync     sync.Mutex
	pname    string
	port     Transport
	open     Opener
	profile  Profile
	model    string
	ident    Identification
	settle   time.Duration
	log      logger.Logger
	recorder Recorder
}

type Option func(*PowerSupply)

func WithLogger(l logger.Logger) Option {
	return func(ps *PowerSupply) {
		ps.log = l
	}
}

func WithRecorder(r Recorder) Option {
	return func(ps *PowerSupply) {
		ps.recorder = r
	}
}

// WithOpener sets how SetPort opens a new port. It defaults to OpenSerial.
func WithOpener(o Opener) Option {
	return func(ps *PowerSupply) {
		ps.open = o
	}
}

// WithSettleDelay overrides SettleDelay. Real units need at least SettleDelay,
// shorter delays are meant for emulated transports.
func WithSettleDelay(d time.Duration) Option {
	return func(ps *PowerSupply) {
		ps.settle = d
	}
}

// WithModel skips profile matching and binds the named profile.
// The identity is still queried for display.
func WithModel(name string) Option {
	return func(ps *PowerSupply) {
		ps.model = name
	}
}

func newPowerSupply(port string, t Transport, opts []Option) *PowerSupply {
	ps := &PowerSupply{
		pname:  port,
		port:   t,
		open:   OpenSerial,
		settle: SettleDelay,
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// New binds a known profile to the transport without any I/O.
func New(port string, t Transport, p Profile, opts ...Option) *PowerSupply {
	ps := newPowerSupply(port, t, opts)
	ps.profile = p
	ps.ident = Identification{Profile: p}
	return ps
}

// Open opens the serial port and detects the model.
func Open(port string, opts ...Option) (*PowerSupply, error) {
	t, err := OpenSerial(port)
	if err != nil {
		return nil, &TransportError{Op: "open " + port, Err: err}
	}

	ps, err := Detect(port, t, opts...)
	if err != nil {
		t.Close()
		return nil, err
	}
	return ps, nil
}

// Detect queries the identity of the unit behind t and selects its profile.
// When nothing matches, DefaultProfileName is used and Identification().Warning()
// reports the inconclusive detection.
func Detect(port string, t Transport, opts ...Option) (*PowerSupply, error) {
	ps := newPowerSupply(port, t, opts)
	ident, err := ps.identify()
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}

	if ps.model != "" {
		p, ok := Lookup(ps.model)
		if !ok {
			return nil, fmt.Errorf("identify: unknown model %s", strconv.Quote(ps.model))
		}
		ident.Profile = p
		ident.Inconclusive = false
	}

	ps.profile = ident.Profile
	ps.ident = ident

	if ps.log != nil {
		if err := ident.Warning(); err != nil {
			ps.log.Warnf("%s", err)
		} else {
			ps.log.Debugf("Detected %s from %s", ident.Profile.Name, strconv.Quote(ident.Identity))
		}
	}

	return ps, nil
}

func (ps *PowerSupply) identify() (Identification, error) {
	ps.sync.Lock()
	defer ps.sync.Unlock()

	reply, err := ps.exchange(CommandIdentity, EOLNone)
	if err != nil {
		return Identification{}, err
	}

	identity := strings.TrimSpace(string(reply))
	if identity == "" {
		// Some firmwares only answer a newline terminated query.
		if ps.log != nil {
			ps.log.Debug("No version found, retrying with newline EOL")
		}

		reply, err = ps.exchange(CommandIdentity, EOLNewline)
		if err != nil {
			return Identification{}, err
		}
		identity = strings.TrimSpace(string(reply))
	}

	if p, ok := Match(identity); ok {
		return Identification{Identity: identity, Profile: p}, nil
	}

	return Identification{Identity: identity, Profile: DefaultProfile(), Inconclusive: true}, nil
}

func (ps *PowerSupply) Port() string {
	return ps.pname
}

func (ps *PowerSupply) Profile() Profile {
	return ps.profile
}

func (ps *PowerSupply) Identification() Identification {
	return ps.ident
}

// SetPort rebinds the driver to another port, closing the current one first.
// The profile is kept: the caller must know the unit is of the same model.
func (ps *PowerSupply) SetPort(port string) error {
	ps.sync.Lock()
	defer ps.sync.Unlock()

	if ps.port != nil {
		if err := ps.port.Close(); err != nil && ps.log != nil {
			ps.log.WithError(err).Errorf("Could not close %s", ps.pname)
		}
		ps.port = nil
	}

	t, err := ps.open(port)
	if err != nil {
		return &TransportError{Op: "open " + port, Err: err}
	}

	ps.port = t
	ps.pname = port
	return nil
}

func (ps *PowerSupply) Close() error {
	ps.sync.Lock()
	defer ps.sync.Unlock()

	if ps.port == nil {
		return nil
	}

	err := ps.port.Close()
	ps.port = nil
	return err
}

//
// Exchange
//

// Send writes a command, suffixed by the profile terminator, and waits for the unit to settle.
func (ps *PowerSupply) Send(command string) error {
	ps.sync.Lock()
	defer ps.sync.Unlock()

	return ps.send(command, ps.profile.EOL)
}

// Run sends a command and returns every byte the unit replied.
func (ps *PowerSupply) Run(command string) ([]byte, error) {
	ps.sync.Lock()
	defer ps.sync.Unlock()

	return ps.exchange(command, ps.profile.EOL)
}

func (ps *PowerSupply) exchange(command, eol string) ([]byte, error) {
	if err := ps.send(command, eol); err != nil {
		return nil, err
	}

	return ps.read()
}

func (ps *PowerSupply) send(command, eol string) error {
	if ps.port == nil {
		return &TransportError{Op: "write", Err: errors.New("port closed")}
	}

	payload := []byte(command + eol)
	if ps.log != nil {
		ps.log.Debugf(">> %s", command)
	}
	if ps.recorder != nil {
		ps.recorder.Sent(ps.pname, payload)
	}

	n, err := ps.port.Write(payload)
	if err != nil {
		if ps.recorder != nil {
			ps.recorder.Failed(ps.pname, err)
		}
		return &TransportError{Op: "write", Err: err}
	}
	if n != len(payload) && ps.log != nil {
		ps.log.Warnf("Invalid write: %d of %d", n, len(payload))
	}

	// Give it time to process.
	time.Sleep(ps.settle)
	return nil
}

func (ps *PowerSupply) read() ([]byte, error) {
	reply, err := ps.port.ReadAvailable()
	if err != nil {
		if ps.recorder != nil {
			ps.recorder.Failed(ps.pname, err)
		}
		return nil, &TransportError{Op: "read", Err: err}
	}

	if ps.log != nil {
		ps.log.Debugf("<< %q", reply)
	}
	if ps.recorder != nil {
		ps.recorder.Received(ps.pname, reply)
	}

	return reply, nil
}

// queryFloat parses a numeric reply, only looking at the first width characters when width > 0.
func (ps *PowerSupply) queryFloat(command string, width int) (float64, error) {
	reply, err := ps.Run(command)
	if err != nil {
		return 0, err
	}

	raw := reply
	if width > 0 && len(raw) > width {
		raw = raw[:width]
	}

	s := strings.Trim(string(raw), " \t\r\n\x00")
	if s == "" {
		return 0, &ProtocolError{Command: command, Reply: reply, Err: errors.New("empty reply")}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ProtocolError{Command: command, Reply: reply, Err: err}
	}

	return v, nil
}

func (ps *PowerSupply) require(c Capability, operation string) error {
	if !ps.profile.Supports(c) {
		return &UnsupportedError{Model: ps.profile.Name, Operation: operation}
	}
	return nil
}

func flag(enable bool) string {
	if enable {
		return "1"
	}
	return "0"
}

//
// Identity
//

// Version returns the identity string of the unit.
func (ps *PowerSupply) Version() (string, error) {
	reply, err := ps.Run(CommandIdentity)
	if err != nil {
		return "", fmt.Errorf("version: %w", err)
	}

	return strings.TrimSpace(string(reply)), nil
}

//
// Voltage & current
//

// Voltage returns the voltage setting of the channel, in volts.
func (ps *PowerSupply) Voltage(channel int) (float64, error) {
	if err := CheckChannel(ps.profile, channel); err != nil {
		return 0, fmt.Errorf("read_voltage: %w", err)
	}

	v, err := ps.queryFloat(CommandVoltageSet+strconv.Itoa(channel)+"?", 0)
	if err != nil {
		return 0, fmt.Errorf("read_voltage: %w", err)
	}
	return v, nil
}

// Current returns the current setting of the channel, in amps.
func (ps *PowerSupply) Current(channel int) (float64, error) {
	if err := ps.checkCurrentRead(channel); err != nil {
		return 0, fmt.Errorf("read_current: %w", err)
	}

	v, err := ps.queryFloat(CommandCurrentSet+strconv.Itoa(channel)+"?", ps.profile.CurrentWidth)
	if err != nil {
		return 0, fmt.Errorf("read_current: %w", err)
	}
	return v, nil
}

// RunningVoltage returns the measured output voltage of the channel, in volts.
func (ps *PowerSupply) RunningVoltage(channel int) (float64, error) {
	if err := CheckChannel(ps.profile, channel); err != nil {
		return 0, fmt.Errorf("running_voltage: %w", err)
	}

	v, err := ps.queryFloat(CommandVoltageOut+strconv.Itoa(channel)+"?", 0)
	if err != nil {
		return 0, fmt.Errorf("running_voltage: %w", err)
	}
	return v, nil
}

// RunningCurrent returns the measured output current of the channel, in amps.
func (ps *PowerSupply) RunningCurrent(channel int) (float64, error) {
	if err := ps.checkCurrentRead(channel); err != nil {
		return 0, fmt.Errorf("running_current: %w", err)
	}

	v, err := ps.queryFloat(CommandCurrentOut+strconv.Itoa(channel)+"?", 0)
	if err != nil {
		return 0, fmt.Errorf("running_current: %w", err)
	}
	return v, nil
}

// SetVoltage sets the channel voltage and reads it back.
// The returned volts are the value quantized to 2 decimals on the wire, not mv/1000.
// On a *MismatchError the unit may already run with the mismatched value.
func (ps *PowerSupply) SetVoltage(channel, mv int) (float64, error) {
	err := CheckChannel(ps.profile, channel)
	if err == nil {
		err = CheckVoltage(ps.profile, channel, mv)
	}
	if err == nil {
		err = CheckChannelVoltage(ps.profile, channel, mv)
	}
	if err != nil {
		return 0, fmt.Errorf("set_voltage: %w", err)
	}

	value := volts(mv)
	if err = ps.Send(CommandVoltageSet + strconv.Itoa(channel) + ":" + value); err != nil {
		return 0, fmt.Errorf("set_voltage: %w", err)
	}

	v, err := ps.Voltage(channel)
	if err != nil {
		return 0, fmt.Errorf("set_voltage: %w", err)
	}

	if err = verify(channel, mv, value, v, "mV"); err != nil {
		return 0, fmt.Errorf("set_voltage: %w", err)
	}
	return v, nil
}

// SetCurrent sets the channel current and reads it back.
// The returned amps are the value quantized to 3 decimals on the wire, not ma/1000.
// On a *MismatchError the unit may already run with the mismatched value.
func (ps *PowerSupply) SetCurrent(channel, ma int) (float64, error) {
	err := ps.checkCurrentRead(channel)
	if err == nil {
		err = CheckCurrent(ps.profile, channel, ma)
	}
	if err != nil {
		return 0, fmt.Errorf("set_current: %w", err)
	}

	value := amps(ma)
	if err = ps.Send(CommandCurrentSet + strconv.Itoa(channel) + ":" + value); err != nil {
		return 0, fmt.Errorf("set_current: %w", err)
	}

	v, err := ps.Current(channel)
	if err != nil {
		return 0, fmt.Errorf("set_current: %w", err)
	}

	if err = verify(channel, ma, value, v, "mA"); err != nil {
		return 0, fmt.Errorf("set_current: %w", err)
	}
	return v, nil
}

func (ps *PowerSupply) checkCurrentRead(channel int) error {
	if err := CheckChannel(ps.profile, channel); err != nil {
		return err
	}
	return CheckCurrentReadback(ps.profile, channel)
}

// verify compares at wire precision: the request as it was formatted against the read back value.
func verify(channel, requested int, sent string, read float64, unit string) error {
	want, err := strconv.ParseFloat(sent, 64)
	if err != nil {
		return err // Should never happen, sent is formatted by us
	}

	if milli(read) != milli(want) {
		return &MismatchError{
			Channel:   channel,
			Requested: requested,
			ReadBack:  milli(read),
			Unit:      unit,
		}
	}
	return nil
}

//
// Outputs & toggles
//

// On turns on the output, or all outputs on multi-output units.
func (ps *PowerSupply) On() error {
	return ps.output("on", true)
}

// Off turns off the output, or all outputs on multi-output units.
func (ps *PowerSupply) Off() error {
	return ps.output("off", false)
}

func (ps *PowerSupply) output(operation string, enable bool) error {
	command := CommandOutput + flag(enable)
	if ps.profile.Supports(CapChannelOutput) {
		command = CommandAllOutputs + ":" + flag(enable)
	}

	if err := ps.Send(command); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (ps *PowerSupply) OnChannel(channel int) error {
	return ps.channelOutput("on", channel, true)
}

func (ps *PowerSupply) OffChannel(channel int) error {
	return ps.channelOutput("off", channel, false)
}

func (ps *PowerSupply) channelOutput(operation string, channel int, enable bool) error {
	err := ps.require(CapChannelOutput, "per channel output")
	if err == nil {
		err = CheckChannel(ps.profile, channel)
	}
	if err == nil {
		err = ps.Send(CommandOutput + strconv.Itoa(channel) + ":" + flag(enable))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// SetOCP toggles the over current protection. The unit gives no feedback.
func (ps *PowerSupply) SetOCP(enable bool) error {
	return ps.toggle(CapOCP, "set_ocp", CommandOCP, enable)
}

// SetOVP toggles the over voltage protection. The unit gives no feedback.
func (ps *PowerSupply) SetOVP(enable bool) error {
	return ps.toggle(CapOVP, "set_ovp", CommandOVP, enable)
}

func (ps *PowerSupply) SetBeep(enable bool) error {
	return ps.toggle(CapBeep, "set_beep", CommandBeep, enable)
}

// SetLock toggles the front panel lock.
func (ps *PowerSupply) SetLock(enable bool) error {
	return ps.toggle(CapLock, "set_lock", CommandLock, enable)
}

func (ps *PowerSupply) toggle(c Capability, operation, command string, enable bool) error {
	err := ps.require(c, capabilityNames[c])
	if err == nil {
		err = ps.Send(command + flag(enable))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// SetTracking links the outputs: independent, series or parallel.
func (ps *PowerSupply) SetTracking(mode TrackingMode) error {
	if err := ps.require(CapTracking, "tracking"); err != nil {
		return fmt.Errorf("set_tracking: %w", err)
	}

	if mode > TrackingParallel {
		return fmt.Errorf("set_tracking: %w", &ValidationError{
			Value:   int(mode),
			Limit:   int(TrackingParallel),
			Message: fmt.Sprintf("Tracking mode %d not in range (0: independent, 1: series, 2: parallel)", mode),
		})
	}

	if err := ps.Send(CommandTrack + strconv.Itoa(int(mode))); err != nil {
		return fmt.Errorf("set_tracking: %w", err)
	}
	return nil
}
