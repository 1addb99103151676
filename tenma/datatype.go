package tenma

import (
	"math"
	"strconv"
	"strings"
)

type (
	ChannelMode  uint8
	TrackingMode uint8
)

const (
	ConstantCurrent ChannelMode = iota // bit cleared
	ConstantVoltage
)

func (m ChannelMode) String() string {
	if m == ConstantVoltage {
		return "C.V"
	}
	return "C.C"
}

const (
	TrackingIndependent TrackingMode = iota
	TrackingSeries
	TrackingParallel
	TrackingParallelAlt // base family reports parallel as 0b11
)

func (t TrackingMode) String() string {
	switch t {
	case TrackingIndependent:
		return "independent"
	case TrackingSeries:
		return "series"
	case TrackingParallel, TrackingParallelAlt:
		return "parallel"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

func (t TrackingMode) Parallel() bool {
	return t == TrackingParallel || t == TrackingParallelAlt
}

// OperatingMode is the decoded STATUS? register.
// Optional flags are nil when the unit's status layout does not carry them.
type OperatingMode struct {
	Channel1 ChannelMode  `json:"ch1_mode" cbor:"1,keyasint"`
	Channel2 ChannelMode  `json:"ch2_mode" cbor:"2,keyasint"`
	Tracking TrackingMode `json:"tracking" cbor:"3,keyasint"`
	Output1  bool         `json:"out1_enabled" cbor:"4,keyasint"`
	Output2  *bool        `json:"out2_enabled,omitempty" cbor:"5,keyasint,omitempty"`
	Beep     *bool        `json:"beep_enabled,omitempty" cbor:"6,keyasint,omitempty"`
	Lock     *bool        `json:"lock_enabled,omitempty" cbor:"7,keyasint,omitempty"`
}

// Identification is the outcome of the identity exchange.
type Identification struct {
	Identity     string  `json:"identity"`
	Profile      Profile `json:"-"`
	Inconclusive bool    `json:"inconclusive"`
}

// Warning returns a non-fatal *DetectionError when no profile matched the identity.
func (i Identification) Warning() error {
	if !i.Inconclusive {
		return nil
	}
	return &DetectionError{Identity: i.Identity, Fallback: i.Profile.Name}
}

func volts(mv int) string {
	return strconv.FormatFloat(float64(mv)/1000, 'f', 2, 64)
}

func amps(ma int) string {
	return strconv.FormatFloat(float64(ma)/1000, 'f', 3, 64)
}

// decimal renders milli-units with the shortest representation keeping one
// fractional digit at least (e.g. 1500 => "1.5", 5000 => "5.0").
func decimal(milli int) string {
	s := strconv.FormatFloat(float64(milli)/1000, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func milli(v float64) int {
	return int(math.Round(v * 1000))
}
