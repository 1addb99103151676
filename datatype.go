package tenmactl

import (
	"time"

	"github.com/mdouchement/tenmactl/tenma"
)

// Supply is the part of the driver polled by the front ends.
type Supply interface {
	Profile() tenma.Profile
	RunningVoltage(channel int) (float64, error)
	RunningCurrent(channel int) (float64, error)
	Status() (tenma.OperatingMode, error)
}

type Sample struct {
	Channel int      `json:"channel" cbor:"1,keyasint"`
	Voltage float64  `json:"voltage" cbor:"2,keyasint"`
	Current *float64 `json:"current,omitempty" cbor:"3,keyasint,omitempty"` // nil when the channel cannot read current
}

// Power returns the output power in watts.
func (s Sample) Power() float64 {
	if s.Current == nil {
		return 0
	}
	return s.Voltage * *s.Current
}

// A Reading is one polling round of the sampler.
type Reading struct {
	SampledAt time.Time            `json:"sampled_at"`
	Mode      *tenma.OperatingMode `json:"mode,omitempty"`
	Samples   []Sample             `json:"samples"`
}

func ToPtr[T any](v T) *T {
	return &v
}
