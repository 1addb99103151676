// Package capture records every byte exchanged with a power supply into a
// CBOR encoded trace file (.tlog), for debugging firmware quirks.
//
// A capture is a debugging trace only: nothing is ever restored from it.
package capture

import "time"

// Event is one write to or read from the unit.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	SessionID string    `cbor:"2,keyasint"`
	Port      string    `cbor:"3,keyasint,omitempty"`
	Direction Direction `cbor:"4,keyasint"`
	Data      []byte    `cbor:"5,keyasint,omitempty"`
	Error     string    `cbor:"6,keyasint,omitempty"`
}

type Direction uint8

const (
	// DirectionOut is a command written to the unit.
	DirectionOut Direction = iota
	// DirectionIn is a reply read from the unit.
	DirectionIn
	// DirectionError is a transport failure.
	DirectionError
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return ">>"
	case DirectionIn:
		return "<<"
	case DirectionError:
		return "!!"
	default:
		return "??"
	}
}
