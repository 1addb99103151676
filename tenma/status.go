package tenma

import (
	"errors"
	"fmt"
)

// Status queries the STATUS? register.
func (ps *PowerSupply) Status() (OperatingMode, error) {
	reply, err := ps.Run(CommandStatus)
	if err != nil {
		return OperatingMode{}, fmt.Errorf("get_status: %w", err)
	}

	// 72-13330 sends two bytes back, the second being '\n'
	if len(reply) < max(ps.profile.StatusSize, 1) {
		return OperatingMode{}, fmt.Errorf("get_status: %w", &ProtocolError{
			Command: CommandStatus,
			Reply:   reply,
			Err:     errors.New("short status reply"),
		})
	}

	return DecodeStatus(ps.profile.Status, reply[0]), nil
}

// DecodeStatus decodes the status register according to the layout.
//
//	bit 0   CH1 mode (0: C.C, 1: C.V)
//	bit 1   CH2 mode
//	bit 2-3 tracking (00: independent, 01: series, 11 or 10: parallel)
//	bit 4   beep (base layout)
//	bit 5   lock (base layout)
//	bit 6   output, or output 1 on the triple layout
//	bit 7   output 2 (triple layout)
func DecodeStatus(layout StatusLayout, status byte) OperatingMode {
	m := OperatingMode{
		Channel1: ChannelMode(status & StatusChannel1),
		Channel2: ChannelMode((status & StatusChannel2) >> 1),
		Tracking: TrackingMode((status & StatusTracking) >> statusTrackingShift),
		Output1:  status&StatusOutput1 != 0,
	}

	switch layout {
	case StatusLayoutTriple:
		m.Output2 = ptr(status&StatusOutput2 != 0)
	default:
		m.Beep = ptr(status&StatusBeep != 0)
		m.Lock = ptr(status&StatusLock != 0)
	}

	return m
}

func ptr[T any](v T) *T {
	return &v
}
