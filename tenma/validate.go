package tenma

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

func CheckChannel(p Profile, channel int) error {
	if channel < 1 || channel > p.Channels {
		return &ValidationError{
			Channel: channel,
			Value:   channel,
			Limit:   p.Channels,
			Message: fmt.Sprintf("Channel CH%d not in range (%d channels supported)", channel, p.Channels),
		}
	}
	return nil
}

func CheckVoltage(p Profile, channel, mv int) error {
	return checkCeiling(channel, "voltage", mv, p.MaxMillivolts, "mV")
}

func CheckCurrent(p Profile, channel, ma int) error {
	return checkCeiling(channel, "current", ma, p.MaxMilliamps, "mA")
}

func checkCeiling(channel int, quantity string, value, limit int, unit string) error {
	switch {
	case value > limit:
		return &ValidationError{
			Channel: channel,
			Value:   value,
			Limit:   limit,
			Unit:    unit,
			Message: fmt.Sprintf("Trying to set CH%d %s to %d%s, the maximum is %d%s", channel, quantity, value, unit, limit, unit),
		}
	case value < 0:
		return &ValidationError{
			Channel: channel,
			Value:   value,
			Unit:    unit,
			Message: fmt.Sprintf("Trying to set CH%d %s to %d%s, the minimum is 0%s", channel, quantity, value, unit, unit),
		}
	}
	return nil
}

func CheckSlot(p Profile, slot int) error {
	if slot < 1 || slot > p.ConfigSlots {
		return &ValidationError{
			Value:   slot,
			Limit:   p.ConfigSlots,
			Message: fmt.Sprintf("Trying to use M%d with only %d slots", slot, p.ConfigSlots),
		}
	}
	return nil
}

// CheckChannelVoltage applies the channel rule on top of CheckVoltage.
func CheckChannelVoltage(p Profile, channel, mv int) error {
	r, ok := p.Rule(channel)
	if !ok || len(r.Voltages) == 0 || slices.Contains(r.Voltages, mv) {
		return nil
	}

	allowed := make([]string, len(r.Voltages))
	for i, v := range r.Voltages {
		allowed[i] = strconv.Itoa(v) + "mV"
	}
	list := allowed[0]
	if n := len(allowed); n > 1 {
		list = strings.Join(allowed[:n-1], ", ") + " or " + allowed[n-1]
	}

	return &ValidationError{
		Channel: channel,
		Value:   mv,
		Unit:    "mV",
		Message: fmt.Sprintf("Channel CH%d can only be set to %s", channel, list),
	}
}

func CheckCurrentReadback(p Profile, channel int) error {
	if r, ok := p.Rule(channel); ok && r.NoCurrentReadback {
		return &ValidationError{
			Channel: channel,
			Value:   channel,
			Message: fmt.Sprintf("Channel CH%d does not support reading current", channel),
		}
	}
	return nil
}

// CheckStep validates an auto-step ramp definition.
func CheckStep(channel int, quantity string, start, stop, step, seconds int, unit string) error {
	switch {
	case step <= 0:
		return &ValidationError{
			Channel: channel,
			Value:   step,
			Unit:    unit,
			Message: fmt.Sprintf("Channel CH%d step %s %d%s must be positive", channel, quantity, step, unit),
		}
	case step > max(start, stop):
		return &ValidationError{
			Channel: channel,
			Value:   step,
			Limit:   max(start, stop),
			Unit:    unit,
			Message: fmt.Sprintf("Channel CH%d step %s %d%s higher than stop %s %d%s", channel, quantity, step, unit, quantity, max(start, stop), unit),
		}
	case seconds <= 0:
		return &ValidationError{
			Channel: channel,
			Value:   seconds,
			Unit:    "s",
			Message: fmt.Sprintf("Channel CH%d step time %ds must be positive", channel, seconds),
		}
	}
	return nil
}
