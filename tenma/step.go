package tenma

import (
	"fmt"
	"strconv"
	"strings"
)

// StartAutoVoltageStep makes the unit ramp from start to stop millivolts by
// step millivolts every seconds, without host intervention.
func (ps *PowerSupply) StartAutoVoltageStep(channel, start, stop, step, seconds int) error {
	err := ps.require(CapAutoStep, capabilityNames[CapAutoStep])
	if err == nil {
		err = CheckChannel(ps.profile, channel)
	}
	if err == nil {
		err = CheckVoltage(ps.profile, channel, start)
	}
	if err == nil {
		err = CheckVoltage(ps.profile, channel, stop)
	}
	if err == nil {
		err = CheckStep(channel, "voltage", start, stop, step, seconds, "mV")
	}
	if err == nil {
		err = ps.Send(autoStep(CommandVoltageAutoRun, channel, start, stop, step, seconds))
	}
	if err != nil {
		return fmt.Errorf("start_auto_voltage_step: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StopAutoVoltageStep(channel int) error {
	if err := ps.channelCommand(CapAutoStep, CommandVoltageAutoEnd, channel); err != nil {
		return fmt.Errorf("stop_auto_voltage_step: %w", err)
	}
	return nil
}

// StartAutoCurrentStep makes the unit ramp from start to stop milliamps by
// step milliamps every seconds, without host intervention.
func (ps *PowerSupply) StartAutoCurrentStep(channel, start, stop, step, seconds int) error {
	err := ps.require(CapAutoStep, capabilityNames[CapAutoStep])
	if err == nil {
		err = CheckChannel(ps.profile, channel)
	}
	if err == nil {
		err = CheckCurrent(ps.profile, channel, start)
	}
	if err == nil {
		err = CheckCurrent(ps.profile, channel, stop)
	}
	if err == nil {
		err = CheckStep(channel, "current", start, stop, step, seconds, "mA")
	}
	if err == nil {
		err = ps.Send(autoStep(CommandCurrentAutoRun, channel, start, stop, step, seconds))
	}
	if err != nil {
		return fmt.Errorf("start_auto_current_step: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StopAutoCurrentStep(channel int) error {
	if err := ps.channelCommand(CapAutoStep, CommandCurrentAutoEnd, channel); err != nil {
		return fmt.Errorf("stop_auto_current_step: %w", err)
	}
	return nil
}

// SetManualVoltageStep sets by how many millivolts VUP/VDOWN move the channel.
func (ps *PowerSupply) SetManualVoltageStep(channel, mv int) error {
	err := ps.require(CapManualStep, capabilityNames[CapManualStep])
	if err == nil {
		err = CheckChannel(ps.profile, channel)
	}
	if err == nil {
		err = CheckVoltage(ps.profile, channel, mv)
	}
	if err == nil {
		err = ps.Send(CommandVoltageStep + strconv.Itoa(channel) + ":" + decimal(mv))
	}
	if err != nil {
		return fmt.Errorf("set_manual_voltage_step: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StepVoltageUp(channel int) error {
	if err := ps.channelCommand(CapManualStep, CommandVoltageUp, channel); err != nil {
		return fmt.Errorf("step_voltage_up: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StepVoltageDown(channel int) error {
	if err := ps.channelCommand(CapManualStep, CommandVoltageDown, channel); err != nil {
		return fmt.Errorf("step_voltage_down: %w", err)
	}
	return nil
}

// SetManualCurrentStep sets by how many milliamps IUP/IDOWN move the channel.
func (ps *PowerSupply) SetManualCurrentStep(channel, ma int) error {
	err := ps.require(CapManualStep, capabilityNames[CapManualStep])
	if err == nil {
		err = CheckChannel(ps.profile, channel)
	}
	if err == nil {
		err = CheckCurrent(ps.profile, channel, ma)
	}
	if err == nil {
		err = ps.Send(CommandCurrentStep + strconv.Itoa(channel) + ":" + decimal(ma))
	}
	if err != nil {
		return fmt.Errorf("set_manual_current_step: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StepCurrentUp(channel int) error {
	if err := ps.channelCommand(CapManualStep, CommandCurrentUp, channel); err != nil {
		return fmt.Errorf("step_current_up: %w", err)
	}
	return nil
}

func (ps *PowerSupply) StepCurrentDown(channel int) error {
	if err := ps.channelCommand(CapManualStep, CommandCurrentDown, channel); err != nil {
		return fmt.Errorf("step_current_down: %w", err)
	}
	return nil
}

func (ps *PowerSupply) channelCommand(c Capability, command string, channel int) error {
	if err := ps.require(c, capabilityNames[c]); err != nil {
		return err
	}
	if err := CheckChannel(ps.profile, channel); err != nil {
		return err
	}
	return ps.Send(command + strconv.Itoa(channel))
}

func autoStep(command string, channel, start, stop, step, seconds int) string {
	var b strings.Builder
	b.WriteString(command)
	b.WriteString(strconv.Itoa(channel))
	b.WriteByte(':')
	b.WriteString(strings.Join([]string{decimal(start), decimal(stop), decimal(step), strconv.Itoa(seconds)}, ","))
	return b.String()
}
