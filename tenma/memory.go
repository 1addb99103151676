package tenma

import (
	"fmt"
	"strconv"
)

// RecallConf loads a memory slot in the panel, like pressing the Mx button.
func (ps *PowerSupply) RecallConf(slot int) error {
	if err := CheckSlot(ps.profile, slot); err != nil {
		return fmt.Errorf("recall_conf: %w", err)
	}

	if err := ps.Send(CommandRecall + strconv.Itoa(slot)); err != nil {
		return fmt.Errorf("recall_conf: %w", err)
	}
	return nil
}

// SaveConf only sends SAV{slot}. Firmwares do not reliably store the panel in
// that slot this way, SaveConfFlow is the dependable path.
func (ps *PowerSupply) SaveConf(slot int) error {
	if err := CheckSlot(ps.profile, slot); err != nil {
		return fmt.Errorf("save_conf: %w", err)
	}

	if err := ps.Send(CommandSave + strconv.Itoa(slot)); err != nil {
		return fmt.Errorf("save_conf: %w", err)
	}
	return nil
}

// SaveConfFlow stores the channel's voltage and current settings into the slot:
// output off, read settings, recall the slot, re-apply the settings, save.
// The recall must happen before the settings are re-applied, otherwise the
// slot's previous values get saved. Output stays off, even on failure.
func (ps *PowerSupply) SaveConfFlow(slot, channel int) error {
	err := CheckSlot(ps.profile, slot)
	if err == nil {
		err = ps.checkCurrentRead(channel)
	}
	if err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	if err = ps.Off(); err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	volt, err := ps.Voltage(channel)
	if err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}
	curr, err := ps.Current(channel)
	if err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	if err = ps.RecallConf(slot); err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	if _, err = ps.SetVoltage(channel, milli(volt)); err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}
	if _, err = ps.SetCurrent(channel, milli(curr)); err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	if err = ps.SaveConf(slot); err != nil {
		return fmt.Errorf("save_conf_flow: %w", err)
	}

	if ps.log != nil {
		ps.log.Debugf("Saved to M%d - Voltage: %.2fV - Current: %.3fA", slot, volt, curr)
	}
	return nil
}
