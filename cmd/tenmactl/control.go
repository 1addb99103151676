package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

func identifyCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Show the identity and the detected model",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ps, err := s.connect()
			if err != nil {
				return err
			}

			ident := ps.Identification()
			p := ps.Profile()
			s.print([]any{ident.Identity}, "%s\nModel: %s - Channels: %d - Memories: %d - Max: %dmV / %dmA\nCapabilities: %s",
				ident.Identity, p.Name, p.Channels, p.ConfigSlots, p.MaxMillivolts, p.MaxMilliamps, p.Capabilities)

			if err := ident.Warning(); err != nil && !s.opts.quiet {
				fmt.Println("Warning:", err)
			}
			return nil
		},
	}
}

func statusCommand(s *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the operating mode of the power supply",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ps, err := s.connect()
			if err != nil {
				return err
			}

			m, err := ps.Status()
			if err != nil {
				return err
			}

			if asJSON {
				codec := json.NewEncoder(os.Stdout)
				codec.SetIndent("", "  ")
				return codec.Encode(m)
			}

			fmt.Printf("CH1: %s\n", m.Channel1)
			if ps.Profile().Channels > 1 {
				fmt.Printf("CH2: %s\n", m.Channel2)
			}
			fmt.Printf("Tracking: %s\n", m.Tracking)
			fmt.Printf("Output 1: %s\n", onOff(m.Output1))
			if m.Output2 != nil {
				fmt.Printf("Output 2: %s\n", onOff(*m.Output2))
			}
			if m.Beep != nil {
				fmt.Printf("Beep: %s\n", onOff(*m.Beep))
			}
			if m.Lock != nil {
				fmt.Printf("Lock: %s\n", onOff(*m.Lock))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "", false, "Print the status as JSON")

	return cmd
}

func getCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a setting or a measure of a channel",
	}

	reading := func(use, short, unit string, read func(ps *tenma.PowerSupply, channel int) (float64, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				ps, err := s.connect()
				if err != nil {
					return err
				}

				v, err := read(ps, s.opts.channel)
				if err != nil {
					return err
				}

				s.print([]any{v}, "CH%d: %s%s", s.opts.channel, strconv.FormatFloat(v, 'f', -1, 64), unit)
				return nil
			},
		}
	}

	cmd.AddCommand(reading("voltage", "Voltage setting", "V", (*tenma.PowerSupply).Voltage))
	cmd.AddCommand(reading("current", "Current setting", "A", (*tenma.PowerSupply).Current))
	cmd.AddCommand(reading("running-voltage", "Measured output voltage", "V", (*tenma.PowerSupply).RunningVoltage))
	cmd.AddCommand(reading("running-current", "Measured output current", "A", (*tenma.PowerSupply).RunningCurrent))

	return cmd
}

func setCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the voltage or current of a channel, read back to verify",
	}

	setting := func(use, short string, unit byte, set func(ps *tenma.PowerSupply, channel, milli int) (float64, error)) *cobra.Command {
		var slot int

		c := &cobra.Command{
			Use:   use + " VALUE",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				milli, err := tenmactl.ParseMilli(args[0], unit)
				if err != nil {
					return err
				}

				ps, err := s.connect()
				if err != nil {
					return err
				}

				if slot > 0 {
					// The slot is recalled first, otherwise its previous values are saved.
					if err = ps.Off(); err != nil {
						return err
					}
					if err = ps.RecallConf(slot); err != nil {
						return err
					}
				}

				v, err := set(ps, s.opts.channel, milli)
				if err != nil {
					return err
				}
				s.print([]any{v}, "CH%d: %s set to %s%c", s.opts.channel, use, strconv.FormatFloat(v, 'f', -1, 64), unit)

				if slot > 0 {
					if err = ps.SaveConf(slot); err != nil {
						return err
					}
					s.print(nil, "Saved to M%d", slot)
				}
				return nil
			},
		}
		c.Flags().IntVarP(&slot, "save", "", 0, "Also save the setting into this memory slot")

		return c
	}

	cmd.AddCommand(setting("voltage", "Set the voltage (e.g. 12.5, 12.5V or 3300mV)", 'V', (*tenma.PowerSupply).SetVoltage))
	cmd.AddCommand(setting("current", "Set the current (e.g. 0.5, 0.5A or 500mA)", 'A', (*tenma.PowerSupply).SetCurrent))

	return cmd
}

func outputCommand(s *session, use string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn %s the outputs, or only the --channel one on multi-output models", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := s.connect()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("channel") && ps.Profile().Supports(tenma.CapChannelOutput) {
				if enable {
					return ps.OnChannel(s.opts.channel)
				}
				return ps.OffChannel(s.opts.channel)
			}

			if enable {
				return ps.On()
			}
			return ps.Off()
		},
	}
}

func memoryCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Save, recall and program the memory slots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save SLOT",
		Short: "Save the current settings of --channel into a memory slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid slot %s", strconv.Quote(args[0]))
			}

			ps, err := s.connect()
			if err != nil {
				return err
			}

			if err = ps.SaveConfFlow(slot, s.opts.channel); err != nil {
				return err
			}
			s.print(nil, "Saved to M%d", slot)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recall SLOT",
		Short: "Load a memory slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid slot %s", strconv.Quote(args[0]))
			}

			ps, err := s.connect()
			if err != nil {
				return err
			}

			if err = ps.RecallConf(slot); err != nil {
				return err
			}

			v, err := ps.Voltage(s.opts.channel)
			if err != nil {
				return err
			}
			a, err := ps.Current(s.opts.channel)
			if err != nil {
				return err
			}

			s.print([]any{v, a}, "Loaded M%d - Voltage: %.2fV - Current: %.3fA", slot, v, a)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the memory presets of the configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, m := range s.cfg.SortedMemories() {
				fmt.Printf("M%d  CH%d  %6.2fV  %6.3fA  %s\n", m.Slot, m.Channel, float64(m.Millivolts)/1000, float64(m.Milliamps)/1000, strconv.Quote(m.Label))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "program [SLOT...]",
		Short: "Program the memory presets of the configuration into the power supply",
		RunE: func(_ *cobra.Command, args []string) error {
			memories := s.cfg.SortedMemories()
			if len(args) > 0 {
				memories = nil
				for _, arg := range args {
					slot, err := strconv.Atoi(arg)
					if err != nil {
						return fmt.Errorf("invalid slot %s", strconv.Quote(arg))
					}

					m, ok := s.cfg.Memory(slot)
					if !ok {
						return fmt.Errorf("m%d: not found in configuration", slot)
					}
					memories = append(memories, m)
				}
			}
			if len(memories) == 0 {
				return fmt.Errorf("no memory preset configured")
			}

			ps, err := s.connect()
			if err != nil {
				return err
			}

			for _, m := range memories {
				if err := program(ps, m); err != nil {
					return fmt.Errorf("m%d: %w", m.Slot, err)
				}
				s.print(nil, "Programmed M%d (%s) - Voltage: %.2fV - Current: %.3fA", m.Slot, m.Label, float64(m.Millivolts)/1000, float64(m.Milliamps)/1000)
			}
			return nil
		},
	})

	return cmd
}

// program stores a preset in its slot: output off, recall the slot so its
// previous values are not the ones saved, apply the preset then save.
func program(ps *tenma.PowerSupply, m *tenmactl.Memory) error {
	p := ps.Profile()
	err := errors.Join(
		tenma.CheckSlot(p, m.Slot),
		tenma.CheckChannel(p, m.Channel),
	)
	if err == nil {
		err = errors.Join(
			tenma.CheckVoltage(p, m.Channel, m.Millivolts),
			tenma.CheckChannelVoltage(p, m.Channel, m.Millivolts),
			tenma.CheckCurrent(p, m.Channel, m.Milliamps),
			tenma.CheckCurrentReadback(p, m.Channel),
		)
	}
	if err != nil {
		return err
	}

	if err = ps.Off(); err != nil {
		return err
	}
	if err = ps.RecallConf(m.Slot); err != nil {
		return err
	}
	if _, err = ps.SetVoltage(m.Channel, m.Millivolts); err != nil {
		return err
	}
	if _, err = ps.SetCurrent(m.Channel, m.Milliamps); err != nil {
		return err
	}
	return ps.SaveConf(m.Slot)
}

func toggleCommand(s *session, use, short string, toggle func(ps *tenma.PowerSupply, enable bool) error) *cobra.Command {
	return &cobra.Command{
		Use:       use + " on|off",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(_ *cobra.Command, args []string) error {
			enable, err := parseSwitch(args[0])
			if err != nil {
				return err
			}

			ps, err := s.connect()
			if err != nil {
				return err
			}

			return toggle(ps, enable)
		},
	}
}

func trackCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "track independent|series|parallel",
		Short:     "Set the tracking mode of the outputs",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"independent", "series", "parallel"},
		RunE: func(_ *cobra.Command, args []string) error {
			mode, err := parseTracking(args[0])
			if err != nil {
				return err
			}

			ps, err := s.connect()
			if err != nil {
				return err
			}

			return ps.SetTracking(mode)
		},
	}
}

func stepCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Auto-step and manual step of the voltage or current",
	}

	auto := func(use, quantity string, unit byte, start func(ps *tenma.PowerSupply, channel, start, stop, step, seconds int) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " START STOP STEP SECONDS",
			Short: fmt.Sprintf("Let the power supply ramp the %s", quantity),
			Args:  cobra.ExactArgs(4),
			RunE: func(_ *cobra.Command, args []string) error {
				var values [3]int
				for i := range values {
					var err error
					values[i], err = tenmactl.ParseMilli(args[i], unit)
					if err != nil {
						return err
					}
				}
				seconds, err := strconv.Atoi(args[3])
				if err != nil {
					return fmt.Errorf("invalid time %s", strconv.Quote(args[3]))
				}

				ps, err := s.connect()
				if err != nil {
					return err
				}

				if err = start(ps, s.opts.channel, values[0], values[1], values[2], seconds); err != nil {
					return err
				}

				r, err := tenmactl.NewRamp(values[0], values[1], values[2], time.Duration(seconds)*time.Second)
				if err != nil {
					return err
				}
				s.print(nil, "CH%d: %s ramp of %d steps, %d%s reached in %s", s.opts.channel, quantity, len(r.Points())-1, values[1], "m"+string(unit), r.Duration())
				return nil
			},
		}
	}

	onChannel := func(use, short string, run func(ps *tenma.PowerSupply, channel int) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				ps, err := s.connect()
				if err != nil {
					return err
				}
				return run(ps, s.opts.channel)
			},
		}
	}

	manual := func(use, quantity string, unit byte, set func(ps *tenma.PowerSupply, channel, milli int) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " VALUE",
			Short: fmt.Sprintf("Set the %s step used by up and down", quantity),
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				milli, err := tenmactl.ParseMilli(args[0], unit)
				if err != nil {
					return err
				}

				ps, err := s.connect()
				if err != nil {
					return err
				}
				return set(ps, s.opts.channel, milli)
			},
		}
	}

	var current bool
	move := func(use string, voltageStep, currentStep func(ps *tenma.PowerSupply, channel int) error) *cobra.Command {
		c := onChannel(use, fmt.Sprintf("Move the voltage, or the current with --current, %s by one step", use), func(ps *tenma.PowerSupply, channel int) error {
			if current {
				return currentStep(ps, channel)
			}
			return voltageStep(ps, channel)
		})
		c.Flags().BoolVarP(&current, "current", "", false, "Step the current instead of the voltage")
		return c
	}

	cmd.AddCommand(auto("auto-voltage", "voltage", 'V', (*tenma.PowerSupply).StartAutoVoltageStep))
	cmd.AddCommand(auto("auto-current", "current", 'A', (*tenma.PowerSupply).StartAutoCurrentStep))
	cmd.AddCommand(onChannel("stop-voltage", "Stop the voltage ramp", (*tenma.PowerSupply).StopAutoVoltageStep))
	cmd.AddCommand(onChannel("stop-current", "Stop the current ramp", (*tenma.PowerSupply).StopAutoCurrentStep))
	cmd.AddCommand(manual("voltage", "voltage", 'V', (*tenma.PowerSupply).SetManualVoltageStep))
	cmd.AddCommand(manual("current", "current", 'A', (*tenma.PowerSupply).SetManualCurrentStep))
	cmd.AddCommand(move("up", (*tenma.PowerSupply).StepVoltageUp, (*tenma.PowerSupply).StepCurrentUp))
	cmd.AddCommand(move("down", (*tenma.PowerSupply).StepVoltageDown, (*tenma.PowerSupply).StepCurrentDown))

	return cmd
}
