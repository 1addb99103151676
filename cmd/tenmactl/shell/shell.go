package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/tenma"
)

// Shell runs the interactive commands against a power supply.
type Shell struct {
	ps      *tenma.PowerSupply
	channel int
	out     io.Writer
}

func New(ps *tenma.PowerSupply, channel int, out io.Writer) *Shell {
	return &Shell{
		ps:      ps,
		channel: channel,
		out:     out,
	}
}

// Exec runs one command line and reports whether the shell must exit.
func (s *Shell) Exec(line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.Help()
	case "identify", "id":
		s.identify()
	case "status", "st":
		err = s.status()
	case "get", "g":
		err = s.get()
	case "set":
		err = s.set(args)
	case "on":
		err = s.ps.On()
	case "off":
		err = s.ps.Off()
	case "mem", "m":
		err = s.recall(args)
	case "save":
		err = s.save(args)
	case "channel", "ch":
		err = s.switchChannel(args)
	case "reset":
		err = s.ps.SetPort(s.ps.Port())
		if err == nil {
			s.printf("Reconnected to %s", s.ps.Port())
		}
	case "quit", "exit", "q":
		s.printf("Exiting...")
		return true
	default:
		s.printf("Unknown command: %s (type 'help' for commands)", cmd)
	}

	if err != nil {
		s.printf("Error: %v", err)
	}
	return false
}

func (s *Shell) Help() {
	fmt.Fprintln(s.out, `Commands:
  identify           - Show the identity of the power supply
  status             - Show the operating mode
  get                - Read the settings and the output of the channel
  set voltage <V>    - Set the voltage (e.g. 12.5 or 3300mV)
  set current <A>    - Set the current (e.g. 0.5 or 500mA)
  on | off           - Turn the outputs on or off
  mem <N>            - Recall memory slot N
  save <N>           - Save the channel settings into memory slot N
  channel <N>        - Select the channel
  reset              - Reopen the serial port
  help               - Show this help
  quit               - Exit the shell`)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Shell) identify() {
	p := s.ps.Profile()
	s.printf("%s (%s, %d channels)", s.ps.Identification().Identity, p.Name, p.Channels)
}

func (s *Shell) status() error {
	m, err := s.ps.Status()
	if err != nil {
		return err
	}

	s.printf("CH1: %s - CH2: %s - Tracking: %s - Output: %t", m.Channel1, m.Channel2, m.Tracking, m.Output1)
	return nil
}

func (s *Shell) get() error {
	v, err := s.ps.Voltage(s.channel)
	if err != nil {
		return err
	}
	rv, err := s.ps.RunningVoltage(s.channel)
	if err != nil {
		return err
	}

	if tenma.CheckCurrentReadback(s.ps.Profile(), s.channel) != nil {
		s.printf("CH%d: set %.2fV - out %.2fV", s.channel, v, rv)
		return nil
	}

	a, err := s.ps.Current(s.channel)
	if err != nil {
		return err
	}
	ra, err := s.ps.RunningCurrent(s.channel)
	if err != nil {
		return err
	}

	s.printf("CH%d: set %.2fV %.3fA - out %.2fV %.3fA", s.channel, v, a, rv, ra)
	return nil
}

func (s *Shell) set(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set voltage|current <value>")
	}

	switch strings.ToLower(args[0]) {
	case "voltage", "v":
		mv, err := tenmactl.ParseMilli(args[1], 'V')
		if err != nil {
			return err
		}

		v, err := s.ps.SetVoltage(s.channel, mv)
		if err != nil {
			return err
		}
		s.printf("CH%d: voltage set to %.2fV", s.channel, v)
	case "current", "a":
		ma, err := tenmactl.ParseMilli(args[1], 'A')
		if err != nil {
			return err
		}

		a, err := s.ps.SetCurrent(s.channel, ma)
		if err != nil {
			return err
		}
		s.printf("CH%d: current set to %.3fA", s.channel, a)
	default:
		return fmt.Errorf("unknown setting %s", strconv.Quote(args[0]))
	}
	return nil
}

func (s *Shell) slot(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("a memory slot is required")
	}

	slot, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(args[0]), "m"))
	if err != nil {
		return 0, fmt.Errorf("invalid slot %s", strconv.Quote(args[0]))
	}
	return slot, nil
}

func (s *Shell) recall(args []string) error {
	slot, err := s.slot(args)
	if err != nil {
		return err
	}

	if err = s.ps.RecallConf(slot); err != nil {
		return err
	}
	s.printf("Loaded M%d", slot)
	return nil
}

func (s *Shell) save(args []string) error {
	slot, err := s.slot(args)
	if err != nil {
		return err
	}

	if err = s.ps.SaveConfFlow(slot, s.channel); err != nil {
		return err
	}
	s.printf("Saved to M%d", slot)
	return nil
}

func (s *Shell) switchChannel(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a channel is required")
	}

	ch, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(args[0]), "ch"))
	if err != nil {
		return fmt.Errorf("invalid channel %s", strconv.Quote(args[0]))
	}
	if err = tenma.CheckChannel(s.ps.Profile(), ch); err != nil {
		return err
	}

	s.channel = ch
	s.printf("Channel CH%d selected", ch)
	return nil
}
