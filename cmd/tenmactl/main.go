package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mdouchement/tenmactl/cmd/tenmactl/monitor"
	"github.com/mdouchement/tenmactl/cmd/tenmactl/plot"
	"github.com/mdouchement/tenmactl/cmd/tenmactl/shell"
	showcapture "github.com/mdouchement/tenmactl/cmd/tenmactl/show_capture"
	showports "github.com/mdouchement/tenmactl/cmd/tenmactl/show_ports"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"
)

func main() {
	s := &session{}

	cmd := &cobra.Command{
		Use:               "tenmactl",
		Short:             "A ctl to drive Tenma 72-XXXX bench power supplies",
		Version:           fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.setup,
	}
	cmd.PersistentFlags().StringVarP(&s.opts.cpath, "config", "c", "", "Configfile path (default ~/.config/tenmactl/tenmactl.yml)")
	cmd.PersistentFlags().StringVarP(&s.opts.port, "port", "p", "", "Serial port of the power supply (e.g. /dev/ttyACM0 or COM3)")
	cmd.PersistentFlags().StringVarP(&s.opts.model, "model", "", "", "Skip model detection (e.g. 72-2550)")
	cmd.PersistentFlags().StringVarP(&s.opts.capture, "capture", "", "", "Record every exchange with the power supply into this file")
	cmd.PersistentFlags().IntVarP(&s.opts.channel, "channel", "", 1, "Channel to act on")
	cmd.PersistentFlags().BoolVarP(&s.opts.debug, "debug", "", false, "Print every exchange with the power supply")
	cmd.PersistentFlags().BoolVarP(&s.opts.dummy, "dummy", "", false, "Use an emulated power supply")
	cmd.PersistentFlags().BoolVarP(&s.opts.quiet, "quiet", "q", false, "Only print values, for scripts")

	cmd.AddCommand(identifyCommand(s))
	cmd.AddCommand(statusCommand(s))
	cmd.AddCommand(getCommand(s))
	cmd.AddCommand(setCommand(s))
	cmd.AddCommand(outputCommand(s, "on", true))
	cmd.AddCommand(outputCommand(s, "off", false))
	cmd.AddCommand(memoryCommand(s))
	cmd.AddCommand(toggleCommand(s, "ocp", "Toggle the over current protection", (*tenma.PowerSupply).SetOCP))
	cmd.AddCommand(toggleCommand(s, "ovp", "Toggle the over voltage protection", (*tenma.PowerSupply).SetOVP))
	cmd.AddCommand(toggleCommand(s, "beep", "Toggle the buzzer", (*tenma.PowerSupply).SetBeep))
	cmd.AddCommand(toggleCommand(s, "lock", "Toggle the front panel lock", (*tenma.PowerSupply).SetLock))
	cmd.AddCommand(trackCommand(s))
	cmd.AddCommand(stepCommand(s))
	cmd.AddCommand(monitor.Command(&s.cfg, s.connect))
	cmd.AddCommand(plot.Command(&s.cfg, s.connect))
	cmd.AddCommand(shell.Command(&s.opts.channel, s.connect))
	cmd.AddCommand(showports.Command())
	cmd.AddCommand(showcapture.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for tenmactl",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	err := cmd.Execute()
	s.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
