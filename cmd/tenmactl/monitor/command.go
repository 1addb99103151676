package monitor

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

func Command(cfg *tenmactl.Config, connect func() (*tenma.PowerSupply, error)) *cobra.Command {
	var (
		interval time.Duration
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the TUI monitor display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := connect()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("interval") {
				interval = cfg.Monitor.Interval.Duration
			}

			channels := []int{cfg.Monitor.Channel}
			if all {
				channels = channels[:0]
				for ch := 1; ch <= ps.Profile().Channels; ch++ {
					channels = append(channels, ch)
				}
			}

			sampler, err := tenmactl.NewSampler(ps, interval, channels...)
			if err != nil {
				return err
			}
			sampler.PollStatus(true)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			m := newTUI(ps)
			tui := tea.NewProgram(m, tea.WithAltScreen())

			go func() {
				for r := range sampler.Launch(ctx) {
					tui.Send(r)
				}
			}()

			_, err = tui.Run()
			return err
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 500*time.Millisecond, "Polling interval (default from configuration)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Monitor every channel of the power supply")

	return cmd
}
