package plot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

func Command(cfg *tenmactl.Config, connect func() (*tenma.PowerSupply, error)) *cobra.Command {
	var (
		duration   time.Duration
		interval   time.Duration
		resolution int
		output     string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Sample the running voltage and current then draw them in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.LogWith(cmd.Context())

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

			//
			// Collect readings
			//

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			log.Infof("Sampling for %s every %s", duration, interval)
			var readings []tenmactl.Reading
			for r := range sampler.Launch(ctx) {
				readings = append(readings, r)
			}
			if len(readings) < 2 {
				return fmt.Errorf("not enough samples (%d) to plot", len(readings))
			}

			//
			// Render charts
			//

			graphs := []struct {
				name    string
				title   string
				unit    string
				extract func(tenmactl.Sample) (float64, bool)
			}{
				{
					name:  "voltage",
					title: "Voltage",
					unit:  "V",
					extract: func(s tenmactl.Sample) (float64, bool) {
						return s.Voltage, true
					},
				},
				{
					name:  "current",
					title: "Current",
					unit:  "A",
					extract: func(s tenmactl.Sample) (float64, bool) {
						if s.Current == nil {
							return 0, false
						}
						return *s.Current, true
					},
				},
			}

			labels := labels(readings)
			for _, g := range graphs {
				set := series(readings, g.extract)
				if len(set) == 0 {
					continue
				}

				img, err := render(fmt.Sprintf("%s %s", ps.Profile().Name, g.title), g.unit, labels, set, resolution)
				if err != nil {
					return fmt.Errorf("%s: %w", g.name, err)
				}

				if output != "" {
					path := fmt.Sprintf("%s-%s.png", output, g.name)
					if err = os.WriteFile(path, img, 0o644); err != nil {
						return fmt.Errorf("%s: %w", g.name, err)
					}
					log.Infof("Wrote %s", path)
					continue
				}

				if err = display(img); err != nil {
					return fmt.Errorf("%s: %w", g.name, err)
				}
			}

			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "Sampling duration")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 500*time.Millisecond, "Sampling interval (default from configuration)")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of each graph")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write PNG files with this prefix instead of drawing them in the terminal")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Plot every channel of the power supply")

	return cmd
}
