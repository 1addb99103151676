package tenmactl

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/tenmactl/tenma"
)

// Sampler polls the running voltage and current of channels at a fixed interval.
type Sampler struct {
	supply   Supply
	channels []int
	interval time.Duration
	status   bool
	last     map[int]Sample
}

func NewSampler(supply Supply, interval time.Duration, channels ...int) (*Sampler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sampler: invalid interval %s", interval)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("sampler: no channel")
	}
	for _, ch := range channels {
		if err := tenma.CheckChannel(supply.Profile(), ch); err != nil {
			return nil, fmt.Errorf("sampler: %w", err)
		}
	}

	return &Sampler{
		supply:   supply,
		channels: channels,
		interval: interval,
		last:     make(map[int]Sample),
	}, nil
}

// PollStatus also queries the status register on every round.
func (s *Sampler) PollStatus(enable bool) {
	s.status = enable
}

// Sample runs one polling round.
func (s *Sampler) Sample() (Reading, error) {
	r := Reading{
		SampledAt: time.Now(),
		Samples:   make([]Sample, 0, len(s.channels)),
	}

	for _, ch := range s.channels {
		sample := Sample{Channel: ch}

		var err error
		sample.Voltage, err = s.supply.RunningVoltage(ch)
		if err != nil {
			return r, err
		}

		if tenma.CheckCurrentReadback(s.supply.Profile(), ch) == nil {
			a, err := s.supply.RunningCurrent(ch)
			if err != nil {
				return r, err
			}
			sample.Current = ToPtr(a)
		}

		r.Samples = append(r.Samples, sample)
	}

	if s.status {
		mode, err := s.supply.Status()
		if err != nil {
			return r, err
		}
		r.Mode = &mode
	}

	return r, nil
}

// Launch polls until ctx is done. The returned channel is closed on exit.
func (s *Sampler) Launch(ctx context.Context) <-chan Reading {
	log := logger.LogWith(ctx)
	readings := make(chan Reading, 1)

	go func() {
		defer close(readings)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			r, err := s.Sample()
			if err != nil {
				log.WithError(err).Error("Could not sample power supply")
			} else {
				s.logChanges(log, r)

				select {
				case readings <- r:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return readings
}

func (s *Sampler) logChanges(log logger.Logger, r Reading) {
	var change bool

	for _, sample := range r.Samples {
		prev, ok := s.last[sample.Channel]
		s.last[sample.Channel] = sample

		// Only log noticeable changes to avoid flooding the logs.
		const tolerance = 0.01
		if !ok || math.Abs(sample.Voltage-prev.Voltage) > tolerance {
			change = true
		}
		if sample.Current != nil && (prev.Current == nil || math.Abs(*sample.Current-*prev.Current) > tolerance/2) {
			change = true
		}
	}

	if !change {
		return
	}

	values := make([]string, 0, len(r.Samples))
	for _, sample := range r.Samples {
		if sample.Current == nil {
			values = append(values, fmt.Sprintf("CH%d: %.2fV", sample.Channel, sample.Voltage))
			continue
		}
		values = append(values, fmt.Sprintf("CH%d: %.2fV %.3fA", sample.Channel, sample.Voltage, *sample.Current))
	}
	log.Debug(strings.Join(values, " - "))
}
