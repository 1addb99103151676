package plot

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"slices"
	"strconv"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/tenmactl"
)

// labels returns the elapsed seconds of each reading.
func labels(readings []tenmactl.Reading) []string {
	origin := readings[0].SampledAt

	l := make([]string, 0, len(readings))
	for _, r := range readings {
		l = append(l, strconv.FormatFloat(r.SampledAt.Sub(origin).Seconds(), 'f', 1, 64))
	}
	return l
}

// series builds one line per channel. Channels without value are left out.
func series(readings []tenmactl.Reading, extract func(tenmactl.Sample) (float64, bool)) charts.LineSeriesList {
	m := make(map[int]*charts.LineSeries)
	var order []int

	for _, r := range readings {
		for _, s := range r.Samples {
			v, ok := extract(s)
			if !ok {
				continue
			}

			ls, ok := m[s.Channel]
			if !ok {
				ls = &charts.LineSeries{
					Name: fmt.Sprintf("CH%d", s.Channel),
				}
				m[s.Channel] = ls
				order = append(order, s.Channel)
			}
			ls.Values = append(ls.Values, v)
		}
	}

	slices.Sort(order)
	set := make(charts.LineSeriesList, 0, len(order))
	for _, ch := range order {
		set = append(set, *m[ch])
	}
	return set
}

// render draws the series as a PNG.
func render(title, unit string, labels []string, set charts.LineSeriesList, resolution int) ([]byte, error) {
	opt := charts.NewLineChartOptionWithSeries(set)
	opt.Theme = charts.GetTheme(charts.ThemeVividDark)
	opt.Padding = charts.NewBox(20, 20, 20, 20)
	opt.Title.Text = title
	opt.Title.FontStyle.FontSize = 16
	opt.Title.Offset = charts.OffsetLeft
	opt.Legend = charts.LegendOption{
		Show:     tenmactl.ToPtr(true),
		Offset:   charts.OffsetCenter,
		Vertical: tenmactl.ToPtr(true),
		Padding:  charts.NewBox(0, 0, 0, 20),
	}
	opt.Symbol = charts.SymbolNone
	opt.LineStrokeWidth = 2
	opt.StrokeSmoothingTension = 0.5
	opt.XAxis.Show = tenmactl.ToPtr(true)
	opt.XAxis.Title = "s"
	opt.XAxis.Labels = labels
	opt.XAxis.LabelCount = min(len(labels), 10)
	opt.YAxis = []charts.YAxisOption{
		{
			Show:                   tenmactl.ToPtr(true),
			Title:                  unit,
			Min:                    tenmactl.ToPtr(float64(0)),
			RangeValuePaddingScale: tenmactl.ToPtr(0.1),
		},
	}
	p := charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        resolution,
		Height:       int(float64(resolution) / (16.0 / 9.0)),
	})

	if err := p.LineChart(opt); err != nil {
		return nil, err
	}
	return p.Bytes()
}

// display draws a PNG in the terminal as sixel.
func display(b []byte) error {
	m, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}

	return sixel.NewEncoder(os.Stdout).Encode(m)
}
