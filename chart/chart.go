// Package chart renders a historical series and its forecast as a PNG line chart.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sartorproj/regiocast/timeseries"
)

// ErrNoData is returned when there is no historical data to draw.
var ErrNoData = errors.New("chart: no historical data")

var (
	historicalColor = color.RGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	forecastColor   = color.RGBA{R: 0x93, G: 0x33, B: 0xea, A: 0xff}
	dividerColor    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// Options controls labels and size.
type Options struct {
	Variable string
	Region   string
	Width    vg.Length
	Height   vg.Length
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 10 * vg.Inch
	}
	if h <= 0 {
		h = 5 * vg.Inch
	}
	return w, h
}

// Build assembles the plot: historical line, dashed forecast line and a
// dotted divider at the last historical year.
func Build(historical, forecast *timeseries.Series, opts Options) (*plot.Plot, error) {
	if historical.IsEmpty() {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s over Time", opts.Variable)
	if opts.Region != "" {
		p.Title.Text += " - " + opts.Region
	}
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = fmt.Sprintf("%s (thousands)", opts.Variable)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(toXYs(historical))
	if err != nil {
		return nil, err
	}
	line.Color = historicalColor
	points.Color = historicalColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add("Historical Data", line, points)

	if !forecast.IsEmpty() {
		fline, fpoints, err := plotter.NewLinePoints(toXYs(forecast))
		if err != nil {
			return nil, err
		}
		fline.Color = forecastColor
		fline.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		fpoints.Color = forecastColor
		fpoints.Shape = draw.CircleGlyph{}
		p.Add(fline, fpoints)
		p.Legend.Add("ARIMA Forecast", fline, fpoints)

		lo, hi := valueRange(historical, forecast)
		_, lastYear := historical.YearSpan()
		divider, err := plotter.NewLine(plotter.XYs{
			{X: float64(lastYear), Y: lo},
			{X: float64(lastYear), Y: hi},
		})
		if err != nil {
			return nil, err
		}
		divider.Color = dividerColor
		divider.Dashes = []vg.Length{vg.Points(1), vg.Points(3)}
		p.Add(divider)
	}

	return p, nil
}

// Render writes the chart as PNG.
func Render(w io.Writer, historical, forecast *timeseries.Series, opts Options) error {
	p, err := Build(historical, forecast, opts)
	if err != nil {
		return err
	}

	width, height := opts.size()
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save writes the chart to a file; the format follows the extension.
func Save(path string, historical, forecast *timeseries.Series, opts Options) error {
	p, err := Build(historical, forecast, opts)
	if err != nil {
		return err
	}
	width, height := opts.size()
	return p.Save(width, height, path)
}

func toXYs(s *timeseries.Series) plotter.XYs {
	xys := make(plotter.XYs, s.Len())
	for i := range xys {
		xys[i].X = float64(s.Years[i])
		xys[i].Y = s.Values[i]
	}
	return xys
}

func valueRange(series ...*timeseries.Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if s.IsEmpty() {
			continue
		}
		lo = math.Min(lo, s.Min())
		hi = math.Max(hi, s.Max())
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
