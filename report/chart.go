package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/nao1215/agreement"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const chartTitle = "Total agreement by group"

// chartData returns one label and total per group. Groups without points of
// comparison plot as zero.
func chartData(groups []agreement.GroupSummary) ([]string, []float64) {
	labels := make([]string, len(groups))
	totals := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = GroupLabel(g.GroupID)
		totals[i] = g.TotalAgreement
	}
	return labels, totals
}

// WriteBarChartHTML renders an interactive bar chart page of group totals.
func WriteBarChartHTML(w io.Writer, groups []agreement.GroupSummary) error {
	labels, totals := chartData(groups)
	data := make([]opts.BarData, len(totals))
	for i, v := range totals {
		data[i] = opts.BarData{Value: v}
	}

	scoring := agreement.ScoringModal
	if len(groups) > 0 {
		scoring = groups[0].Scoring
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: chartTitle, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: chartTitle, Subtitle: fmt.Sprintf("groups=%d scoring=%s", len(groups), scoring)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "agreement"}),
	)
	bar.SetXAxis(labels).
		AddSeries("total agreement", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

// WriteBarChartPNG draws a static bar chart of group totals.
func WriteBarChartPNG(w io.Writer, groups []agreement.GroupSummary) error {
	if len(groups) == 0 {
		return ErrNoDataset
	}
	labels, totals := chartData(groups)

	p := plot.New()
	p.Title.Text = chartTitle
	p.Y.Label.Text = "agreement"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(plotter.Values(totals), vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to create bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	p.Add(bars)
	p.NominalX(labels...)

	width := vg.Length(len(groups)) * 0.6 * vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	wt, err := p.WriterTo(width, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
