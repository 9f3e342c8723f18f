package charts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"clientpulse/pkg/contracts/domain"
)

// Chart names, in rendering order.
const (
	NameClusters         = "clusters"
	NameSpendPerCustomer = "spend_per_customer"
	NameROI              = "roi"
	NameCoefficients     = "coefficients"
	NameCLV              = "clv_distribution"
)

// Chart is a rendered PNG image.
type Chart struct {
	Name  string
	Title string
	PNG   []byte
}

// DataURI returns the chart as an inline base64 data URI.
func (c Chart) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG)
}

// Options sets the output size and histogram resolution.
type Options struct {
	Width  vg.Length
	Height vg.Length
	Bins   int
}

// DefaultOptions renders 8x5 inch charts with 30 histogram bins.
func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 5 * vg.Inch, Bins: 30}
}

type builder struct {
	name  string
	title string
	build func(*domain.Report, Options) (*plot.Plot, error)
}

var builders = []builder{
	{NameClusters, "Customer clusters (PCA)", clusterScatter},
	{NameSpendPerCustomer, "Spend per customer by campaign", spendPerCustomerBars},
	{NameROI, "Estimated ROI by campaign", roiBars},
	{NameCoefficients, "Campaign impact on total spend", coefficientBars},
	{NameCLV, "Customer lifetime value distribution", clvHistogram},
}

// Render draws every chart for report concurrently and returns them in a
// fixed order.
func Render(ctx context.Context, report *domain.Report, opts Options) ([]Chart, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Bins <= 0 {
		opts.Bins = DefaultOptions().Bins
	}

	out := make([]Chart, len(builders))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range builders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := b.build(report, opts)
			if err != nil {
				return fmt.Errorf("%s chart: %w", b.name, err)
			}
			p.Title.Text = b.title
			png, err := encodePNG(p, opts)
			if err != nil {
				return fmt.Errorf("%s chart: %w", b.name, err)
			}
			out[i] = Chart{Name: b.name, Title: b.title, PNG: png}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodePNG(p *plot.Plot, opts Options) ([]byte, error) {
	w, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clusterScatter(report *domain.Report, _ Options) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"
	p.Legend.Top = true

	seg := report.Segmentation
	points := make([]plotter.XYs, len(seg.Clusters))
	for _, c := range seg.Customers {
		if c.Cluster < 0 || c.Cluster >= len(points) {
			continue
		}
		points[c.Cluster] = append(points[c.Cluster], plotter.XY{X: c.PC1, Y: c.PC2})
	}

	for i, xys := range points {
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Cluster %d: %s", i, seg.Clusters[i].Classification), s)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func spendPerCustomerBars(report *domain.Report, _ Options) (*plot.Plot, error) {
	names := make([]string, 0, len(report.Campaigns))
	values := make(plotter.Values, 0, len(report.Campaigns))
	for _, c := range report.Campaigns {
		names = append(names, c.CampaignName)
		values = append(values, c.SpendPerCustomer)
	}
	p := plot.New()
	p.Y.Label.Text = "Spend per customer"
	return p, addBars(p, names, values, plotutil.Color(0))
}

// roiBars plots campaigns with a defined ROI only.
func roiBars(report *domain.Report, _ Options) (*plot.Plot, error) {
	var names []string
	var values plotter.Values
	for _, c := range report.Campaigns {
		if c.EstimatedROI == nil {
			continue
		}
		names = append(names, c.CampaignName)
		values = append(values, *c.EstimatedROI)
	}
	p := plot.New()
	p.Y.Label.Text = "Estimated ROI"
	return p, addBars(p, names, values, plotutil.Color(1))
}

func coefficientBars(report *domain.Report, _ Options) (*plot.Plot, error) {
	p := plot.New()
	p.Y.Label.Text = "Coefficient"
	if !report.Regression.Available {
		p.X.Label.Text = "regression unavailable"
		return p, nil
	}

	names := make([]string, len(report.Regression.Coefficients))
	values := make(plotter.Values, len(report.Regression.Coefficients))
	for i, c := range report.Regression.Coefficients {
		names[i] = strings.ReplaceAll(c.Feature, "_", " ")
		values[i] = c.Coefficient
	}
	return p, addBars(p, names, values, plotutil.Color(2))
}

func clvHistogram(report *domain.Report, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "CLV"
	p.Y.Label.Text = "Density"

	records := report.CLV.Records
	if len(records) == 0 {
		return p, nil
	}

	var top float64
	for i, sh := range SplitHistogram(records, opts.Bins) {
		sh.Hist.FillColor = segmentColors[i%len(segmentColors)]
		p.Add(sh.Hist)
		p.Legend.Add(sh.Segment, sh.Hist)
		top = math.Max(top, maxDensity(sh.Hist))
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.CLV
	}
	if kde, ok := GaussianKDE(values); ok {
		line := plotter.NewFunction(kde)
		line.Samples = 200
		line.Color = plotutil.Color(1)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("KDE", line)
	}

	if t := report.CLV.Threshold; !math.IsNaN(t) {
		marker, err := plotter.NewLine(plotter.XYs{{X: t, Y: 0}, {X: t, Y: top}})
		if err != nil {
			return nil, err
		}
		marker.Color = plotutil.Color(3)
		marker.Dashes = plotutil.Dashes(1)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("P%.0f threshold", report.CLV.Percentile*100), marker)
	}
	p.Legend.Top = true
	return p, nil
}

// Translucent fills so overlapping segment bars stay visible.
var segmentColors = []color.Color{
	color.RGBA{R: 100, G: 149, B: 237, A: 160},
	color.RGBA{R: 255, G: 140, B: 0, A: 160},
	color.RGBA{R: 60, G: 179, B: 113, A: 160},
}

// SegmentHistogram is the share of one CLV segment in the distribution.
type SegmentHistogram struct {
	Segment string
	Hist    *plotter.Histogram
}

// SplitHistogram bins CLV values per segment over bin edges shared by every
// segment. Weights are densities over all records, so the segment layers
// together integrate to one. Segments appear in order of first appearance.
func SplitHistogram(records []domain.CLVRecord, bins int) []SegmentHistogram {
	if len(records) == 0 {
		return nil
	}
	if bins < 1 {
		bins = 1
	}

	lo, hi := records[0].CLV, records[0].CLV
	for _, r := range records[1:] {
		lo, hi = math.Min(lo, r.CLV), math.Max(hi, r.CLV)
	}
	if hi == lo {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	unit := 1 / (float64(len(records)) * width)

	index := make(map[string]int)
	var out []SegmentHistogram
	for _, r := range records {
		i, ok := index[r.Segment]
		if !ok {
			i = len(out)
			index[r.Segment] = i
			hb := make([]plotter.HistogramBin, bins)
			for b := range hb {
				hb[b].Min = lo + float64(b)*width
				hb[b].Max = hb[b].Min + width
			}
			out = append(out, SegmentHistogram{
				Segment: r.Segment,
				Hist: &plotter.Histogram{
					Bins:      hb,
					Width:     width,
					LineStyle: plotter.DefaultLineStyle,
				},
			})
		}
		b := min(int((r.CLV-lo)/width), bins-1)
		out[i].Hist.Bins[b].Weight += unit
	}
	return out
}

func maxDensity(h *plotter.Histogram) float64 {
	var m float64
	for _, b := range h.Bins {
		m = math.Max(m, b.Weight)
	}
	return m
}

// addBars draws a bar per value with the category names rotated under the
// x axis. An empty series leaves the plot with axes only.
func addBars(p *plot.Plot, names []string, values plotter.Values, fill color.Color) error {
	if len(values) == 0 {
		p.X.Label.Text = "no data"
		return nil
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	return nil
}
