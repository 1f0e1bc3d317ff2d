package chart

import (
	"bytes"
	"competitor-price-monitor/internal/types"
	"competitor-price-monitor/lib/helpers"
	"fmt"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"math"
	"os"
	"time"
)

// ErrNotEnoughData is returned when the histories do not span any time
var ErrNotEnoughData = errors.New("not enough price history to draw a chart")

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	gridColor       = drawing.Color{R: 100, G: 100, B: 100, A: 128}

	seriesColors = []drawing.Color{
		{R: 0, G: 122, B: 255, A: 255},
		{R: 255, G: 159, B: 10, A: 255},
		{R: 48, G: 209, B: 88, A: 255},
		{R: 255, G: 69, B: 58, A: 255},
		{R: 191, G: 90, B: 242, A: 255},
		{R: 100, G: 210, B: 255, A: 255},
	}
)

// LoadFont reads a ttf file; the default go-chart font is used when path is empty
func LoadFont(path string) (*truetype.Font, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read font %s", path)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse font %s", path)
	}
	return font, nil
}

// Renderer draws price history charts
type Renderer struct {
	font   *truetype.Font
	width  int
	height int
}

func NewRenderer(font *truetype.Font) *Renderer {
	return &Renderer{font: font, width: 1200, height: 600}
}

// RenderHistory draws one line per (platform, seller) series and returns a PNG
func (r *Renderer) RenderHistory(productName string, histories []types.PriceHistory) ([]byte, error) {
	var series []chart.Series
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	var first, last time.Time

	for _, h := range histories {
		if len(h.Prices) == 0 {
			continue
		}

		xValues := make([]time.Time, 0, len(h.Prices))
		yValues := make([]float64, 0, len(h.Prices))
		for _, p := range h.Prices {
			xValues = append(xValues, p.Timestamp)
			yValues = append(yValues, p.Price)

			minPrice = math.Min(minPrice, p.Price)
			maxPrice = math.Max(maxPrice, p.Price)
			if first.IsZero() || p.Timestamp.Before(first) {
				first = p.Timestamp
			}
			if p.Timestamp.After(last) {
				last = p.Timestamp
			}
		}

		color := seriesColors[len(series)%len(seriesColors)]
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("%s / %s", h.Platform, h.Seller),
			XValues: xValues,
			YValues: yValues,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	if len(series) == 0 || !last.After(first) {
		return nil, ErrNotEnoughData
	}

	// flat series still need a non-zero range
	padding := math.Max((maxPrice-minPrice)*0.1, math.Max(maxPrice*0.01, 0.01))

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s competitor prices", productName),
		Width:  r.width,
		Height: r.height,
		Font:   r.font,
		TitleStyle: chart.Style{
			FontColor: textColor,
			FontSize:  14,
		},
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: backgroundColor,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02-Jan 15:04"),
			Style: chart.Style{
				FontColor:   textColor,
				StrokeColor: textColor,
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{
				Min: math.Max(minPrice-padding, 0),
				Max: maxPrice + padding,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(f, false)
				}
				return ""
			},
			Style: chart.Style{
				FontColor:   textColor,
				StrokeColor: textColor,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: gridColor,
				StrokeWidth: 1,
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph, chart.Style{
		FillColor:   backgroundColor,
		FontColor:   textColor,
		StrokeColor: gridColor,
	})}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}
