package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHeatmap renders s as a standalone HTML page with an ECharts heatmap.
// Obstacles are left blank; row 0 is at the bottom.
func WriteHeatmap(w io.Writer, title string, s Surface) error {
	width, height := s.Dims()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("heatmap: empty surface %dx%d", width, height)
	}

	xs := make([]string, width)
	for x := range xs {
		xs[x] = strconv.Itoa(x)
	}
	ys := make([]string, height)
	for y := range ys {
		ys[y] = strconv.Itoa(y)
	}

	data := make([]opts.HeatMapData, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v, ok := s.UtilityAt(x, y)
			if !ok {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, y, round2(v)}})
		}
	}

	lo, hi, _ := bounds(s)
	if lo == hi {
		hi = lo + 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "shine"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#ffffbf", "#a50026"}},
		}),
	)
	hm.SetXAxis(xs).AddSeries("utility", data)
	return hm.Render(w)
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}
