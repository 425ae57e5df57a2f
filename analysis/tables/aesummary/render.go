package main

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/carbocation/pfx"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func (c Count) String() string {
	return fmt.Sprintf("%d (%.1f%%)", c.N, c.Pct)
}

// WriteTSV writes the table in the layout of the HTML output, one column per
// arm.
func WriteTSV(w io.Writer, s Summary) error {
	header := []string{"AEBODSYS", "AEDECOD"}
	for _, arm := range s.Arms {
		header = append(header, fmt.Sprintf("%s (N=%d)", arm.Name, arm.N))
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return pfx.Err(err)
	}

	line := func(system, term string, counts []Count) error {
		fields := []string{system, term}
		for _, c := range counts {
			fields = append(fields, c.String())
		}
		_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
		return err
	}

	if err := line("ANY TEAE", derive.NullMarker, s.Any); err != nil {
		return pfx.Err(err)
	}
	for _, l := range s.Lines {
		term := l.Term
		if term == "" {
			term = derive.NullMarker
		}
		if err := line(l.BodySystem, term, l.Counts); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

var htmlTemplate = template.Must(template.New("aesummary").Funcs(template.FuncMap{
	"count": func(c Count) string { return c.String() },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
table { border-collapse: collapse; font-family: sans-serif; font-size: 0.9em; }
th, td { padding: 2px 10px; border-bottom: 1px solid #ddd; }
td.term { padding-left: 2em; }
td.n { text-align: right; }
</style>
</head>
<body>
<h3>{{.Title}}</h3>
<table>
<tr><th>System Organ Class<br>Preferred Term</th>{{range .Summary.Arms}}<th>{{.Name}}<br>(N={{.N}})</th>{{end}}</tr>
<tr><td>Any TEAE</td>{{range .Summary.Any}}<td class="n">{{count .}}</td>{{end}}</tr>
{{range .Summary.Lines}}<tr>{{if .Term}}<td class="term">{{.Term}}</td>{{else}}<td><b>{{.BodySystem}}</b></td>{{end}}{{range .Counts}}<td class="n">{{count .}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

func WriteHTML(w io.Writer, title string, s Summary) error {
	if err := htmlTemplate.Execute(w, map[string]interface{}{"Title": title, "Summary": s}); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Chart size on the page.
const (
	chartWidth  = 4 * vg.Inch
	chartHeight = 3 * vg.Inch
)

const chartYLabel = "% subjects with any TEAE"

// BarChart plots one bar per arm at the percentage of subjects with any
// TEAE, labelled with that percentage, on a 0-100 scale.
func BarChart(title string, s Summary) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = chartYLabel
	p.Y.Min, p.Y.Max = 0, 100

	names := make([]string, len(s.Arms))
	pct := make(plotter.Values, len(s.Arms))
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(s.Arms)),
		Labels: make([]string, len(s.Arms)),
	}
	for i, arm := range s.Arms {
		names[i] = fmt.Sprintf("%s (N=%d)", arm.Name, arm.N)
		if i < len(s.Any) {
			pct[i] = s.Any[i].Pct
		}
		labels.XYs[i] = plotter.XY{X: float64(i), Y: pct[i]}
		labels.Labels[i] = fmt.Sprintf("%.1f%%", pct[i])
	}

	bars, err := plotter.NewBarChart(pct, vg.Points(40))
	if err != nil {
		return nil, pfx.Err(err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)

	values, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, pfx.Err(err)
	}
	p.Add(values)

	p.NominalX(names...)

	return p, nil
}

func WritePNG(w io.Writer, title string, s Summary) error {
	p, err := BarChart(title, s)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return pfx.Err(err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return pfx.Err(err)
	}

	return nil
}
