package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	totalColumn = "Total"
	missing     = "Missing"
)

// Continuous summarizes a numeric variable within one column of the table.
type Continuous struct {
	N                int
	Mean, SD, Median float64
	Min, Max         float64
}

func Summarize(x []float64) Continuous {
	out := Continuous{N: len(x)}
	if len(x) == 0 {
		return out
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	out.Mean, out.SD = stat.MeanStdDev(sorted, nil)
	if len(x) < 2 {
		out.SD = math.NaN()
	}
	out.Min = floats.Min(sorted)
	out.Max = floats.Max(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		out.Median = sorted[mid]
	} else {
		out.Median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return out
}

// Table is the demographic summary: one column per arm and a total column.
type Table struct {
	Columns []string

	// N is the number of subjects per column.
	N []int

	Continuous  map[string][]Continuous
	Categorical map[string][]map[string]int
}

// Build summarizes the continuous and categorical variables of the subjects
// for whom population holds, by the arm variable. Non-numeric values of a
// continuous variable are left out of its statistics; missing categories are
// counted as "Missing".
func Build(adsl *derive.Table, population derive.Predicate, arm string, continuous, categorical []string) (Table, error) {
	cols := append(append([]string{arm}, continuous...), categorical...)
	if err := adsl.Require(cols...); err != nil {
		return Table{}, err
	}

	subjects := adsl.Filter(population)

	arms := make([]string, 0)
	seen := make(map[string]struct{})
	subjects.Each(func(r derive.Row) {
		a := r.Get(arm)
		if a == "" {
			a = missing
		}
		if _, exists := seen[a]; !exists {
			seen[a] = struct{}{}
			arms = append(arms, a)
		}
	})
	sort.Strings(arms)

	out := Table{
		Columns:     append(append([]string(nil), arms...), totalColumn),
		Continuous:  make(map[string][]Continuous),
		Categorical: make(map[string][]map[string]int),
	}
	// The total column is addressed by position; an arm may itself be
	// called Total.
	index := make(map[string]int, len(arms))
	for i, a := range arms {
		index[a] = i
	}
	total := len(arms)

	out.N = make([]int, len(out.Columns))
	values := make(map[string][][]float64)
	for _, v := range continuous {
		values[v] = make([][]float64, len(out.Columns))
	}
	for _, v := range categorical {
		out.Categorical[v] = make([]map[string]int, len(out.Columns))
		for i := range out.Columns {
			out.Categorical[v][i] = make(map[string]int)
		}
	}

	subjects.Each(func(r derive.Row) {
		a := r.Get(arm)
		if a == "" {
			a = missing
		}
		for _, i := range []int{index[a], total} {
			out.N[i]++
			for _, v := range continuous {
				if d := r.Decimal(v); d.Valid {
					f, _ := d.Decimal.Float64()
					values[v][i] = append(values[v][i], f)
				}
			}
			for _, v := range categorical {
				c := r.Get(v)
				if c == "" {
					c = missing
				}
				out.Categorical[v][i][c]++
			}
		}
	})

	for _, v := range continuous {
		out.Continuous[v] = make([]Continuous, len(out.Columns))
		for i := range out.Columns {
			out.Continuous[v][i] = Summarize(values[v][i])
		}
	}

	return out, nil
}

func formatFloat(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return derive.NullMarker
	}

	return strconv.FormatFloat(v, 'f', digits, 64)
}

// WriteTSV writes continuous variables first, then categorical variables
// with their categories in sorted order, each in the order given.
func (t Table) WriteTSV(w io.Writer, continuous, categorical []string) error {
	header := []string{"Variable", "Statistic"}
	for i, c := range t.Columns {
		header = append(header, fmt.Sprintf("%s (N=%d)", c, t.N[i]))
	}

	lines := [][]string{header}
	line := func(variable, statistic string, cell func(i int) string) {
		l := []string{variable, statistic}
		for i := range t.Columns {
			l = append(l, cell(i))
		}
		lines = append(lines, l)
	}

	for _, v := range continuous {
		stats := t.Continuous[v]
		empty := func(i int, s string) string {
			if stats[i].N == 0 {
				return derive.NullMarker
			}
			return s
		}
		line(v, "n", func(i int) string { return strconv.Itoa(stats[i].N) })
		line(v, "Mean", func(i int) string { return empty(i, formatFloat(stats[i].Mean, 1)) })
		line(v, "SD", func(i int) string { return empty(i, formatFloat(stats[i].SD, 2)) })
		line(v, "Median", func(i int) string { return empty(i, formatFloat(stats[i].Median, 1)) })
		line(v, "Min", func(i int) string { return empty(i, formatFloat(stats[i].Min, -1)) })
		line(v, "Max", func(i int) string { return empty(i, formatFloat(stats[i].Max, -1)) })
	}

	for _, v := range categorical {
		counts := t.Categorical[v]
		categories := make([]string, 0, len(counts[len(counts)-1]))
		for c := range counts[len(counts)-1] {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		for _, c := range categories {
			line(v, c, func(i int) string {
				n := counts[i][c]
				if t.N[i] == 0 {
					return strconv.Itoa(n)
				}
				return fmt.Sprintf("%d (%.1f%%)", n, 100*float64(n)/float64(t.N[i]))
			})
		}
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, strings.Join(l, "\t")); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
