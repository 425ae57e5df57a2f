package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{71, 34, 40, 17})

	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 40.5, s.Mean, 1e-9)
	assert.InDelta(t, 22.5462, s.SD, 1e-4)
	assert.Equal(t, 37.0, s.Median)
	assert.Equal(t, 17.0, s.Min)
	assert.Equal(t, 71.0, s.Max)

	one := Summarize([]float64{50})
	assert.Equal(t, 50.0, one.Median)
	assert.True(t, math.IsNaN(one.SD))

	assert.Equal(t, 0, Summarize(nil).N)
}

func adsl() *derive.Table {
	return derive.NewTable("ADSL", []string{"STUDYID", "USUBJID", "TRT01A", "AGE", "SEX", "AGEGR1", "SAFFL"}, [][]string{
		{"ST1", "S1", "Drug A", "34", "F", "18-64", "Y"},
		{"ST1", "S2", "Drug A", "71", "M", ">64", "Y"},
		{"ST1", "S3", "Placebo", "40", "F", "18-64", "Y"},
		{"ST1", "S4", "Placebo", "", "", "Missing", "Y"},
		{"ST1", "S5", "Screen Failure", "17", "F", "<18", "N"},
	})
}

func TestBuild(t *testing.T) {
	tbl, err := Build(adsl(), derive.Equals("SAFFL", "Y"), "TRT01A", []string{"AGE"}, []string{"SEX"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Drug A", "Placebo", "Total"}, tbl.Columns)
	assert.Equal(t, []int{2, 2, 4}, tbl.N)

	age := tbl.Continuous["AGE"]
	assert.Equal(t, 2, age[0].N)
	assert.InDelta(t, 52.5, age[0].Mean, 1e-9)
	assert.Equal(t, 1, age[1].N)
	assert.Equal(t, 3, age[2].N)

	assert.Equal(t, map[string]int{"F": 1, "Missing": 1}, tbl.Categorical["SEX"][1])
	assert.Equal(t, map[string]int{"F": 2, "M": 1, "Missing": 1}, tbl.Categorical["SEX"][2])
}

func TestBuildArmNamedTotal(t *testing.T) {
	tbl, err := Build(derive.NewTable("ADSL", []string{"TRT01A", "AGE"}, [][]string{
		{"Total", "30"},
		{"Drug", "50"},
	}), derive.Always, "TRT01A", []string{"AGE"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Drug", "Total", "Total"}, tbl.Columns)
	assert.Equal(t, []int{1, 1, 2}, tbl.N)
	assert.InDelta(t, 30.0, tbl.Continuous["AGE"][1].Mean, 1e-9)
	assert.InDelta(t, 40.0, tbl.Continuous["AGE"][2].Mean, 1e-9)
}

func TestWriteTSV(t *testing.T) {
	tbl, err := Build(adsl(), derive.Equals("SAFFL", "Y"), "TRT01A", []string{"AGE"}, []string{"SEX"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteTSV(&buf, []string{"AGE"}, []string{"SEX"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Variable\tStatistic\tDrug A (N=2)\tPlacebo (N=2)\tTotal (N=4)", lines[0])
	assert.Equal(t, "AGE\tn\t2\t1\t3", lines[1])
	assert.Equal(t, "AGE\tSD\t26.16\tNA\t19.86", lines[3])
	assert.Equal(t, "AGE\tMin\t34\t40\t34", lines[5])
	assert.Equal(t, "SEX\tF\t1 (50.0%)\t1 (50.0%)\t2 (50.0%)", lines[7])
	assert.Equal(t, "SEX\tMissing\t0 (0.0%)\t1 (50.0%)\t1 (25.0%)", lines[9])
}

func TestBuildMissingColumn(t *testing.T) {
	_, err := Build(adsl(), derive.Always, "TRT01A", []string{"WEIGHT"}, nil)
	assert.ErrorIs(t, err, derive.ErrMissingColumn)
}
