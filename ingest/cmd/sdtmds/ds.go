package main

import (
	"log"
	"sort"
	"strconv"

	"github.com/broadinstitute/cdiscderive/derive"
)

// Columns of the raw disposition extract.
var rawColumns = []string{
	"STUDY",
	"PATNUM",
	"INSTANCE",
	"IT.DSTERM",
	"IT.DSDECOD",
	"OTHERSP",
	"DSDTCOL",
	"DSTMCOL",
	"IT.DSSTDAT",
}

var dsColumns = []string{
	"STUDYID",
	"DOMAIN",
	"USUBJID",
	"DSSEQ",
	"DSTERM",
	"DSDECOD",
	"DSCAT",
	"VISIT",
	"DSDTC",
	"DSSTDTC",
	"DSSTDY",
}

// dsCategory is decided on the raw record.
var dsCategory = derive.Rules{
	{When: derive.Present("OTHERSP"), Value: "OTHER EVENT"},
	{When: derive.Equals("IT.DSDECOD", "Randomized"), Value: "PROTOCOL MILESTONE"},
	{When: derive.Always, Value: "DISPOSITION EVENT"},
}

// BuildDS maps raw disposition records to the SDTM DS domain. Study days are
// relative to RFXSTDTC of dm.
func BuildDS(raw, dm *derive.Table, ct *derive.Terminology) (*derive.Table, error) {
	if err := raw.Require(rawColumns...); err != nil {
		return nil, err
	}
	if err := dm.Require("STUDYID", "USUBJID", "RFXSTDTC"); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, raw.Len())
	unmapped, undated := 0, 0
	raw.Each(func(r derive.Row) {
		term, decod := r.Get("IT.DSTERM"), ""
		if other := r.Get("OTHERSP"); other != "" {
			term, decod = other, other
		} else if v := ct.Map(derive.CodelistDispositionEvent, r.Get("IT.DSDECOD")); v.Valid {
			decod = v.String
		} else if !r.Missing("IT.DSDECOD") {
			unmapped++
		}

		stdtc := derive.FormatDTC(r.Get("IT.DSSTDAT"), "")
		if stdtc == "" && !r.Missing("IT.DSSTDAT") {
			undated++
		}

		rows = append(rows, []string{
			r.Get("STUDY"),
			"DS",
			r.Get("STUDY") + "-" + r.Get("PATNUM"),
			"",
			term,
			decod,
			dsCategory.Apply(r).ValueOrZero(),
			r.Get("INSTANCE"),
			derive.FormatDTC(r.Get("DSDTCOL"), r.Get("DSTMCOL")),
			stdtc,
			"",
		})
	})

	if unmapped > 0 {
		log.Println("Warning:", unmapped, "disposition terms had no match in codelist", derive.CodelistDispositionEvent)
	}
	if undated > 0 {
		log.Println("Warning:", undated, "disposition dates could not be read")
	}

	numberSequence(rows)

	ds, err := derive.NewDataset("DS", derive.NewTable("DS", append([]string(nil), dsColumns...), rows), "STUDYID", "USUBJID", "DSSEQ")
	if err != nil {
		return nil, err
	}
	ref, err := derive.NewDataset("DM", dm, "STUDYID", "USUBJID")
	if err != nil {
		return nil, err
	}
	if err := derive.DeriveStudyDays(ds, ref, "RFXSTDTC", "DSSTDTC"); err != nil {
		return nil, err
	}

	log.Println("Created", ds.Len(), "DS records for", countSubjects(rows), "subjects")

	return ds.Table(), nil
}

// numberSequence sorts rows by subject, start date and decoded term, and
// assigns DSSEQ within each subject. The sort is stable, and a missing start
// date sorts first.
func numberSequence(rows [][]string) {
	const (
		studyid = 0
		usubjid = 2
		dsseq   = 3
		decod   = 5
		stdtc   = 9
	)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, k := range []int{studyid, usubjid, stdtc, decod} {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	seq := 0
	for i, row := range rows {
		if i == 0 || row[studyid] != rows[i-1][studyid] || row[usubjid] != rows[i-1][usubjid] {
			seq = 0
		}
		seq++
		row[dsseq] = strconv.Itoa(seq)
	}
}

func countSubjects(rows [][]string) int {
	seen := make(map[string]struct{})
	for _, row := range rows {
		seen[row[0]+"\x1f"+row[2]] = struct{}{}
	}

	return len(seen)
}
