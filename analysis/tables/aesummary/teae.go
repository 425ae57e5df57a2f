package main

import (
	"cloud.google.com/go/civil"
	"github.com/broadinstitute/cdiscderive/derive"
)

var subjectKey = []string{"STUDYID", "USUBJID"}

// Subject-level variables carried onto each adverse event.
var adslVars = []string{"TRT01A", "TRTSDT", "TRTEDT", "SAFFL"}

// FlagTEAE joins the ADSL treatment variables onto AE and sets TRTEMFL. An
// event is treatment emergent when it starts on or after the first dose and
// no later than window days after the last dose. An event without a complete
// start date is emergent unless it ended before the first dose.
func FlagTEAE(adsl, ae *derive.Table, window int) (*derive.Table, error) {
	if err := adsl.Require(append(append([]string(nil), subjectKey...), adslVars...)...); err != nil {
		return nil, err
	}
	if err := ae.Require("STUDYID", "USUBJID", "AESEQ", "AESTDTC", "AEENDTC", "AEBODSYS", "AEDECOD"); err != nil {
		return nil, err
	}

	subjects, err := derive.NewDataset("ADSL", adsl, subjectKey...)
	if err != nil {
		return nil, err
	}
	adae, err := derive.NewDataset("ADAE", ae, "STUDYID", "USUBJID", "AESEQ")
	if err != nil {
		return nil, err
	}

	for _, col := range adslVars {
		col := col
		adae.Derive(col, func(r derive.Row) string {
			return subjects.Get(derive.KeyOf(r, subjectKey), col)
		})
	}

	adae.Derive("ASTDT", func(r derive.Row) string { return derive.FormatDate(dtcDate(r, "AESTDTC")) })
	adae.Derive("AENDT", func(r derive.Row) string { return derive.FormatDate(dtcDate(r, "AEENDTC")) })
	adae.Derive("TRTEMFL", func(r derive.Row) string {
		if emergent(dtcDate(r, "ASTDT"), dtcDate(r, "AENDT"), dtcDate(r, "TRTSDT"), dtcDate(r, "TRTEDT"), window) {
			return "Y"
		}
		return ""
	})

	return adae.Table(), nil
}

func dtcDate(r derive.Row, col string) civil.Date {
	d, _, ok := derive.ParseDTCDate(r.Get(col), derive.NoImputation)
	if !ok {
		return civil.Date{}
	}

	return d
}

func emergent(start, end, first, last civil.Date, window int) bool {
	if !first.IsValid() {
		return false
	}

	if !start.IsValid() {
		return !end.IsValid() || !end.Before(first)
	}

	if start.Before(first) {
		return false
	}

	return !last.IsValid() || !start.After(last.AddDays(window))
}
