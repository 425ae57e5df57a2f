package main

import (
	"log"

	"cloud.google.com/go/civil"
	"github.com/broadinstitute/cdiscderive/derive"
)

const dispositionEvent = "DISPOSITION EVENT"

// Partial dates are imputed to the start of the missing period.
var startOfPeriod = derive.Imputation{Highest: derive.ImputeMonth, Date: derive.First}

// count returns the number of subjects with a value in col.
func count(d *derive.Dataset, col string) int {
	N := 0
	for _, key := range d.Keys() {
		if d.Get(key, col) != "" {
			N++
		}
	}

	return N
}

// dateOf reads a derived date or datetime column.
func dateOf(r derive.Row, col string) civil.Date {
	d, _, ok := derive.ParseDTCDate(r.Get(col), derive.NoImputation)
	if !ok {
		return civil.Date{}
	}

	return d
}

func AddTreatments(d *derive.Dataset, _ Sources) (int, error) {
	d.Derive("TRT01P", func(r derive.Row) string { return r.Get("ARM") })
	d.Derive("TRT01A", func(r derive.Row) string { return r.Get("ACTARM") })

	return count(d, "TRT01A"), nil
}

// AddTreatmentStart sets TRTSDTM from the first exposure with a valid dose.
// A missing time is imputed to 00:00:00.
func AddTreatmentStart(d *derive.Dataset, src Sources) (int, error) {
	order := []derive.OrderKey{derive.DatetimeKey("EXSTDTC", derive.FirstTime), derive.NumberKey("EXSEQ")}

	winners, err := derive.SelectExtreme(src.EX, subjectKey, validExposure, order, derive.ModeFirst)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, len(winners))
	for key, w := range winners {
		values[key] = map[string]string{
			"TRTSDTM": derive.FormatDatetime(w.Primary),
			"TRTSTMF": w.TimeFlag,
		}
	}

	return d.Merge(values, "TRTSDTM", "TRTSTMF"), nil
}

// AddTreatmentEnd sets TRTEDTM from the last exposure with a valid dose. A
// missing time is imputed to 23:59:59.
func AddTreatmentEnd(d *derive.Dataset, src Sources) (int, error) {
	order := []derive.OrderKey{derive.DatetimeKey("EXENDTC", derive.LastTime), derive.NumberKey("EXSEQ")}

	winners, err := derive.SelectExtreme(src.EX, subjectKey, validExposure, order, derive.ModeLast)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, len(winners))
	for key, w := range winners {
		values[key] = map[string]string{
			"TRTEDTM": derive.FormatDatetime(w.Primary),
			"TRTETMF": w.TimeFlag,
		}
	}

	return d.Merge(values, "TRTEDTM", "TRTETMF"), nil
}

func AddTreatmentDates(d *derive.Dataset, _ Sources) (int, error) {
	d.Derive("TRTSDT", func(r derive.Row) string { return derive.FormatDate(dateOf(r, "TRTSDTM")) })
	d.Derive("TRTEDT", func(r derive.Row) string { return derive.FormatDate(dateOf(r, "TRTEDTM")) })
	d.Derive("TRTDURD", func(r derive.Row) string {
		return derive.FormatInt(derive.DurationDays(dateOf(r, "TRTSDT"), dateOf(r, "TRTEDT")))
	})

	return count(d, "TRTDURD"), nil
}

// eosStatus maps the last disposition event to EOSSTT. Subjects without one
// are ONGOING.
var eosStatus = derive.Rules{
	{When: derive.Equals("DSDECOD", "COMPLETED"), Value: "COMPLETED"},
	{When: derive.Equals("DSDECOD", "SCREEN FAILURE"), Value: ""},
	{When: derive.Always, Value: "DISCONTINUED"},
}

// AddDisposition sets EOSDT, EOSSTT, DCSREAS and DCSREASP from the
// disposition events in DS.
func AddDisposition(d *derive.Dataset, src Sources) (int, error) {
	isEvent := derive.Equals("DSCAT", dispositionEvent)
	bySeq := []derive.OrderKey{derive.NumberKey("DSSEQ")}

	ended, err := derive.SelectExtreme(src.DS, subjectKey,
		derive.All(isEvent, derive.Not(derive.Equals("DSDECOD", "SCREEN FAILURE"))),
		[]derive.OrderKey{derive.DateKey("DSSTDTC", derive.NoImputation), derive.NumberKey("DSSEQ")},
		derive.ModeLast)
	if err != nil {
		return 0, err
	}

	status, err := derive.SelectExtreme(src.DS, subjectKey, isEvent, bySeq, derive.ModeLast)
	if err != nil {
		return 0, err
	}

	reasons, err := derive.SelectExtreme(src.DS, subjectKey,
		derive.All(isEvent, derive.Present("DSDECOD"), derive.Not(derive.In("DSDECOD", "COMPLETED", "SCREEN FAILURE"))),
		bySeq, derive.ModeLast)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, d.Len())
	for _, key := range d.Keys() {
		v := map[string]string{"EOSSTT": "ONGOING"}
		if w, exists := status[key]; exists {
			v["EOSSTT"] = eosStatus.Apply(w.Row).ValueOrZero()
		}
		if w, exists := ended[key]; exists {
			v["EOSDT"] = derive.FormatDate(civil.DateOf(w.Primary))
		}
		if w, exists := reasons[key]; exists {
			v["DCSREAS"] = w.Get("DSDECOD")
			if v["DCSREAS"] == "OTHER" {
				v["DCSREASP"] = w.Get("DSTERM")
			}
		}
		values[key] = v
	}
	d.Merge(values, "EOSDT", "EOSSTT", "DCSREAS", "DCSREASP")

	return len(status), nil
}

func AddRandomization(d *derive.Dataset, src Sources) (int, error) {
	winners, err := derive.SelectExtreme(src.DS, subjectKey,
		derive.Equals("DSDECOD", "RANDOMIZED"),
		[]derive.OrderKey{derive.DateKey("DSSTDTC", derive.NoImputation), derive.NumberKey("DSSEQ")},
		derive.ModeFirst)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, len(winners))
	for key, w := range winners {
		values[key] = map[string]string{"RANDDT": derive.FormatDate(civil.DateOf(w.Primary))}
	}

	return d.Merge(values, "RANDDT"), nil
}

// AddDeath sets DTHDT from DM.DTHDTC, imputing a missing day or month to the
// first of the period, and the days from first and last dose to death.
func AddDeath(d *derive.Dataset, _ Sources) (int, error) {
	d.Derive("DTHDT", func(r derive.Row) string {
		dt, _, ok := derive.ParseDTCDate(r.Get("DTHDTC"), startOfPeriod)
		if !ok {
			return ""
		}
		return derive.FormatDate(dt)
	})
	d.Derive("DTHDTF", func(r derive.Row) string {
		_, flag, _ := derive.ParseDTCDate(r.Get("DTHDTC"), startOfPeriod)
		return flag
	})
	d.Derive("DTHADY", func(r derive.Row) string {
		return derive.FormatInt(derive.StudyDay(dateOf(r, "DTHDT"), dateOf(r, "TRTSDT")))
	})
	d.Derive("LDDTHELD", func(r derive.Row) string {
		return derive.FormatInt(derive.DaysBetween(dateOf(r, "TRTEDT"), dateOf(r, "DTHDT")))
	})

	return count(d, "DTHDT"), nil
}

// AddDeathCause takes the earliest of a fatal adverse event and a death
// disposition record.
func AddDeathCause(d *derive.Dataset, src Sources) (int, error) {
	sources := []derive.Source{
		{
			Name:      "AE",
			Table:     src.AE,
			Qualifies: derive.Equals("AEOUT", "FATAL"),
			Date:      derive.DateKey("AESTDTC", derive.NoImputation),
			TieBreak:  []derive.OrderKey{derive.NumberKey("AESEQ")},
			Set:       map[string]string{"DTHDOM": "AE"},
			Copy:      map[string]string{"DTHCAUS": "AEDECOD"},
		},
		{
			Name:      "DS",
			Table:     src.DS,
			Qualifies: derive.All(derive.Equals("DSDECOD", "DEATH"), derive.Contains("DSTERM", "DEATH DUE TO")),
			Date:      derive.DateKey("DSSTDTC", derive.NoImputation),
			TieBreak:  []derive.OrderKey{derive.NumberKey("DSSEQ")},
			Set:       map[string]string{"DTHDOM": "DS"},
			Copy:      map[string]string{"DTHCAUS": "DSTERM"},
		},
	}

	events, err := derive.AggregateExtreme(sources, subjectKey, derive.ModeFirst)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, len(events))
	for key, e := range events {
		values[key] = e.Values
	}

	return d.Merge(values, "DTHCAUS", "DTHDOM"), nil
}

// lastAliveSources are the records that show a subject was alive on a date.
func lastAliveSources(d *derive.Dataset, src Sources) []derive.Source {
	event := func(name string, t *derive.Table, dtc, seq string, qualifies derive.Predicate) derive.Source {
		return derive.Source{
			Name:      name,
			Table:     t,
			Qualifies: qualifies,
			Date:      derive.DateKey(dtc, startOfPeriod),
			TieBreak:  []derive.OrderKey{derive.NumberKey(seq)},
			Set:       map[string]string{"LALVDOMAIN": t.Name, "LALVVAR": dtc},
			Copy:      map[string]string{"LALVSEQ": seq},
		}
	}

	return []derive.Source{
		event("AE.AESTDTC", src.AE, "AESTDTC", "AESEQ", nil),
		event("AE.AEENDTC", src.AE, "AEENDTC", "AESEQ", nil),
		event("VS", src.VS, "VSDTC", "VSSEQ", derive.Any(derive.Present("VSSTRESN"), derive.Present("VSSTRESC"))),
		event("DS", src.DS, "DSSTDTC", "DSSEQ", nil),
		{
			Name:  "ADSL",
			Table: d.Table(),
			Date:  derive.DateKey("TRTEDT", derive.NoImputation),
			Set:   map[string]string{"LALVDOMAIN": "ADSL", "LALVVAR": "TRTEDT"},
		},
	}
}

// AddLastAlive sets LSTALVDT to the latest date any source shows the subject
// alive, and records where that date came from.
func AddLastAlive(d *derive.Dataset, src Sources) (int, error) {
	events, err := derive.AggregateExtreme(lastAliveSources(d, src), subjectKey, derive.ModeLast)
	if err != nil {
		return 0, err
	}

	values := make(map[derive.Key]map[string]string, len(events))
	for key, e := range events {
		v := map[string]string{"LSTALVDT": derive.FormatDate(e.Date())}
		for col, value := range e.Values {
			v[col] = value
		}
		values[key] = v
	}

	return d.Merge(values, "LSTALVDT", "LALVDOMAIN", "LALVSEQ", "LALVVAR"), nil
}

// AddPopulationFlags sets SAFFL for subjects with any valid dose and ITTFL for
// randomized subjects, i.e. those with a planned arm.
func AddPopulationFlags(d *derive.Dataset, src Sources) (int, error) {
	dosed := make(map[derive.Key]struct{})
	src.EX.Filter(validExposure).Each(func(r derive.Row) {
		dosed[derive.KeyOf(r, subjectKey)] = struct{}{}
	})

	N := d.MergeFlag("SAFFL", dosed, "Y", "N")

	d.Derive("ITTFL", func(r derive.Row) string {
		if r.Missing("ARMCD") {
			return "N"
		}
		return "Y"
	})

	return N, nil
}

var ageGroups = derive.Rules{
	{When: derive.LessThan("AGE", 18), Value: "<18"},
	{When: derive.Between("AGE", 18, 64), Value: "18-64"},
	{When: derive.GreaterThan("AGE", 64), Value: ">64"},
	{When: derive.Absent("AGE"), Value: "Missing"},
}

var regions = derive.Rules{
	{When: derive.In("COUNTRY", "CAN", "USA"), Value: "North America"},
	{When: derive.Present("COUNTRY"), Value: "Rest of the World"},
	{When: derive.Absent("COUNTRY"), Value: "Missing"},
}

func AddGroupings(d *derive.Dataset, _ Sources) (int, error) {
	d.DeriveCategory("AGEGR1", ageGroups)
	d.DeriveCategory("REGION1", regions)

	N := 0
	for _, key := range d.Keys() {
		if g := d.Get(key, "AGEGR1"); g != "" && g != "Missing" {
			N++
		}
	}

	return N, nil
}

// AddStudyDays derives RANDDY, EOSDY and LSTALVDY. The reference date is
// TRTSDT of ADSL itself rather than of a separate DM backbone.
func AddStudyDays(d *derive.Dataset, _ Sources) (int, error) {
	log.Println("Study days are relative to TRTSDT of ADSL")

	if err := derive.DeriveStudyDays(d, d, "TRTSDT", "RANDDT", "EOSDT", "LSTALVDT"); err != nil {
		return 0, err
	}

	N := 0
	for _, key := range d.Keys() {
		if d.Get(key, "RANDDY") != "" || d.Get(key, "EOSDY") != "" || d.Get(key, "LSTALVDY") != "" {
			N++
		}
	}

	return N, nil
}
