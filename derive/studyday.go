package derive

import (
	"strconv"

	"cloud.google.com/go/civil"
	"gopkg.in/guregu/null.v3"
)

// StudyDay counts days from the reference date, which is day 1. There is no
// day 0: the day before the reference is day -1.
func StudyDay(date, ref civil.Date) null.Int {
	if !date.IsValid() || !ref.IsValid() {
		return null.Int{}
	}

	days := int64(date.DaysSince(ref))
	if days >= 0 {
		days++
	}

	return null.IntFrom(days)
}

// DurationDays is the inclusive length of a period in days.
func DurationDays(start, end civil.Date) null.Int {
	if !start.IsValid() || !end.IsValid() {
		return null.Int{}
	}

	return null.IntFrom(int64(end.DaysSince(start)) + 1)
}

// DaysBetween is end minus start without the study-day shift.
func DaysBetween(start, end civil.Date) null.Int {
	if !start.IsValid() || !end.IsValid() {
		return null.Int{}
	}

	return null.IntFrom(int64(end.DaysSince(start)))
}

func FormatInt(v null.Int) string {
	if !v.Valid {
		return ""
	}

	return strconv.FormatInt(v.Int64, 10)
}

// DeriveStudyDays adds a <prefix>DY column for each date column in vars. The
// reference date is read from ref, joined on ref's key; date columns
// may hold full ISO dates or DTCs, of which only the date part is used.
func DeriveStudyDays(d *Dataset, ref *Dataset, refVar string, vars ...string) error {
	if err := ref.Table().Require(refVar); err != nil {
		return err
	}
	if err := d.Table().Require(vars...); err != nil {
		return err
	}

	for _, v := range vars {
		v := v
		d.Derive(StudyDayName(v), func(r Row) string {
			date, _, ok := ParseDTCDate(r.Get(v), NoImputation)
			if !ok {
				return ""
			}
			refDate, _, ok := ParseDTCDate(ref.Get(KeyOf(r, ref.By), refVar), NoImputation)
			if !ok {
				return ""
			}
			return FormatInt(StudyDay(date, refDate))
		})
	}

	return nil
}

// StudyDayName maps a date variable to its study-day variable: RANDDT becomes
// RANDDY and DSSTDTC becomes DSSTDY.
func StudyDayName(v string) string {
	switch {
	case len(v) > 3 && v[len(v)-3:] == "DTC":
		return v[:len(v)-3] + "DY"
	case len(v) > 3 && v[len(v)-3:] == "DTM":
		return v[:len(v)-3] + "DY"
	case len(v) > 2 && v[len(v)-2:] == "DT":
		return v[:len(v)-2] + "DY"
	}

	return v + "DY"
}
