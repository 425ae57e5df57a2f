package derive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

const (
	DateFormat     = "2006-01-02"
	DatetimeFormat = "2006-01-02T15:04:05"
)

// Level is the highest date or time component that may be imputed. Levels
// are ordered: permitting Month also permits Day, Hour, and so on.
type Level int

const (
	ImputeNone Level = iota
	ImputeSecond
	ImputeMinute
	ImputeHour
	ImputeDay
	ImputeMonth
)

// Boundary selects where in the missing period an imputed value lands.
type Boundary int

const (
	First Boundary = iota
	Mid
	Last
)

// Imputation is the policy applied when a DTC is only partially recorded.
// The zero value imputes nothing, so partial values stay unresolved.
type Imputation struct {
	Highest Level
	Date    Boundary

	// Time is First or Last; Mid is treated as First.
	Time Boundary
}

var (
	NoImputation = Imputation{}

	// Common policies for datetimes recorded without a time.
	FirstTime = Imputation{Highest: ImputeHour, Time: First}
	LastTime  = Imputation{Highest: ImputeHour, Time: Last}
)

// DateTime is a resolved DTC together with its ADaM imputation flags.
type DateTime struct {
	Time time.Time

	// DateFlag is "M" when month and day were imputed, "D" when only the day
	// was.
	DateFlag string

	// TimeFlag is "H", "M" or "S" for the highest imputed time component.
	TimeFlag string
}

func (d DateTime) Date() civil.Date {
	return civil.DateOf(d.Time)
}

var dtcPattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2})(?::(\d{2})(?::(\d{2})(?:\.\d+)?)?)?)?)?)?$`)

type dtcParts struct {
	// -1 for components that were not recorded
	year, month, day, hour, minute, second int
}

func splitDTC(dtc string) (dtcParts, bool) {
	p := dtcParts{-1, -1, -1, -1, -1, -1}

	m := dtcPattern.FindStringSubmatch(strings.TrimSpace(dtc))
	if m == nil {
		return p, false
	}

	dst := []*int{&p.year, &p.month, &p.day, &p.hour, &p.minute, &p.second}
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return p, false
		}
		*dst[i] = v
	}

	return p, true
}

// missingDate is the date level that needs imputing, or ImputeNone.
func (p dtcParts) missingDate() Level {
	switch {
	case p.month < 0:
		return ImputeMonth
	case p.day < 0:
		return ImputeDay
	}

	return ImputeNone
}

func (p dtcParts) missingTime() Level {
	switch {
	case p.hour < 0:
		return ImputeHour
	case p.minute < 0:
		return ImputeMinute
	case p.second < 0:
		return ImputeSecond
	}

	return ImputeNone
}

func (p *dtcParts) imputeDate(b Boundary) (flag string) {
	if p.month < 0 {
		switch b {
		case Last:
			p.month, p.day = 12, 31
		case Mid:
			p.month, p.day = 6, 30
		default:
			p.month, p.day = 1, 1
		}
		return "M"
	}

	if p.day < 0 {
		switch b {
		case Last:
			p.day = daysIn(time.Month(p.month), p.year)
		case Mid:
			p.day = 15
		default:
			p.day = 1
		}
		return "D"
	}

	return ""
}

func (p *dtcParts) imputeTime(b Boundary) (flag string) {
	fill := func(v *int, last int) {
		if *v >= 0 {
			return
		}
		if b == Last {
			*v = last
		} else {
			*v = 0
		}
	}

	switch p.missingTime() {
	case ImputeHour:
		flag = "H"
	case ImputeMinute:
		flag = "M"
	case ImputeSecond:
		flag = "S"
	}

	fill(&p.hour, 23)
	fill(&p.minute, 59)
	fill(&p.second, 59)

	return flag
}

func (p dtcParts) valid() bool {
	if p.month < 1 || p.month > 12 || p.day < 1 || p.day > daysIn(time.Month(p.month), p.year) {
		return false
	}

	return p.hour < 24 && p.minute < 60 && p.second < 60
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDTC resolves an ISO 8601 (possibly partial) date-time under the
// imputation policy. It returns false when the value is malformed, or when a
// component above imp.Highest is missing.
func ParseDTC(dtc string, imp Imputation) (DateTime, bool) {
	p, ok := splitDTC(dtc)
	if !ok {
		return DateTime{}, false
	}

	need := p.missingDate()
	if need == ImputeNone {
		need = p.missingTime()
	}
	if need > imp.Highest {
		return DateTime{}, false
	}

	out := DateTime{}
	out.DateFlag = p.imputeDate(imp.Date)
	out.TimeFlag = p.imputeTime(imp.Time)

	if !p.valid() {
		return DateTime{}, false
	}

	out.Time = time.Date(p.year, time.Month(p.month), p.day, p.hour, p.minute, p.second, 0, time.UTC)

	return out, true
}

// ParseDTCDate resolves only the date portion of a DTC; any recorded time is
// ignored and never counts as missing.
func ParseDTCDate(dtc string, imp Imputation) (civil.Date, string, bool) {
	p, ok := splitDTC(dtc)
	if !ok {
		return civil.Date{}, "", false
	}

	if p.missingDate() > imp.Highest {
		return civil.Date{}, "", false
	}

	flag := p.imputeDate(imp.Date)
	p.hour, p.minute, p.second = 0, 0, 0
	if !p.valid() {
		return civil.Date{}, "", false
	}

	return civil.Date{Year: p.year, Month: time.Month(p.month), Day: p.day}, flag, true
}

func FormatDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}

	return d.String()
}

func FormatDatetime(t time.Time) string {
	if t.Equal(time.Time{}) {
		return ""
	}

	return t.Format(DatetimeFormat)
}

// Layouts that dateparse does not understand but CRF exports use.
var rawDateLayouts = []string{
	"02-Jan-2006",
	"02Jan2006",
	"02-Jan-2006 15:04",
	"02-Jan-2006 15:04:05",
}

// ParseRawDate reads a collected (CRF) date in whatever format the data
// provider used.
func ParseRawDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if IsMissing(raw) {
		return time.Time{}, fmt.Errorf("no date")
	}

	res, err := dateparse.ParseIn(raw, time.UTC)
	if err == nil {
		return res, nil
	}

	for _, layout := range rawDateLayouts {
		if res, lerr := time.Parse(layout, raw); lerr == nil {
			return res, nil
		}
	}

	return time.Time{}, err
}

var rawTimeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// FormatDTC builds an ISO 8601 DTC from a raw collected date and an optional
// raw collected time. It returns "" when the date cannot be read; an
// unreadable time is dropped and only the date is kept.
func FormatDTC(rawDate, rawTime string) string {
	d, err := ParseRawDate(rawDate)
	if err != nil {
		return ""
	}

	out := d.Format(DateFormat)

	rawTime = strings.TrimSpace(rawTime)
	if IsMissing(rawTime) {
		return out
	}

	for _, layout := range rawTimeLayouts {
		t, err := time.Parse(layout, strings.ToUpper(rawTime))
		if err != nil {
			continue
		}
		if strings.Count(layout, ":") == 2 {
			return out + "T" + t.Format("15:04:05")
		}
		return out + "T" + t.Format("15:04")
	}

	return out
}
