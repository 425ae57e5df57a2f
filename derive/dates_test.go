package derive

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDTC(t *testing.T) {
	tests := []struct {
		name     string
		dtc      string
		imp      Imputation
		want     time.Time
		dateFlag string
		timeFlag string
		ok       bool
	}{
		{"complete", "2024-01-05T10:11:12", NoImputation, time.Date(2024, 1, 5, 10, 11, 12, 0, time.UTC), "", "", true},
		{"fraction of second", "2024-01-05T10:11:12.5", NoImputation, time.Date(2024, 1, 5, 10, 11, 12, 0, time.UTC), "", "", true},
		{"date only, no imputation", "2024-01-05", NoImputation, time.Time{}, "", "", false},
		{"date only, first time", "2024-01-05", FirstTime, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "", "H", true},
		{"date only, last time", "2024-01-05", LastTime, time.Date(2024, 1, 5, 23, 59, 59, 0, time.UTC), "", "H", true},
		{"missing seconds", "2024-01-05T08:30", FirstTime, time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC), "", "S", true},
		{"missing minutes", "2024-01-05T08", LastTime, time.Date(2024, 1, 5, 8, 59, 59, 0, time.UTC), "", "M", true},
		{"missing day above highest", "2024-01", FirstTime, time.Time{}, "", "", false},
		{"missing day first", "2024-02", Imputation{Highest: ImputeDay, Date: First}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "D", "H", true},
		{"missing day last in leap year", "2024-02", Imputation{Highest: ImputeDay, Date: Last, Time: Last}, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), "D", "H", true},
		{"missing day mid", "2023-02", Imputation{Highest: ImputeDay, Date: Mid}, time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), "D", "H", true},
		{"missing month first", "2024", Imputation{Highest: ImputeMonth}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "M", "H", true},
		{"missing month last", "2024", Imputation{Highest: ImputeMonth, Date: Last}, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "M", "H", true},
		{"missing month mid", "2024", Imputation{Highest: ImputeMonth, Date: Mid}, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), "M", "H", true},
		{"impossible date", "2023-02-30", FirstTime, time.Time{}, "", "", false},
		{"impossible hour", "2023-02-01T25:00:00", NoImputation, time.Time{}, "", "", false},
		{"not ISO", "05JAN2024", Imputation{Highest: ImputeMonth}, time.Time{}, "", "", false},
		{"empty", "", Imputation{Highest: ImputeMonth}, time.Time{}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDTC(tt.dtc, tt.imp)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, got.Time)
			assert.Equal(t, tt.dateFlag, got.DateFlag)
			assert.Equal(t, tt.timeFlag, got.TimeFlag)
		})
	}
}

func TestParseDTCDate(t *testing.T) {
	d, flag, ok := ParseDTCDate("2024-03-04T08:30", NoImputation)
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 4}, d)
	assert.Equal(t, "", flag)

	_, _, ok = ParseDTCDate("2024-03", NoImputation)
	assert.False(t, ok)

	d, flag, ok = ParseDTCDate("2024-03", Imputation{Highest: ImputeMonth, Date: Last})
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 31}, d)
	assert.Equal(t, "D", flag)
}

func TestFormatDTC(t *testing.T) {
	tests := []struct {
		date, time string
		want       string
	}{
		{"2024-01-05", "", "2024-01-05"},
		{"01/05/2024", "", "2024-01-05"},
		{"01/05/2024", "14:30", "2024-01-05T14:30"},
		{"2024-01-05", "14:30:15", "2024-01-05T14:30:15"},
		{"2024-01-05", "2:30 PM", "2024-01-05T14:30"},
		{"2024-01-05", "later", "2024-01-05"},
		{"", "14:30", ""},
		{"not a date", "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDTC(tt.date, tt.time), "%q %q", tt.date, tt.time)
	}
}

func TestFormatDateMissing(t *testing.T) {
	assert.Equal(t, "", FormatDate(civil.Date{}))
	assert.Equal(t, "", FormatDatetime(time.Time{}))
	assert.Equal(t, "2024-01-05T10:00:00", FormatDatetime(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)))
}
