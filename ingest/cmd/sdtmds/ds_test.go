package main

import (
	"testing"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawDisposition() *derive.Table {
	return derive.NewTable("DS_RAW", append([]string(nil), rawColumns...), [][]string{
		{"ST1", "001", "WEEK 12", "Completed", "Completed", "", "2024-03-28", "", "28-Mar-2024"},
		{"ST1", "002", "WEEK 4", "Moved", "Other", "Moved to another city", "2024-02-10", "", "2024-02-09"},
		{"ST1", "001", "SCREENING", "Randomized", "Randomized", "", "01/05/2024", "09:00", "2024-01-05"},
		{"ST1", "002", "SCREENING", "Randomized", "Randomized", "", "2024-01-07", "", "2024-01-07"},
		{"ST1", "003", "SCREENING", "Screen failure", "Screen Failure", "", "", "", ""},
	})
}

func sdtmDM() *derive.Table {
	return derive.NewTable("DM", []string{"STUDYID", "USUBJID", "RFXSTDTC"}, [][]string{
		{"ST1", "ST1-001", "2024-01-05"},
		{"ST1", "ST1-002", "2024-01-08T10:00"},
		{"ST1", "ST1-003", ""},
	})
}

func TestBuildDS(t *testing.T) {
	ct, err := derive.DefaultTerminology()
	require.NoError(t, err)

	ds, err := BuildDS(rawDisposition(), sdtmDM(), ct)
	require.NoError(t, err)

	assert.Equal(t, dsColumns, ds.Header)
	assert.Equal(t, [][]string{
		{"ST1", "DS", "ST1-001", "1", "Randomized", "RANDOMIZED", "PROTOCOL MILESTONE", "SCREENING", "2024-01-05T09:00", "2024-01-05", "1"},
		{"ST1", "DS", "ST1-001", "2", "Completed", "COMPLETED", "DISPOSITION EVENT", "WEEK 12", "2024-03-28", "2024-03-28", "84"},
		{"ST1", "DS", "ST1-002", "1", "Randomized", "RANDOMIZED", "PROTOCOL MILESTONE", "SCREENING", "2024-01-07", "2024-01-07", "-1"},
		{"ST1", "DS", "ST1-002", "2", "Moved to another city", "Moved to another city", "OTHER EVENT", "WEEK 4", "2024-02-10", "2024-02-09", "33"},
		{"ST1", "DS", "ST1-003", "1", "Screen failure", "SCREEN FAILURE", "DISPOSITION EVENT", "SCREENING", "", "", ""},
	}, ds.Rows)
}

func TestBuildDSUnmappedTerm(t *testing.T) {
	ct := derive.NewTerminology([]derive.Term{{Codelist: derive.CodelistDispositionEvent, Value: "COMPLETED", Collected: "Completed"}})

	ds, err := BuildDS(rawDisposition(), sdtmDM(), ct)
	require.NoError(t, err)

	// Records are kept with a missing decoded term.
	require.Equal(t, 5, ds.Len())
	assert.Equal(t, "", ds.Row(0).Get("DSDECOD"))
	assert.Equal(t, "COMPLETED", ds.Row(1).Get("DSDECOD"))
}

func TestBuildDSMissingColumn(t *testing.T) {
	ct := derive.NewTerminology(nil)
	dm := derive.NewTable("DM", []string{"STUDYID", "USUBJID"}, nil)

	_, err := BuildDS(rawDisposition(), dm, ct)
	assert.ErrorIs(t, err, derive.ErrMissingColumn)
}
