package main

import (
	"testing"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() Sources {
	return Sources{
		DM: derive.NewTable("DM", []string{"STUDYID", "USUBJID", "SUBJID", "ARMCD", "ARM", "ACTARM", "AGE", "SEX", "COUNTRY", "DTHDTC"}, [][]string{
			{"ST1", "S1", "001", "A", "Drug A", "Drug A", "34", "F", "USA", ""},
			{"ST1", "S2", "002", "A", "Drug A", "Drug A", "71", "M", "GBR", "2024-05"},
			{"ST1", "S3", "003", "", "Screen Failure", "Screen Failure", "17", "F", "", ""},
		}),
		EX: derive.NewTable("EX", []string{"STUDYID", "USUBJID", "EXSEQ", "EXTRT", "EXDOSE", "EXSTDTC", "EXENDTC"}, [][]string{
			{"ST1", "S1", "1", "DRUG A", "10", "2024-01-05", "2024-01-09"},
			{"ST1", "S1", "2", "PLACEBO", "0", "2024-01-10T08:00", "2024-01-20"},
			{"ST1", "S3", "1", "DRUG A", "0", "2024-02-01", "2024-02-03"},
		}),
		AE: derive.NewTable("AE", []string{"STUDYID", "USUBJID", "AESEQ", "AESTDTC", "AEENDTC", "AEOUT", "AEDECOD"}, [][]string{
			{"ST1", "S1", "1", "2024-01-07", "2024-02-10", "RECOVERED/RESOLVED", "HEADACHE"},
			{"ST1", "S2", "1", "2024-04-20", "", "FATAL", "MYOCARDIAL INFARCTION"},
		}),
		VS: derive.NewTable("VS", []string{"STUDYID", "USUBJID", "VSSEQ", "VSDTC", "VSSTRESN", "VSSTRESC"}, [][]string{
			{"ST1", "S1", "1", "2024-03-01", "120", "120"},
			{"ST1", "S1", "2", "2024-04-01", "", ""},
		}),
		DS: derive.NewTable("DS", []string{"STUDYID", "USUBJID", "DSSEQ", "DSCAT", "DSDECOD", "DSTERM", "DSSTDTC"}, [][]string{
			{"ST1", "S1", "1", "PROTOCOL MILESTONE", "RANDOMIZED", "Randomized", "2024-01-03"},
			{"ST1", "S1", "2", "DISPOSITION EVENT", "COMPLETED", "Completed", "2024-03-15"},
			{"ST1", "S2", "1", "PROTOCOL MILESTONE", "RANDOMIZED", "Randomized", "2024-01-04"},
			{"ST1", "S2", "2", "DISPOSITION EVENT", "DEATH", "DEATH DUE TO MYOCARDIAL INFARCTION", "2024-04-25"},
			{"ST1", "S3", "1", "DISPOSITION EVENT", "SCREEN FAILURE", "Screen failure", "2024-01-02"},
		}),
	}
}

// subject returns the output row of one subject as a column => value map.
func subject(t *testing.T, adsl *derive.Table, usubjid string) map[string]string {
	t.Helper()

	for i := range adsl.Rows {
		r := adsl.Row(i)
		if r.Get("USUBJID") != usubjid {
			continue
		}
		out := make(map[string]string, len(adsl.Header))
		for _, col := range adsl.Header {
			out[col] = r.Get(col)
		}
		return out
	}

	t.Fatalf("no ADSL record for %s", usubjid)
	return nil
}

func TestDerive(t *testing.T) {
	adsl, err := Derive(fixture())
	require.NoError(t, err)

	// Every DM subject is kept, with or without exposure.
	require.Equal(t, 3, adsl.Len())

	tests := []struct {
		usubjid string
		want    map[string]string
	}{
		{"S1", map[string]string{
			"TRT01P": "Drug A", "TRT01A": "Drug A",
			"TRTSDTM": "2024-01-05T00:00:00", "TRTSTMF": "H",
			"TRTEDTM": "2024-01-20T23:59:59", "TRTETMF": "H",
			"TRTSDT": "2024-01-05", "TRTEDT": "2024-01-20", "TRTDURD": "16",
			"RANDDT": "2024-01-03", "RANDDY": "-2",
			"EOSDT": "2024-03-15", "EOSDY": "71", "EOSSTT": "COMPLETED", "DCSREAS": "",
			"DTHDT": "", "DTHCAUS": "",
			"LSTALVDT": "2024-03-15", "LALVDOMAIN": "DS", "LALVSEQ": "2", "LALVVAR": "DSSTDTC", "LSTALVDY": "71",
			"SAFFL": "Y", "ITTFL": "Y", "AGEGR1": "18-64", "REGION1": "North America",
		}},
		{"S2", map[string]string{
			"TRTSDTM": "", "TRTSTMF": "", "TRTSDT": "", "TRTDURD": "",
			"RANDDT": "2024-01-04", "RANDDY": "",
			"EOSDT": "2024-04-25", "EOSSTT": "DISCONTINUED", "DCSREAS": "DEATH", "DCSREASP": "",
			"DTHDT": "2024-05-01", "DTHDTF": "D", "DTHADY": "", "LDDTHELD": "",
			"DTHCAUS": "MYOCARDIAL INFARCTION", "DTHDOM": "AE",
			"LSTALVDT": "2024-04-25", "LALVDOMAIN": "DS", "LALVSEQ": "2",
			"SAFFL": "N", "ITTFL": "Y", "AGEGR1": ">64", "REGION1": "Rest of the World",
		}},
		{"S3", map[string]string{
			"TRTSDTM": "", "EOSDT": "", "EOSSTT": "", "DCSREAS": "", "RANDDT": "",
			"LSTALVDT": "2024-01-02", "LALVDOMAIN": "DS", "LALVSEQ": "1",
			"SAFFL": "N", "ITTFL": "N", "AGEGR1": "<18", "REGION1": "Missing",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.usubjid, func(t *testing.T) {
			got := subject(t, adsl, tt.usubjid)
			for col, want := range tt.want {
				assert.Equal(t, want, got[col], col)
			}
		})
	}
}

func TestDeriveColumnOrder(t *testing.T) {
	adsl, err := Derive(fixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"STUDYID", "USUBJID", "SUBJID", "AGE", "AGEGR1", "SEX", "COUNTRY", "REGION1"}, adsl.Header[:8])
	assert.NotContains(t, adsl.Header, "SITEID")
	assert.Equal(t, "ITTFL", adsl.Header[len(adsl.Header)-1])
}

func TestDeriveIsRepeatable(t *testing.T) {
	src := fixture()

	a, err := Derive(src)
	require.NoError(t, err)
	b, err := Derive(src)
	require.NoError(t, err)

	assert.Equal(t, a.Rows, b.Rows)

	// Sources are not modified.
	assert.Equal(t, fixture().DM.Rows, src.DM.Rows)
}

func TestDeriveLastAliveFromTreatmentEnd(t *testing.T) {
	src := fixture()
	src.AE = derive.NewTable("AE", src.AE.Header, nil)
	src.VS = derive.NewTable("VS", src.VS.Header, nil)
	src.DS = derive.NewTable("DS", src.DS.Header, nil)

	adsl, err := Derive(src)
	require.NoError(t, err)

	s1 := subject(t, adsl, "S1")
	assert.Equal(t, "2024-01-20", s1["LSTALVDT"])
	assert.Equal(t, "ADSL", s1["LALVDOMAIN"])
	assert.Equal(t, "TRTEDT", s1["LALVVAR"])
	assert.Equal(t, "", s1["LALVSEQ"])
	assert.Equal(t, "ONGOING", s1["EOSSTT"])

	assert.Equal(t, "", subject(t, adsl, "S2")["LSTALVDT"])
}

func TestDeriveMissingColumn(t *testing.T) {
	src := fixture()
	src.EX = derive.NewTable("EX", []string{"STUDYID", "USUBJID", "EXSEQ", "EXSTDTC"}, nil)

	_, err := Derive(src)
	assert.ErrorIs(t, err, derive.ErrMissingColumn)
}
