package derive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDelimitedRaggedRows(t *testing.T) {
	data := "\ufeffSTUDYID,USUBJID,AGE\nST1,S1,34\nST1,S2\nST1,S3,17,extra\n"

	tbl, err := readDelimited("DM", strings.NewReader(data), ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"STUDYID", "USUBJID", "AGE"}, tbl.Header)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "", tbl.Row(1).Get("AGE"))
	assert.Equal(t, []string{"ST1", "S3", "17"}, tbl.Rows[2])
}

func TestReadDelimitedEmpty(t *testing.T) {
	_, err := readDelimited("DM", strings.NewReader(""), ',')
	assert.Error(t, err)
}

func TestReadTableSniffsTabs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ex.tsv")
	require.NoError(t, os.WriteFile(path, []byte("STUDYID\tUSUBJID\tEXDOSE\nST1\tS1\t10\nST1\tS2\tNA\n"), 0o644))

	tbl, err := ReadTable("EX", path)
	require.NoError(t, err)

	assert.Equal(t, "EX", tbl.Name)
	assert.Equal(t, "10", tbl.Row(0).Get("EXDOSE"))
	assert.True(t, tbl.Row(1).Missing("EXDOSE"))
}

func TestNewTableCopiesHeader(t *testing.T) {
	header := []string{" STUDYID", "USUBJID "}
	tbl := NewTable("DM", header, nil)

	assert.Equal(t, []string{"STUDYID", "USUBJID"}, tbl.Header)
	assert.Equal(t, []string{" STUDYID", "USUBJID "}, header)

	tbl.Header[0] = "SUBJID"
	assert.Equal(t, " STUDYID", header[0])
}

func TestRequire(t *testing.T) {
	tbl := NewTable("DM", []string{" STUDYID", "USUBJID "}, nil)

	assert.NoError(t, tbl.Require("STUDYID", "USUBJID"))

	err := tbl.Require("USUBJID", "AGE", "SEX")
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "AGE, SEX")
}

func TestFilter(t *testing.T) {
	tbl := NewTable("AE", []string{"USUBJID", "AESER"}, [][]string{{"S1", "Y"}, {"S2", "N"}, {"S3", "Y"}})

	serious := tbl.Filter(Equals("AESER", "Y"))

	assert.Equal(t, 2, serious.Len())
	assert.Equal(t, "S3", serious.Row(1).Get("USUBJID"))
	assert.Equal(t, 3, tbl.Len())
}

func TestWriteCSV(t *testing.T) {
	tbl := NewTable("ADSL", []string{"USUBJID", "TRTSDT", "SAFFL"}, [][]string{
		{"S1", "2024-01-05", "Y"},
		{"S2", "", "N"},
		{"S3"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, "NA"))

	assert.Equal(t, "USUBJID,TRTSDT,SAFFL\nS1,2024-01-05,Y\nS2,NA,N\nS3,NA,NA\n", buf.String())
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", "  ", "NA", "na", " NA "} {
		assert.True(t, IsMissing(v), "%q", v)
	}
	for _, v := range []string{"N", "0", "NAB"} {
		assert.False(t, IsMissing(v), "%q", v)
	}
}
