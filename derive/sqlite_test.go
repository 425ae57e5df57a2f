package derive

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adam.db")

	tbl := NewTable("ADSL", []string{"USUBJID", "TRTSDT", "SAFFL"}, [][]string{
		{"S1", "2024-01-05", "Y"},
		{"S2", "NA", "N"},
	})

	// Writing twice replaces the table rather than appending.
	require.NoError(t, WriteSQLite(path, tbl))
	require.NoError(t, WriteSQLite(path, tbl))

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	type record struct {
		USUBJID string      `db:"USUBJID"`
		TRTSDT  null.String `db:"TRTSDT"`
		SAFFL   string      `db:"SAFFL"`
	}

	records := make([]record, 0)
	require.NoError(t, db.Select(&records, `SELECT * FROM adsl ORDER BY USUBJID`))

	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-05", records[0].TRTSDT.String)
	assert.False(t, records[1].TRTSDT.Valid)
	assert.Equal(t, "N", records[1].SAFFL)
}
