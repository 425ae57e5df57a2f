package derive

import (
	"fmt"
	"log"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// WriteSQLite replaces the table of the same name in a SQLite database with
// the contents of t. All columns are TEXT and missing cells are NULL.
func WriteSQLite(path string, t *Table) error {
	db, err := sqlx.Open("sqlite", genomisc.ExpandHome(path))
	if err != nil {
		return pfx.Err(err)
	}
	defer db.Close()

	name := quoteIdent(strings.ToLower(t.Name))
	cols := make([]string, len(t.Header))
	marks := make([]string, len(t.Header))
	for i, col := range t.Header {
		cols[i] = quoteIdent(col) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + name); err != nil {
		return pfx.Err(err)
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(cols, ", "))); err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.Preparex(fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, strings.Join(marks, ", ")))
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Header))
	for i := range t.Rows {
		r := t.Row(i)
		for j, col := range t.Header {
			if v := r.Get(col); v != "" {
				args[j] = v
			} else {
				args[j] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return pfx.Err(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	log.Printf("Wrote %d %s records to %s\n", t.Len(), t.Name, path)

	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
