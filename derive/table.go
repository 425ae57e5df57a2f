package derive

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/davecgh/go-spew/spew"
)

var (
	BufferSize = 4096 * 8

	// NullMarker is written in place of missing values.
	NullMarker = "NA"
)

// ErrMissingColumn is the only data problem that halts a run. Everything else
// degrades to a missing value.
var ErrMissingColumn = errors.New("required column is missing")

// Table is a read-only, row-oriented dataset. Every cell is kept as the raw
// string that was read; typed access goes through Row.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	index map[string]int
}

func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:   name,
		Header: make([]string, len(header)),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		t.Header[i] = col
		if _, exists := t.index[col]; !exists {
			t.index[col] = i
		}
	}

	return t
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Has(col string) bool {
	_, exists := t.index[col]
	return exists
}

// Require fails with ErrMissingColumn if any of the columns is absent.
func (t *Table) Require(cols ...string) error {
	missing := make([]string, 0)
	for _, col := range cols {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", t.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}

	return nil
}

func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Each visits the rows in input order.
func (t *Table) Each(fn func(Row)) {
	for i := range t.Rows {
		fn(t.Row(i))
	}
}

// Filter returns a new table holding the rows for which keep holds. Row data
// is shared with the receiver.
func (t *Table) Filter(keep Predicate) *Table {
	rows := make([][]string, 0)
	for i := range t.Rows {
		if keep(t.Row(i)) {
			rows = append(rows, t.Rows[i])
		}
	}

	return NewTable(t.Name, append([]string(nil), t.Header...), rows)
}

// ReadTable loads a delimited file. The delimiter is sniffed from the file, so
// CSV and TSV inputs are both accepted.
func ReadTable(name, path string) (*Table, error) {
	path = genomisc.ExpandHome(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	delim := genomisc.DetermineDelimiter(f)
	if _, err := f.Seek(0, 0); err != nil {
		return nil, pfx.Err(err)
	}

	t, err := readDelimited(name, bufio.NewReaderSize(f, BufferSize), delim)
	if err != nil {
		return nil, pfx.Err(fmt.Sprintf("%s: %s", path, err))
	}

	log.Printf("Read %d %s records from %s\n", t.Len(), name, path)

	return t, nil
}

// ReadTableFrom loads a delimited table from a stream, e.g. STDIN, sniffing
// the delimiter like ReadTable.
func ReadTableFrom(name string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return readDelimited(name, bytes.NewReader(data), genomisc.DetermineDelimiter(bytes.NewReader(data)))
}

func readDelimited(name string, r io.Reader, delim rune) (*Table, error) {
	fileCSV := csv.NewReader(r)
	fileCSV.Comma = delim
	fileCSV.LazyQuotes = true
	fileCSV.FieldsPerRecord = -1

	header, err := fileCSV.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s has no header row", name)
	} else if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := make([][]string, 0)
	for line := 2; ; line++ {
		row, err := fileCSV.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		if len(row) != len(header) {
			// Keep the row so the subject is not silently lost; pad or trim
			// to the header width.
			log.Printf("%s line %d has %d fields, expected %d\n", name, line, len(row), len(header))
			spew.Fdump(os.Stderr, row)
			fixed := make([]string, len(header))
			copy(fixed, row)
			row = fixed
		}

		rows = append(rows, row)
	}

	return NewTable(name, header, rows), nil
}

// WriteCSV writes the table with missing cells replaced by na.
func WriteCSV(w io.Writer, t *Table, na string) error {
	out := csv.NewWriter(w)
	if err := out.Write(t.Header); err != nil {
		return pfx.Err(err)
	}

	line := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range line {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if IsMissing(v) {
				v = na
			}
			line[i] = v
		}
		if err := out.Write(line); err != nil {
			return pfx.Err(err)
		}
	}
	out.Flush()

	return out.Error()
}

// IsMissing reports whether a raw cell carries no value.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "NA")
}
