package derive

import (
	"log"
)

// Dataset is the subject-level output table. It is created once from a
// backbone table and afterwards only gains or rewrites columns; rows are never
// added or removed.
type Dataset struct {
	By []string

	table *Table
	rowOf map[Key]int
	keys  []Key
}

// NewDataset copies the backbone, keeping the first row of any duplicated key.
func NewDataset(name string, backbone *Table, by ...string) (*Dataset, error) {
	if err := backbone.Require(by...); err != nil {
		return nil, err
	}

	d := &Dataset{
		By:    by,
		rowOf: make(map[Key]int, backbone.Len()),
		keys:  make([]Key, 0, backbone.Len()),
	}

	rows := make([][]string, 0, backbone.Len())
	for i := range backbone.Rows {
		key := KeyOf(backbone.Row(i), by)
		if _, exists := d.rowOf[key]; exists {
			log.Printf("%s: duplicate key %v in %s, keeping the first record\n", name, key.Values(), backbone.Name)
			continue
		}

		row := make([]string, len(backbone.Header))
		copy(row, backbone.Rows[i])

		d.rowOf[key] = len(rows)
		d.keys = append(d.keys, key)
		rows = append(rows, row)
	}

	d.table = NewTable(name, append([]string(nil), backbone.Header...), rows)

	return d, nil
}

// Table exposes the current state, e.g. to use derived columns as a source of
// a later derivation. Callers must not modify it.
func (d *Dataset) Table() *Table {
	return d.table
}

func (d *Dataset) Len() int {
	return len(d.keys)
}

// Keys are in backbone order.
func (d *Dataset) Keys() []Key {
	return d.keys
}

func (d *Dataset) Row(key Key) (Row, bool) {
	i, exists := d.rowOf[key]
	if !exists {
		return Row{}, false
	}

	return d.table.Row(i), true
}

func (d *Dataset) Get(key Key, col string) string {
	r, exists := d.Row(key)
	if !exists {
		return ""
	}

	return r.Get(col)
}

// AddColumn appends an empty column unless it already exists.
func (d *Dataset) AddColumn(col string) int {
	if j, exists := d.table.index[col]; exists {
		return j
	}

	j := len(d.table.Header)
	d.table.Header = append(d.table.Header, col)
	d.table.index[col] = j
	for i := range d.table.Rows {
		d.table.Rows[i] = append(d.table.Rows[i], "")
	}

	return j
}

// Derive computes col for every subject from the current row. All values are
// computed before any is written, so fn never sees a half-derived column.
func (d *Dataset) Derive(col string, fn func(Row) string) {
	values := make([]string, len(d.table.Rows))
	for i := range d.table.Rows {
		values[i] = fn(d.table.Row(i))
	}

	j := d.AddColumn(col)
	for i, v := range values {
		d.table.Rows[i][j] = v
	}
}

// DeriveCategory applies ordered rules to every subject; no match is missing.
func (d *Dataset) DeriveCategory(col string, rules Rules) {
	d.Derive(col, func(r Row) string {
		return rules.Apply(r).ValueOrZero()
	})
}

// Merge left-joins values onto the dataset. Every listed column is rewritten
// for every subject, and subjects absent from values get missing, so merging
// the same result twice yields the same table. It returns the number of
// subjects that received values.
func (d *Dataset) Merge(values map[Key]map[string]string, cols ...string) int {
	js := make([]int, len(cols))
	for k, col := range cols {
		js[k] = d.AddColumn(col)
	}

	n := 0
	for key, i := range d.rowOf {
		v, exists := values[key]
		if exists {
			n++
		}
		for k, col := range cols {
			d.table.Rows[i][js[k]] = v[col]
		}
	}

	return n
}

// MergeFlag sets col to yes for subjects in keys and to no otherwise.
func (d *Dataset) MergeFlag(col string, keys map[Key]struct{}, yes, no string) int {
	n := 0
	d.Derive(col, func(r Row) string {
		if _, exists := keys[KeyOf(r, d.By)]; exists {
			n++
			return yes
		}
		return no
	})

	return n
}

// Select projects the dataset onto cols, in that order.
func (d *Dataset) Select(cols ...string) (*Table, error) {
	if err := d.table.Require(cols...); err != nil {
		return nil, err
	}

	rows := make([][]string, len(d.table.Rows))
	for i := range d.table.Rows {
		r := d.table.Row(i)
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = r.Get(col)
		}
		rows[i] = row
	}

	return NewTable(d.table.Name, append([]string(nil), cols...), rows), nil
}
