package derive

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Row addresses one record of a Table.
type Row struct {
	t *Table
	i int
}

func (r Row) Table() *Table {
	return r.t
}

// Index is the position of the row in its table, used as the final tie-break.
func (r Row) Index() int {
	return r.i
}

// Get returns the trimmed cell, or "" if the column does not exist or the
// cell is missing.
func (r Row) Get(col string) string {
	j, exists := r.t.index[col]
	if !exists || j >= len(r.t.Rows[r.i]) {
		return ""
	}

	v := strings.TrimSpace(r.t.Rows[r.i][j])
	if IsMissing(v) {
		return ""
	}

	return v
}

func (r Row) Missing(col string) bool {
	return r.Get(col) == ""
}

// Decimal parses a numeric cell. Unparseable values are treated as missing.
func (r Row) Decimal(col string) decimal.NullDecimal {
	v := r.Get(col)
	if v == "" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Predicate decides whether a row qualifies for a derivation. Predicates must
// be pure.
type Predicate func(Row) bool

// Always qualifies every row.
func Always(Row) bool { return true }

func Not(p Predicate) Predicate {
	return func(r Row) bool { return !p(r) }
}

func All(ps ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func Any(ps ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}

func Present(col string) Predicate {
	return func(r Row) bool { return !r.Missing(col) }
}

func Absent(col string) Predicate {
	return func(r Row) bool { return r.Missing(col) }
}

// Equals compares exactly, including case.
func Equals(col, value string) Predicate {
	return func(r Row) bool { return r.Get(col) == value }
}

// In matches any of the values exactly.
func In(col string, values ...string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return func(r Row) bool {
		v := r.Get(col)
		if v == "" {
			return false
		}
		_, exists := set[v]
		return exists
	}
}

// Contains is a case-sensitive substring test, false for missing cells.
func Contains(col, substr string) Predicate {
	return func(r Row) bool {
		v := r.Get(col)
		return v != "" && strings.Contains(v, substr)
	}
}

// Compare applies cmp to the numeric value of col. Missing or non-numeric
// cells never qualify.
func Compare(col string, cmp func(decimal.Decimal) bool) Predicate {
	return func(r Row) bool {
		d := r.Decimal(col)
		return d.Valid && cmp(d.Decimal)
	}
}

func LessThan(col string, bound int64) Predicate {
	b := decimal.NewFromInt(bound)
	return Compare(col, func(d decimal.Decimal) bool { return d.LessThan(b) })
}

func GreaterThan(col string, bound int64) Predicate {
	b := decimal.NewFromInt(bound)
	return Compare(col, func(d decimal.Decimal) bool { return d.GreaterThan(b) })
}

// Between is inclusive on both ends.
func Between(col string, lo, hi int64) Predicate {
	l, h := decimal.NewFromInt(lo), decimal.NewFromInt(hi)
	return Compare(col, func(d decimal.Decimal) bool {
		return d.GreaterThanOrEqual(l) && d.LessThanOrEqual(h)
	})
}
