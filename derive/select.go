package derive

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Mode picks the earliest or the latest qualifying record.
type Mode int

const (
	ModeFirst Mode = iota
	ModeLast
)

func (m Mode) String() string {
	if m == ModeLast {
		return "last"
	}
	return "first"
}

// Key identifies one group, normally a subject: the by-variable values joined
// with a unit separator.
type Key string

const keySep = "\x1f"

func MakeKey(values ...string) Key {
	return Key(strings.Join(values, keySep))
}

// Values splits the key back into its by-variable values.
func (k Key) Values() []string {
	return strings.Split(string(k), keySep)
}

// KeyOf builds the group key of a row from the by columns.
func KeyOf(r Row, by []string) Key {
	values := make([]string, len(by))
	for i, col := range by {
		values[i] = r.Get(col)
	}

	return MakeKey(values...)
}

// KeyKind says how an order column is compared.
type KeyKind int

const (
	// Datetime compares full DTC values resolved with the key's imputation.
	Datetime KeyKind = iota

	// Date compares only the date part of a DTC.
	Date

	// Number compares decimal values.
	Number
)

// OrderKey is one component of the sort tuple. The first key of a tuple is the
// primary comparator; a row whose primary value cannot be resolved does not
// qualify. Later keys only break ties, and a missing tie-breaker sorts before
// any present value.
type OrderKey struct {
	Column     string
	Kind       KeyKind
	Imputation Imputation
}

func DatetimeKey(col string, imp Imputation) OrderKey {
	return OrderKey{Column: col, Kind: Datetime, Imputation: imp}
}

func DateKey(col string, imp Imputation) OrderKey {
	return OrderKey{Column: col, Kind: Date, Imputation: imp}
}

func NumberKey(col string) OrderKey {
	return OrderKey{Column: col, Kind: Number}
}

// sortValue is one resolved order key value.
type sortValue struct {
	valid bool
	t     time.Time
	n     decimal.Decimal

	// Flags of the imputation that produced t, if any.
	dateFlag, timeFlag string
}

func (a sortValue) compare(b sortValue) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return -1
	case !b.valid:
		return 1
	}

	if c := a.t.Compare(b.t); c != 0 {
		return c
	}
	return a.n.Cmp(b.n)
}

func (k OrderKey) resolve(r Row) sortValue {
	v := r.Get(k.Column)
	if v == "" {
		return sortValue{}
	}

	switch k.Kind {
	case Datetime:
		dt, ok := ParseDTC(v, k.Imputation)
		if !ok {
			return sortValue{}
		}
		return sortValue{valid: true, t: dt.Time, dateFlag: dt.DateFlag, timeFlag: dt.TimeFlag}
	case Date:
		d, flag, ok := ParseDTCDate(v, k.Imputation)
		if !ok {
			return sortValue{}
		}
		return sortValue{valid: true, t: d.In(time.UTC), dateFlag: flag}
	case Number:
		d := r.Decimal(k.Column)
		if !d.Valid {
			return sortValue{}
		}
		return sortValue{valid: true, n: d.Decimal}
	}

	return sortValue{}
}

// candidate is a qualifying record reduced to what the extreme selection
// needs. Every source, whatever its shape, is normalised to this.
type candidate struct {
	key   Key
	order []sortValue
	row   Row

	// source is the position of the originating source, used with the row
	// index to keep ties deterministic.
	source int

	// Values attached to the winning record by an aggregation source.
	set map[string]string
}

func compareCandidates(a, b candidate) int {
	n := len(a.order)
	if len(b.order) < n {
		n = len(b.order)
	}
	for i := 0; i < n; i++ {
		if c := a.order[i].compare(b.order[i]); c != 0 {
			return c
		}
	}

	return 0
}

// reduceExtreme groups the candidates by key and keeps one per group. The
// sort is stable, so candidates equal on the whole tuple keep their input
// order: the first of them wins in ModeFirst and the last in ModeLast.
func reduceExtreme(cands []candidate, mode Mode) map[Key]candidate {
	groups := make(map[Key][]candidate)
	for _, c := range cands {
		groups[c.key] = append(groups[c.key], c)
	}

	out := make(map[Key]candidate, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return compareCandidates(group[i], group[j]) < 0
		})

		if mode == ModeLast {
			out[key] = group[len(group)-1]
		} else {
			out[key] = group[0]
		}
	}

	return out
}

// Winner is the record chosen for one group by SelectExtreme.
type Winner struct {
	Row

	// Flags from imputing the primary order key.
	DateFlag string
	TimeFlag string

	// Primary is the resolved primary comparator when it is a date or
	// datetime.
	Primary time.Time
}

func collect(t *Table, by []string, qualifies Predicate, order []OrderKey, source int) ([]candidate, error) {
	cols := append([]string(nil), by...)
	for _, k := range order {
		cols = append(cols, k.Column)
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	if qualifies == nil {
		qualifies = Always
	}

	cands := make([]candidate, 0)
	for i := range t.Rows {
		r := t.Row(i)
		if !qualifies(r) {
			continue
		}

		values := make([]sortValue, len(order))
		for j, k := range order {
			values[j] = k.resolve(r)
		}
		if len(values) > 0 && !values[0].valid {
			continue
		}

		cands = append(cands, candidate{key: KeyOf(r, by), order: values, row: r, source: source})
	}

	return cands, nil
}

// SelectExtreme picks, for every group of t, the first or last record that
// satisfies qualifies, ordered by the order tuple. Groups without a qualifying
// record are absent from the result. The only error is a missing by or order
// column.
func SelectExtreme(t *Table, by []string, qualifies Predicate, order []OrderKey, mode Mode) (map[Key]Winner, error) {
	cands, err := collect(t, by, qualifies, order, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[Key]Winner)
	for key, c := range reduceExtreme(cands, mode) {
		w := Winner{Row: c.row}
		if len(c.order) > 0 {
			w.Primary = c.order[0].t
			w.DateFlag = c.order[0].dateFlag
			w.TimeFlag = c.order[0].timeFlag
		}
		out[key] = w
	}

	return out, nil
}
