package derive

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/carbocation/pfx"
)

// Source is one input of an extreme-event derivation: a table, the rows of it
// that count as evidence, and how to read a comparable date from such a row.
type Source struct {
	Name      string
	Table     *Table
	Qualifies Predicate

	// Date is the primary comparator and must be a Date or Datetime key. Rows
	// whose date cannot be resolved under its imputation are skipped.
	Date OrderKey

	// TieBreak keys are compared position by position across sources.
	TieBreak []OrderKey

	// Set holds constant values attached to an event from this source, Copy
	// maps output names to columns of the winning row.
	Set  map[string]string
	Copy map[string]string
}

// Event is the winning evidence for one group.
type Event struct {
	Source   string
	Time     time.Time
	DateFlag string
	TimeFlag string
	Values   map[string]string
}

func (e Event) Date() civil.Date {
	return civil.DateOf(e.Time)
}

// AggregateExtreme unions the qualifying dates of every source and keeps the
// earliest or latest per group. The result does not depend on the order of
// sources: full ties are resolved by source name, then by row position, so
// source names must be unique.
func AggregateExtreme(sources []Source, by []string, mode Mode) (map[Key]Event, error) {
	names := make(map[string]struct{}, len(sources))
	all := make([]candidate, 0)
	for i, src := range sources {
		if _, exists := names[src.Name]; exists {
			return nil, pfx.Err(fmt.Sprintf("source name %q is used more than once", src.Name))
		}
		names[src.Name] = struct{}{}

		if src.Table == nil {
			return nil, pfx.Err(fmt.Sprintf("source %s has no table", src.Name))
		}
		if src.Date.Kind != Date && src.Date.Kind != Datetime {
			return nil, pfx.Err(fmt.Sprintf("source %s: primary key %s is not a date", src.Name, src.Date.Column))
		}

		copied := make([]string, 0, len(src.Copy))
		for _, col := range src.Copy {
			copied = append(copied, col)
		}
		if err := src.Table.Require(copied...); err != nil {
			return nil, err
		}

		order := append([]OrderKey{src.Date}, src.TieBreak...)
		cands, err := collect(src.Table, by, src.Qualifies, order, i)
		if err != nil {
			return nil, err
		}

		for j := range cands {
			cands[j].set = src.values(cands[j].row)
		}
		all = append(all, cands...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := sources[all[i].source].Name, sources[all[j].source].Name
		if a != b {
			return a < b
		}
		return all[i].row.Index() < all[j].row.Index()
	})

	out := make(map[Key]Event)
	for key, c := range reduceExtreme(all, mode) {
		out[key] = Event{
			Source:   sources[c.source].Name,
			Time:     c.order[0].t,
			DateFlag: c.order[0].dateFlag,
			TimeFlag: c.order[0].timeFlag,
			Values:   c.set,
		}
	}

	return out, nil
}

func (src Source) values(r Row) map[string]string {
	out := make(map[string]string, len(src.Set)+len(src.Copy))
	for k, v := range src.Set {
		out[k] = v
	}
	for k, col := range src.Copy {
		out[k] = r.Get(col)
	}

	return out
}
