package main

import (
	"sort"

	"github.com/broadinstitute/cdiscderive/derive"
)

// uncoded stands in for a missing body system or preferred term.
const uncoded = "UNCODED"

// Arm is one treatment column of the summary.
type Arm struct {
	Name string

	// N is the number of subjects in the safety population on this arm.
	N int
}

// Count is the number of subjects with an event and its share of the arm.
type Count struct {
	N   int
	Pct float64
}

// Line is one row of the summary table. Term is empty on the body system
// lines.
type Line struct {
	BodySystem string
	Term       string
	Counts     []Count
}

type Summary struct {
	Arms []Arm

	// Any counts subjects with at least one TEAE.
	Any   []Count
	Lines []Line
}

// Summarize counts subjects with treatment-emergent events by body system
// and preferred term for each actual arm of the safety population. A subject
// is counted once per line however many events they had.
func Summarize(adsl, adae *derive.Table) (Summary, error) {
	if err := adsl.Require("STUDYID", "USUBJID", "TRT01A", "SAFFL"); err != nil {
		return Summary{}, err
	}
	if err := adae.Require("STUDYID", "USUBJID", "AEBODSYS", "AEDECOD", "TRTEMFL"); err != nil {
		return Summary{}, err
	}

	// subject => arm index
	armOf := make(map[derive.Key]int)
	index := make(map[string]int)
	out := Summary{}

	population := adsl.Filter(derive.Equals("SAFFL", "Y"))
	names := make([]string, 0)
	population.Each(func(r derive.Row) {
		arm := r.Get("TRT01A")
		if _, exists := index[arm]; !exists {
			index[arm] = -1
			names = append(names, arm)
		}
	})
	sort.Strings(names)
	for i, name := range names {
		index[name] = i
		out.Arms = append(out.Arms, Arm{Name: name})
	}
	population.Each(func(r derive.Row) {
		key := derive.KeyOf(r, subjectKey)
		if _, exists := armOf[key]; exists {
			return
		}
		i := index[r.Get("TRT01A")]
		armOf[key] = i
		out.Arms[i].N++
	})

	type line struct{ system, term string }
	seen := make(map[line]map[derive.Key]struct{})
	add := func(l line, key derive.Key) {
		if seen[l] == nil {
			seen[l] = make(map[derive.Key]struct{})
		}
		seen[l][key] = struct{}{}
	}

	adae.Filter(derive.Equals("TRTEMFL", "Y")).Each(func(r derive.Row) {
		key := derive.KeyOf(r, subjectKey)
		if _, exists := armOf[key]; !exists {
			return
		}
		system, term := r.Get("AEBODSYS"), r.Get("AEDECOD")
		if system == "" {
			system = uncoded
		}
		if term == "" {
			term = uncoded
		}
		add(line{}, key)
		add(line{system: system}, key)
		add(line{system: system, term: term}, key)
	})

	counts := func(subjects map[derive.Key]struct{}) []Count {
		c := make([]Count, len(out.Arms))
		for key := range subjects {
			c[armOf[key]].N++
		}
		for i := range c {
			if out.Arms[i].N > 0 {
				c[i].Pct = 100 * float64(c[i].N) / float64(out.Arms[i].N)
			}
		}
		return c
	}

	out.Any = counts(seen[line{}])

	lines := make([]line, 0, len(seen))
	for l := range seen {
		if l != (line{}) {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].system != lines[j].system {
			return lines[i].system < lines[j].system
		}
		return lines[i].term < lines[j].term
	})
	for _, l := range lines {
		out.Lines = append(out.Lines, Line{BodySystem: l.system, Term: l.term, Counts: counts(seen[l])})
	}

	return out, nil
}
