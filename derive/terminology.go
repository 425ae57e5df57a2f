package derive

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gobuffalo/packr"
	"gopkg.in/guregu/null.v3"
)

// Columns of a study controlled-terminology table.
var TerminologyHeader = []string{
	"codelist_code",
	"term_code",
	"term_value",
	"collected_value",
	"term_preferred_term",
	"term_synonyms",
}

// Term is one standardized value of a codelist.
type Term struct {
	Codelist      string
	Code          string
	Value         string
	Collected     string
	PreferredTerm string
	Synonyms      []string
}

// Terminology maps collected values to standardized terms per codelist.
type Terminology struct {
	terms map[string][]Term

	// lookup is codelist => lower-cased collected form => term value
	lookup map[string]map[string]string
}

func NewTerminology(terms []Term) *Terminology {
	ct := &Terminology{
		terms:  make(map[string][]Term),
		lookup: make(map[string]map[string]string),
	}

	for _, term := range terms {
		ct.terms[term.Codelist] = append(ct.terms[term.Codelist], term)

		forms, exists := ct.lookup[term.Codelist]
		if !exists {
			forms = make(map[string]string)
			ct.lookup[term.Codelist] = forms
		}

		// Earlier terms win when two terms share a collected form.
		for _, form := range append([]string{term.Collected, term.Value, term.PreferredTerm}, term.Synonyms...) {
			form = strings.ToLower(strings.TrimSpace(form))
			if form == "" {
				continue
			}
			if _, exists := forms[form]; !exists {
				forms[form] = term.Value
			}
		}
	}

	return ct
}

// TerminologyFromTable reads the study CT format.
func TerminologyFromTable(t *Table) (*Terminology, error) {
	if err := t.Require(TerminologyHeader[:3]...); err != nil {
		return nil, err
	}

	terms := make([]Term, 0, t.Len())
	t.Each(func(r Row) {
		term := Term{
			Codelist:      r.Get("codelist_code"),
			Code:          r.Get("term_code"),
			Value:         r.Get("term_value"),
			Collected:     r.Get("collected_value"),
			PreferredTerm: r.Get("term_preferred_term"),
		}
		if syn := r.Get("term_synonyms"); syn != "" {
			term.Synonyms = strings.Split(syn, ";")
		}
		if term.Codelist == "" || term.Value == "" {
			return
		}
		terms = append(terms, term)
	})

	return NewTerminology(terms), nil
}

// ReadTerminology loads a study CT file from disk.
func ReadTerminology(path string) (*Terminology, error) {
	t, err := ReadTable("ct", path)
	if err != nil {
		return nil, err
	}

	return TerminologyFromTable(t)
}

// DefaultTerminology is the study CT shipped with the tools.
func DefaultTerminology() (*Terminology, error) {
	box := packr.NewBox("./ct")

	data, err := box.Find("sdtm_ct.csv")
	if err != nil {
		return nil, pfx.Err(err)
	}

	t, err := readDelimited("ct", bytes.NewReader(data), ',')
	if err != nil {
		return nil, pfx.Err(err)
	}

	return TerminologyFromTable(t)
}

// Map standardizes a collected value. Matching ignores case and surrounding
// space and considers the collected value, the submission value, the
// preferred term and the synonyms. No match is missing.
func (ct *Terminology) Map(codelist, raw string) null.String {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return null.String{}
	}

	if v, exists := ct.lookup[codelist][raw]; exists {
		return null.StringFrom(v)
	}

	return null.String{}
}

func (ct *Terminology) Terms(codelist string) []Term {
	return ct.terms[codelist]
}

// CheckCodelists reports codelists a derivation relies on that the table does
// not define. The error lists all of them at once.
func (ct *Terminology) CheckCodelists(codes ...string) ([]string, error) {
	missing := make([]string, 0)
	for _, code := range codes {
		if len(ct.terms[code]) == 0 {
			missing = append(missing, code)
		}
	}

	if len(missing) == 0 {
		return nil, nil
	}

	sort.Strings(missing)

	return missing, fmt.Errorf("The terminology table has no terms for codelist(s) %s", strings.Join(missing, ", "))
}
