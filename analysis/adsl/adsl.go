package main

import (
	"log"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/shopspring/decimal"
)

var subjectKey = []string{"STUDYID", "USUBJID"}

// Sources holds the SDTM domains ADSL is derived from. They are only read.
type Sources struct {
	DM, EX, AE, VS, DS *derive.Table
}

// Columns each domain must provide.
var required = map[string][]string{
	"DM": {"STUDYID", "USUBJID", "ARMCD", "ARM", "ACTARM", "AGE", "COUNTRY", "DTHDTC"},
	"EX": {"STUDYID", "USUBJID", "EXSEQ", "EXTRT", "EXDOSE", "EXSTDTC", "EXENDTC"},
	"AE": {"STUDYID", "USUBJID", "AESEQ", "AESTDTC", "AEENDTC", "AEOUT", "AEDECOD"},
	"VS": {"STUDYID", "USUBJID", "VSSEQ", "VSDTC", "VSSTRESN", "VSSTRESC"},
	"DS": {"STUDYID", "USUBJID", "DSSEQ", "DSCAT", "DSDECOD", "DSTERM", "DSSTDTC"},
}

// Domains lists the inputs in the order they are loaded.
var Domains = []string{"DM", "EX", "AE", "VS", "DS"}

func (s Sources) table(domain string) *derive.Table {
	switch domain {
	case "DM":
		return s.DM
	case "EX":
		return s.EX
	case "AE":
		return s.AE
	case "VS":
		return s.VS
	case "DS":
		return s.DS
	}
	return nil
}

// Check fails on the first domain that lacks a required column.
func (s Sources) Check() error {
	for _, domain := range Domains {
		if err := s.table(domain).Require(required[domain]...); err != nil {
			return err
		}
	}

	return nil
}

// OutputColumns is the column order of the written ADSL. DM columns that the
// input does not carry are left out.
var OutputColumns = []string{
	"STUDYID", "USUBJID", "SUBJID", "SITEID",
	"AGE", "AGEU", "AGEGR1", "SEX", "RACE", "ETHNIC", "COUNTRY", "REGION1",
	"ARMCD", "ARM", "ACTARMCD", "ACTARM", "TRT01P", "TRT01A",
	"TRTSDTM", "TRTSTMF", "TRTEDTM", "TRTETMF", "TRTSDT", "TRTEDT", "TRTDURD",
	"RANDDT", "RANDDY",
	"EOSDT", "EOSDY", "EOSSTT", "DCSREAS", "DCSREASP",
	"DTHDTC", "DTHFL", "DTHDT", "DTHDTF", "DTHADY", "LDDTHELD", "DTHCAUS", "DTHDOM",
	"LSTALVDT", "LSTALVDY", "LALVDOMAIN", "LALVSEQ", "LALVVAR",
	"SAFFL", "ITTFL",
}

// validExposure is a dose that was actually given: positive, or zero for
// placebo.
func validExposure(r derive.Row) bool {
	dose := r.Decimal("EXDOSE")
	if !dose.Valid {
		return false
	}

	return dose.Decimal.GreaterThan(decimal.Zero) ||
		(dose.Decimal.IsZero() && derive.Contains("EXTRT", "PLACEBO")(r))
}

type step struct {
	// found completes "Found N ..."
	found string

	// warning is printed when a step finds nothing
	warning string

	add func(*derive.Dataset, Sources) (int, error)
}

var steps = []step{
	{"planned and actual treatments", "Are ARM and ACTARM populated in DM?", AddTreatments},
	{"treatment start dates", "Are there EX records with a valid dose?", AddTreatmentStart},
	{"treatment end dates", "Are there EX records with a valid dose?", AddTreatmentEnd},
	{"treatment durations", "", AddTreatmentDates},
	{"end of study dispositions", "Does DS hold DISPOSITION EVENT records?", AddDisposition},
	{"randomization dates", "Does DS hold RANDOMIZED records?", AddRandomization},
	{"death dates", "", AddDeath},
	{"causes of death", "", AddDeathCause},
	{"last known alive dates", "", AddLastAlive},
	{"subjects in the safety population", "", AddPopulationFlags},
	{"age groups", "Is AGE populated in DM?", AddGroupings},
	{"study days", "", AddStudyDays},
}

// Derive builds ADSL from the sources. The steps run strictly in order, as
// later steps read the variables earlier ones produced.
func Derive(src Sources) (*derive.Table, error) {
	if err := src.Check(); err != nil {
		return nil, err
	}

	adsl, err := derive.NewDataset("ADSL", src.DM, subjectKey...)
	if err != nil {
		return nil, err
	}
	log.Println("Found", adsl.Len(), "subjects in DM")
	if adsl.Len() == 0 {
		log.Println("Warning: 0 subjects found. The output will be empty.")
	}

	for _, s := range steps {
		N, err := s.add(adsl, src)
		if err != nil {
			return nil, err
		}
		log.Println("Found", N, s.found)
		if N == 0 && s.warning != "" && adsl.Len() > 0 {
			log.Printf("Warning: 0 %s found. %s\n", s.found, s.warning)
		}
	}

	cols := make([]string, 0, len(OutputColumns))
	for _, col := range OutputColumns {
		if adsl.Table().Has(col) {
			cols = append(cols, col)
		}
	}

	return adsl.Select(cols...)
}
