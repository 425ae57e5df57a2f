package derive

// NCI codelist codes used by the derivations in this repository.
const (
	CodelistNY                  = "C66742"
	CodelistSex                 = "C66731"
	CodelistRace                = "C74457"
	CodelistEthnicity           = "C66790"
	CodelistDispositionEvent    = "C66727"
	CodelistDispositionCategory = "C74558"
	CodelistOutcome             = "C66768"
	CodelistSeverity            = "C66769"
	CodelistAgeUnit             = "C66781"
)

var (
	// Codelists whose terms must be mapped before a DS domain can be built.
	DispositionCodelists = []string{CodelistDispositionEvent}

	// Codelists that ADSL and the AE tables read as already-standardized
	// values. Their absence is not fatal, but the terminology file is then
	// probably not the one the study was mapped with.
	SubjectLevelCodelists = []string{
		CodelistNY,
		CodelistSex,
		CodelistRace,
		CodelistEthnicity,
		CodelistOutcome,
		CodelistSeverity,
	}
)
