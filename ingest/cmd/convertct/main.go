package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// Columns of the CDISC CT export that are carried into the study table.
var exportColumns = []string{
	"Code",
	"Codelist Code",
	"CDISC Submission Value",
	"CDISC Synonym(s)",
	"NCI Preferred Term",
}

func main() {
	var (
		ctPath    string
		codelists = make(codelistSet)
		all       bool
	)

	flag.StringVar(&ctPath, "ct", "", "Path or URL to a CDISC controlled terminology export (the SDTM Terminology text file)")
	flag.Var(codelists, "codelist", "NCI code of a codelist to keep. May be repeated or comma separated. Defaults to the codelists the derivations use.")
	flag.BoolVar(&all, "all", false, "Keep every codelist of the export")
	flag.Parse()

	if ctPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if len(codelists) == 0 && !all {
		codelists.add(derive.DispositionCodelists...)
		codelists.add(derive.CodelistDispositionCategory)
		codelists.add(derive.SubjectLevelCodelists...)
		codelists.add(derive.CodelistAgeUnit)
	}

	data, err := fetch(ctPath)
	if err != nil {
		log.Fatalln(err)
	}

	n, err := writeTerminology(os.Stdout, data, codelists)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Created terminology file with", n, "terms")
}

// writeTerminology converts the export through a buffered writer. The count
// is only returned once everything has reached w.
func writeTerminology(w io.Writer, data []byte, keep map[string]struct{}) (int, error) {
	STDOUT := bufio.NewWriterSize(w, derive.BufferSize)

	n, err := ConvertCT(bytes.NewReader(data), STDOUT, keep)
	if err != nil {
		return 0, err
	}
	if err := STDOUT.Flush(); err != nil {
		return 0, pfx.Err(err)
	}

	return n, nil
}

// fetch reads the whole export, from the web if ctPath is a URL.
func fetch(ctPath string) ([]byte, error) {
	log.Printf("Importing from %s\n", ctPath)

	if strings.HasPrefix(ctPath, "http://") || strings.HasPrefix(ctPath, "https://") {
		resp, err := http.Get(ctPath)
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s: %s", ctPath, resp.Status)
		}

		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(genomisc.ExpandHome(ctPath))
}

// ConvertCT writes the study CT format for the terms of a CDISC export. The
// export lists each codelist as a header row with an empty Codelist Code,
// followed by its terms; header rows are skipped. An empty keep retains every
// codelist.
func ConvertCT(r io.Reader, w io.Writer, keep map[string]struct{}) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, pfx.Err(err)
	}

	delim := genomisc.DetermineDelimiter(bytes.NewReader(data))
	log.Printf("Determined terminology delimiter to be \"%s\"\n", string(delim))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, pfx.Err(err)
	}

	cols := make(map[string]int)
	for k, v := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))] = k
	}
	missing := make([]string, 0)
	for _, v := range exportColumns {
		if _, exists := cols[v]; !exists {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %s", derive.ErrMissingColumn, strings.Join(missing, ", "))
	}

	get := func(row []string, col string) string {
		if k := cols[col]; k < len(row) {
			return strings.TrimSpace(row[k])
		}
		return ""
	}

	out := csv.NewWriter(w)
	if err := out.Write(derive.TerminologyHeader); err != nil {
		return 0, pfx.Err(err)
	}

	n := 0
	seen := make(map[string]struct{})
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return n, pfx.Err(err)
		}

		codelist := get(row, "Codelist Code")
		if codelist == "" {
			continue
		}
		if _, exists := keep[codelist]; len(keep) > 0 && !exists {
			continue
		}
		seen[codelist] = struct{}{}

		synonyms := make([]string, 0)
		for _, s := range strings.Split(get(row, "CDISC Synonym(s)"), ";") {
			if s = strings.TrimSpace(s); s != "" {
				synonyms = append(synonyms, s)
			}
		}

		value := get(row, "CDISC Submission Value")
		if err := out.Write([]string{
			codelist,
			get(row, "Code"),
			value,
			value,
			get(row, "NCI Preferred Term"),
			strings.Join(synonyms, ";"),
		}); err != nil {
			return n, pfx.Err(err)
		}
		n++
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return n, pfx.Err(err)
	}

	for v := range keep {
		if _, exists := seen[v]; !exists {
			log.Printf("Warning: 0 terms found for codelist %s\n", v)
		}
	}

	return n, nil
}
