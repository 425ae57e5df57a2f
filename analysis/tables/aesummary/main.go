package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

func main() {
	var (
		adslPath, aePath string
		htmlPath         string
		pngPath          string
		title            string
		window           int
		common           derive.CommonFlags
	)

	flag.StringVar(&adslPath, "adsl", "", "ADSL dataset (CSV or TSV)")
	flag.StringVar(&aePath, "ae", "", "SDTM AE domain (CSV or TSV)")
	flag.StringVar(&htmlPath, "html", "", "Optional path for an HTML rendering of the table")
	flag.StringVar(&pngPath, "png", "", "Optional path for a PNG bar chart of subjects with any TEAE per arm")
	flag.StringVar(&title, "title", "Treatment-Emergent Adverse Events by System Organ Class and Preferred Term", "Title of the HTML table")
	flag.IntVar(&window, "window", -1, "Days after the last dose during which an event is still treatment emergent (default from config, else 30)")
	common.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := common.Resolve(map[string]string{"ADSL": adslPath, "AE": aePath})
	if err != nil {
		log.Fatalln(err)
	}
	if window >= 0 {
		cfg.TEAEWindow = window
	}
	if err := cfg.Validate("ADSL", "AE"); err != nil {
		log.Println(err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	rl, err := derive.StartRunLog("aesummary", cfg.RunLog)
	if err != nil {
		log.Fatalln(err)
	}

	err = run(cfg, title, htmlPath, pngPath)
	if cerr := rl.Close(err); cerr != nil {
		log.Println(cerr)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func run(cfg derive.Config, title, htmlPath, pngPath string) error {
	loader, closer, err := cfg.Loader(context.Background())
	if err != nil {
		return err
	}
	defer closer()

	adsl, err := loader.Load("ADSL")
	if err != nil {
		return err
	}
	ae, err := loader.Load("AE")
	if err != nil {
		return err
	}

	log.Println("Events are treatment emergent up to", cfg.TEAEWindow, "days after the last dose")
	adae, err := FlagTEAE(adsl, ae, cfg.TEAEWindow)
	if err != nil {
		return err
	}
	N := adae.Filter(derive.Equals("TRTEMFL", "Y")).Len()
	log.Println("Found", N, "treatment-emergent adverse events")
	if N == 0 {
		log.Println("Warning: 0 treatment-emergent adverse events found. Are TRTSDT and SAFFL populated in ADSL?")
	}

	summary, err := Summarize(adsl, adae)
	if err != nil {
		return err
	}
	log.Println("Found", len(summary.Arms), "arms in the safety population")

	if err := writeFile(cfg.Output, func(w io.Writer) error { return WriteTSV(w, summary) }); err != nil {
		return err
	}
	if htmlPath != "" {
		if err := writeFile(htmlPath, func(w io.Writer) error { return WriteHTML(w, title, summary) }); err != nil {
			return err
		}
	}
	if pngPath != "" {
		if err := writeFile(pngPath, func(w io.Writer) error { return WritePNG(w, title, summary) }); err != nil {
			return err
		}
	}

	if cfg.SQLite != "" {
		return derive.WriteSQLite(cfg.SQLite, adae)
	}

	return nil
}

// writeFile writes to path, or to STDOUT when path is empty.
func writeFile(path string, fn func(io.Writer) error) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(genomisc.ExpandHome(path))
		if err != nil {
			return pfx.Err(err)
		}
		defer f.Close()
		w = f
	}

	STDOUT := bufio.NewWriterSize(w, derive.BufferSize)
	if err := fn(STDOUT); err != nil {
		return err
	}
	if err := STDOUT.Flush(); err != nil {
		return pfx.Err(err)
	}

	if path != "" {
		log.Println("Wrote", path)
	}

	return nil
}
