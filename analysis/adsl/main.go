package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/broadinstitute/cdiscderive/derive"
)

func main() {
	var (
		paths  = make(map[string]*string)
		common derive.CommonFlags
	)

	for _, domain := range Domains {
		paths[domain] = flag.String(strings.ToLower(domain), "", "SDTM "+domain+" domain (CSV or TSV)")
	}
	common.Register(flag.CommandLine)
	flag.Parse()

	inputs := make(map[string]string, len(paths))
	for domain, p := range paths {
		inputs[domain] = *p
	}

	cfg, err := common.Resolve(inputs)
	if err != nil {
		log.Fatalln(err)
	}
	if err := cfg.Validate(Domains...); err != nil {
		log.Println(err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	rl, err := derive.StartRunLog("adsl", cfg.RunLog)
	if err != nil {
		log.Fatalln(err)
	}

	err = run(cfg)
	if cerr := rl.Close(err); cerr != nil {
		log.Println(cerr)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func run(cfg derive.Config) error {
	loader, closer, err := cfg.Loader(context.Background())
	if err != nil {
		return err
	}
	defer closer()

	// The derivations compare against standardized terms, so the CT the
	// study was mapped with should define them.
	ct, err := cfg.LoadTerminology()
	if err != nil {
		return err
	}
	if missing, err := ct.CheckCodelists(derive.SubjectLevelCodelists...); err != nil {
		log.Println("Warning:", len(missing), "codelists are missing from the terminology:", err)
	}

	tables := make(map[string]*derive.Table, len(Domains))
	for _, domain := range Domains {
		if tables[domain], err = loader.Load(domain); err != nil {
			return err
		}
	}

	adsl, err := Derive(Sources{
		DM: tables["DM"],
		EX: tables["EX"],
		AE: tables["AE"],
		VS: tables["VS"],
		DS: tables["DS"],
	})
	if err != nil {
		return err
	}

	log.Println("Output uses", cfg.NullMarker, "in place of null values.")

	return cfg.WriteOutput(adsl)
}
