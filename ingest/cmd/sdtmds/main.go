package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/broadinstitute/cdiscderive/derive"
)

func main() {
	var (
		rawPath string
		dmPath  string
		common  derive.CommonFlags
	)

	flag.StringVar(&rawPath, "raw", "", "Raw disposition extract (CSV or TSV)")
	flag.StringVar(&dmPath, "dm", "", "SDTM DM domain, for the reference start date")
	common.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := common.Resolve(map[string]string{"DS_RAW": rawPath, "DM": dmPath})
	if err != nil {
		log.Fatalln(err)
	}
	if err := cfg.Validate("DS_RAW", "DM"); err != nil {
		log.Println(err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	rl, err := derive.StartRunLog("sdtmds", cfg.RunLog)
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

	ct, err := cfg.LoadTerminology()
	if err != nil {
		return err
	}
	if _, err := ct.CheckCodelists(derive.DispositionCodelists...); err != nil {
		return err
	}

	raw, err := loader.Load("DS_RAW")
	if err != nil {
		return err
	}
	dm, err := loader.Load("DM")
	if err != nil {
		return err
	}

	ds, err := BuildDS(raw, dm, ct)
	if err != nil {
		return err
	}

	log.Println("Output uses", cfg.NullMarker, "in place of null values.")

	return cfg.WriteOutput(ds)
}
