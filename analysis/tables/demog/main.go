package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/broadinstitute/cdiscderive/derive"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

func main() {
	var (
		adslPath    string
		population  string
		arm         string
		continuous  string
		categorical string
		common      derive.CommonFlags
	)

	flag.StringVar(&adslPath, "adsl", "", "ADSL dataset (CSV or TSV)")
	flag.StringVar(&population, "population", "SAFFL", "Population flag; subjects with Y are summarized")
	flag.StringVar(&arm, "arm", "TRT01A", "Treatment variable that defines the columns")
	flag.StringVar(&continuous, "continuous", "AGE", "Comma-separated numeric variables")
	flag.StringVar(&categorical, "categorical", "SEX,AGEGR1", "Comma-separated categorical variables")
	common.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := common.Resolve(map[string]string{"ADSL": adslPath})
	if err != nil {
		log.Fatalln(err)
	}
	if err := cfg.Validate("ADSL"); err != nil || population == "" || arm == "" {
		if err != nil {
			log.Println(err)
		}
		flag.PrintDefaults()
		os.Exit(1)
	}

	rl, err := derive.StartRunLog("demog", cfg.RunLog)
	if err != nil {
		log.Fatalln(err)
	}

	err = run(cfg, population, arm, splitList(continuous), splitList(categorical))
	if cerr := rl.Close(err); cerr != nil {
		log.Println(cerr)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func run(cfg derive.Config, population, arm string, continuous, categorical []string) error {
	loader, closer, err := cfg.Loader(context.Background())
	if err != nil {
		return err
	}
	defer closer()

	adsl, err := loader.Load("ADSL")
	if err != nil {
		return err
	}

	t, err := Build(adsl, derive.Equals(population, "Y"), arm, continuous, categorical)
	if err != nil {
		return err
	}

	N := t.N[len(t.N)-1]
	log.Println("Found", N, "subjects with", population, "= Y in", len(t.Columns)-1, "arms")
	if N == 0 {
		log.Printf("Warning: 0 subjects found. Is %s populated in ADSL?\n", population)
	}

	var w io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(genomisc.ExpandHome(cfg.Output))
		if err != nil {
			return pfx.Err(err)
		}
		defer f.Close()
		w = f
	}

	STDOUT := bufio.NewWriterSize(w, derive.BufferSize)
	if err := t.WriteTSV(STDOUT, continuous, categorical); err != nil {
		return err
	}

	return STDOUT.Flush()
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}
