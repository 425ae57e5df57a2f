package derive

import (
	"bufio"
	"flag"
	"io"
	"log"
	"os"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// CommonFlags are the flags shared by every derivation tool. Values given on
// the command line take precedence over the config file.
type CommonFlags struct {
	Config      string
	Output      string
	SQLite      string
	RunLog      string
	NullMarker  string
	Terminology string
	Project     string
	Database    string
}

func (f *CommonFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Optional YAML file with the inputs and settings of this run")
	fs.StringVar(&f.Output, "out", "", "Output CSV file. Defaults to STDOUT.")
	fs.StringVar(&f.SQLite, "sqlite", "", "Optional SQLite database that also receives the output table")
	fs.StringVar(&f.RunLog, "runlog", "", "Optional file to which the log of this run is appended")
	fs.StringVar(&f.NullMarker, "na", "", "Marker written for missing values (default "+NullMarker+")")
	fs.StringVar(&f.Terminology, "terminology", "", "Study controlled terminology CSV. Defaults to the bundled table.")
	fs.StringVar(&f.Project, "project", "", "Name of the Google Cloud project that hosts your BigQuery database instance")
	fs.StringVar(&f.Database, "bigquery", "", "BigQuery dataset holding the input domains. If set, input files are not read.")
}

// Resolve builds the run config from the config file, if any, and the flags.
// inputs maps domain names to file paths given on the command line; empty
// paths are ignored.
func (f CommonFlags) Resolve(inputs map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if f.Config != "" {
		var err error
		if cfg, err = LoadConfig(f.Config); err != nil {
			return cfg, err
		}
	}

	for domain, path := range inputs {
		if path != "" {
			cfg.Inputs[domain] = path
		}
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Output, f.Output)
	overlay(&cfg.SQLite, f.SQLite)
	overlay(&cfg.RunLog, f.RunLog)
	overlay(&cfg.NullMarker, f.NullMarker)
	overlay(&cfg.Terminology, f.Terminology)
	overlay(&cfg.BigQuery.Project, f.Project)
	overlay(&cfg.BigQuery.Database, f.Database)

	return cfg, nil
}

// WriteOutput writes t as CSV to the configured output, or STDOUT, and to the
// SQLite database when one is configured.
func (c Config) WriteOutput(t *Table) error {
	var w io.Writer = os.Stdout
	if c.Output != "" {
		f, err := os.Create(genomisc.ExpandHome(c.Output))
		if err != nil {
			return pfx.Err(err)
		}
		defer f.Close()
		w = f
	}

	STDOUT := bufio.NewWriterSize(w, BufferSize)
	if err := WriteCSV(STDOUT, t, c.NullMarker); err != nil {
		return err
	}
	if err := STDOUT.Flush(); err != nil {
		return pfx.Err(err)
	}

	if c.Output != "" {
		log.Printf("Wrote %d %s records to %s\n", t.Len(), t.Name, c.Output)
	}

	if c.SQLite == "" {
		return nil
	}

	return WriteSQLite(c.SQLite, t)
}
