package derive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config describes one run of a derivation tool. Every field can also be set
// by the tool's flags; a config file is convenient when the same inputs are
// reused across tools.
type Config struct {
	// Inputs maps a domain name (DM, EX, ...) to a CSV or TSV file.
	Inputs map[string]string `yaml:"inputs" validate:"dive,keys,required,endkeys,required"`

	BigQuery BigQueryConfig `yaml:"bigquery"`

	// Terminology is a study CT file. Empty uses the bundled table.
	Terminology string `yaml:"terminology"`

	Output string `yaml:"output"`
	SQLite string `yaml:"sqlite"`
	RunLog string `yaml:"run_log"`

	NullMarker string `yaml:"na" validate:"max=8"`

	// TEAEWindow is the number of days after the last dose during which an
	// adverse event still counts as treatment emergent.
	TEAEWindow int `yaml:"teae_window" validate:"min=0,max=365"`
}

type BigQueryConfig struct {
	Project  string `yaml:"project" validate:"required_with=Database"`
	Database string `yaml:"database"`
}

func DefaultConfig() Config {
	return Config{
		Inputs:     make(map[string]string),
		NullMarker: NullMarker,
		TEAEWindow: 30,
	}
}

// LoadConfig reads a YAML config on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(genomisc.ExpandHome(path))
	if err != nil {
		return cfg, pfx.Err(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, pfx.Err(fmt.Sprintf("%s: %s", path, err))
	}

	upper := make(map[string]string, len(cfg.Inputs))
	for domain, p := range cfg.Inputs {
		upper[strings.ToUpper(domain)] = p
	}
	cfg.Inputs = upper

	return cfg, nil
}

// Validate checks the config and that every required domain has a source.
func (c Config) Validate(domains ...string) error {
	if err := validate.Struct(c); err != nil {
		return pfx.Err(err)
	}

	if c.BigQuery.Database != "" {
		return nil
	}

	missing := make([]string, 0)
	for _, domain := range domains {
		if _, exists := c.Inputs[domain]; !exists {
			missing = append(missing, domain)
		}
	}
	if len(missing) > 0 {
		return errors.New("no input given for domain(s) " + strings.Join(missing, ", "))
	}

	return nil
}

// Loader resolves a domain name to its table.
type Loader interface {
	Load(domain string) (*Table, error)
}

// FileLoader reads domains from the files named in a config.
type FileLoader map[string]string

func (l FileLoader) Load(domain string) (*Table, error) {
	path, exists := l[domain]
	if !exists {
		return nil, pfx.Err(fmt.Sprintf("no input file for %s", domain))
	}

	return ReadTable(domain, path)
}

// Load reads the lower-cased domain table from the dataset.
func (BQ *WrappedBigQuery) Load(domain string) (*Table, error) {
	return BQ.ReadTable(domain, strings.ToLower(domain))
}

// Loader connects to BigQuery when a dataset is configured, and reads files
// otherwise. The returned close function is always safe to call.
func (c Config) Loader(ctx context.Context) (Loader, func() error, error) {
	if c.BigQuery.Database == "" {
		return FileLoader(c.Inputs), func() error { return nil }, nil
	}

	BQ, err := ConnectBigQuery(ctx, c.BigQuery.Project, c.BigQuery.Database)
	if err != nil {
		return nil, nil, err
	}

	return BQ, BQ.Close, nil
}

// LoadTerminology reads the configured CT file, or the bundled one.
func (c Config) LoadTerminology() (*Terminology, error) {
	if c.Terminology == "" {
		return DefaultTerminology()
	}

	return ReadTerminology(c.Terminology)
}
