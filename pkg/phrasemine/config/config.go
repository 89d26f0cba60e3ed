// Package config loads miner parameters from a YAML file. Every CLI flag
// except --config and --verbose has a counterpart here so recurring
// invocations can be captured in one file and overridden per run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
)

// SPMF configures the external SPMF bridge.
type SPMF struct {
	Jar    string `yaml:"jar"`
	Params string `yaml:"params"`
}

// Params mirrors the CLI parameters.
type Params struct {
	MinDocs      int     `yaml:"min_docs"`
	NGrams       int     `yaml:"ngrams"`
	MinLen       int     `yaml:"min_len"`
	MemLimitMB   int     `yaml:"mem_limit_mb"`
	Threads      int     `yaml:"threads"`
	CacheSize    int     `yaml:"cache_size"`
	Sampling     float64 `yaml:"sampling"`
	InMemory     bool    `yaml:"in_memory"`
	Preload      bool    `yaml:"preload"`
	Mask         string  `yaml:"mask"`
	CSVDelimiter string  `yaml:"csv_delimiter"`
	Algorithm    string  `yaml:"algorithm"`
	Output       string  `yaml:"output"`
	DBPath       string  `yaml:"db_path"`
	SPMF         SPMF    `yaml:"spmf"`
}

// Default returns the parameter defaults shared by the CLI and the config
// file.
func Default() Params {
	return Params{
		MinDocs:      10,
		NGrams:       4,
		MinLen:       1,
		CacheSize:    1000,
		Sampling:     1.0,
		Mask:         "*",
		CSVDelimiter: ",",
		Algorithm:    "bloomspan",
		Output:       "results_max.csv",
	}
}

// Load reads a YAML parameter file over the defaults.
func Load(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects parameter combinations no pass can run with.
func (p Params) Validate() error {
	if p.MinDocs < 1 {
		return fmt.Errorf("%w: min_docs must be >= 1", internalerr.ErrInvalidConfig)
	}
	if p.NGrams < 1 {
		return fmt.Errorf("%w: ngrams must be >= 1", internalerr.ErrInvalidConfig)
	}
	if p.Sampling <= 0 || p.Sampling > 1 {
		return fmt.Errorf("%w: sampling must be in (0,1]", internalerr.ErrInvalidConfig)
	}
	if p.CacheSize < 1 {
		return fmt.Errorf("%w: cache_size must be >= 1", internalerr.ErrInvalidConfig)
	}
	return nil
}
