package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/internal/logger"
	"github.com/cognicore/phrasemine/pkg/phrasemine"
	"github.com/cognicore/phrasemine/pkg/phrasemine/config"
	"github.com/cognicore/phrasemine/pkg/phrasemine/corpus"
	"github.com/cognicore/phrasemine/pkg/phrasemine/ingest"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
	"github.com/cognicore/phrasemine/pkg/phrasemine/results"
	"github.com/cognicore/phrasemine/pkg/phrasemine/spmf"
	"github.com/cognicore/phrasemine/pkg/phrasemine/store"
	"github.com/cognicore/phrasemine/pkg/phrasemine/store/sqlite"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: phrasemine <dir-or-csv> [options]

Options:
  --n <int>              Min documents threshold (default: 10)
  --ngrams <int>         N-gram seed width (default: 4)
  --min-l <int>          Min reported phrase length (default: 1)
  --mem <int>            Memory limit in MB, 0 = unbounded (default: 0)
  --threads <int>        Max worker threads, 0 = all (default: 0)
  --cache <int>          Max cached documents in disk mode (default: 1000)
  --sampling <float>     Random subsample fraction in (0,1] (default: 1.0)
  --in-mem               Keep all documents in memory, skip the bin file
  --preload              In disk mode, populate the cache during load
  --mask <pattern>       File filter: *, *.<ext>, or exact name (default: *)
  --csv-delimiter <c>    CSV field separator, \t and \n accepted (default: ,)
  --algo <name>          bloomspan | bide | clospan | spmf:<NAME> (default: bloomspan)
  --out <path>           Result CSV path (default: results_max.csv)
  --db <path>            Optional SQLite database for run persistence
  --config <path>        YAML parameter file, overridden by explicit flags
  --spmf-jar <path>      SPMF jar, required with --algo spmf:<NAME>
  --spmf-params <str>    Extra SPMF parameters
  --verbose              Debug logging
`)
}

func main() {
	var (
		minDocs    = flag.Int("n", 10, "min documents threshold")
		ngrams     = flag.Int("ngrams", 4, "n-gram seed width")
		minLen     = flag.Int("min-l", 1, "min reported phrase length")
		memLimit   = flag.Int("mem", 0, "memory limit in MB, 0 = unbounded")
		threads    = flag.Int("threads", 0, "max worker threads, 0 = all")
		cacheSize  = flag.Int("cache", 1000, "max cached documents in disk mode")
		sampling   = flag.Float64("sampling", 1.0, "random subsample fraction")
		inMem      = flag.Bool("in-mem", false, "keep all documents in memory")
		preload    = flag.Bool("preload", false, "populate the cache during load")
		mask       = flag.String("mask", "*", "file filter")
		delimiter  = flag.String("csv-delimiter", ",", "csv field separator")
		algo       = flag.String("algo", "bloomspan", "mining algorithm")
		output     = flag.String("out", "results_max.csv", "result csv path")
		dbPath     = flag.String("db", "", "optional sqlite database path")
		configPath = flag.String("config", "", "yaml parameter file")
		spmfJar    = flag.String("spmf-jar", "", "spmf jar path")
		spmfParams = flag.String("spmf-params", "", "extra spmf parameters")
		verbose    = flag.Bool("verbose", false, "debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	lg := logger.NewWithLevel("phrasemine", level)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			lg.Error("bad config file", "err", err)
			os.Exit(1)
		}
	}

	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			cfg.MinDocs = *minDocs
		case "ngrams":
			cfg.NGrams = *ngrams
		case "min-l":
			cfg.MinLen = *minLen
		case "mem":
			cfg.MemLimitMB = *memLimit
		case "threads":
			cfg.Threads = *threads
		case "cache":
			cfg.CacheSize = *cacheSize
		case "sampling":
			cfg.Sampling = *sampling
		case "in-mem":
			cfg.InMemory = *inMem
		case "preload":
			cfg.Preload = *preload
		case "mask":
			cfg.Mask = *mask
		case "csv-delimiter":
			cfg.CSVDelimiter = *delimiter
		case "algo":
			cfg.Algorithm = *algo
		case "out":
			cfg.Output = *output
		case "db":
			cfg.DBPath = *dbPath
		case "spmf-jar":
			cfg.SPMF.Jar = *spmfJar
		case "spmf-params":
			cfg.SPMF.Params = *spmfParams
		}
	})

	if err := cfg.Validate(); err != nil {
		lg.Error("bad parameters", "err", err)
		os.Exit(1)
	}

	spmfAlgo, useSPMF := strings.CutPrefix(cfg.Algorithm, "spmf:")
	if useSPMF {
		if cfg.SPMF.Jar == "" {
			lg.Error("--algo spmf:<NAME> requires --spmf-jar")
			os.Exit(1)
		}
	} else {
		// Reject unknown algorithm names before any loading happens.
		if _, err := phrasemine.NewAlgorithm(cfg.Algorithm, lg); err != nil {
			lg.Error("bad algorithm", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := loadCorpus(inputPath, cfg, lg)
	if err != nil {
		lg.Fatal("loading failed", "err", err)
	}
	defer c.Close()

	params := mine.Params{
		MinDocs:    cfg.MinDocs,
		NGrams:     cfg.NGrams,
		MinLen:     cfg.MinLen,
		MemLimitMB: cfg.MemLimitMB,
		Threads:    cfg.Threads,
	}

	var phrases []mine.Phrase
	if useSPMF {
		phrases, err = spmf.New(cfg.SPMF.Jar, lg).Run(ctx, c, spmfAlgo, cfg.SPMF.Params)
	} else {
		phrases, err = phrasemine.Mine(ctx, c, cfg.Algorithm, params, lg)
	}
	if err != nil {
		lg.Fatal("mining failed", "err", err)
	}

	if err := results.WriteCSV(cfg.Output, phrases, c); err != nil {
		lg.Fatal("saving results failed", "err", err)
	}
	lg.Info("results saved", "path", cfg.Output, "phrases", len(phrases))

	if cfg.DBPath != "" {
		if err := persistRun(ctx, cfg, inputPath, phrases, c, lg); err != nil {
			lg.Fatal("persisting run failed", "err", err)
		}
	}
}

func loadCorpus(inputPath string, cfg config.Params, lg *log.Logger) (*corpus.Corpus, error) {
	loader := &ingest.Loader{
		Tokenizer: ingest.NewTokenizer(),
		Mask:      cfg.Mask,
		Sampling:  cfg.Sampling,
		Threads:   cfg.Threads,
		Log:       lg,
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	var docs []ingest.RawDoc
	if info.IsDir() {
		docs, err = loader.LoadDirectory(inputPath)
	} else {
		docs, err = loader.LoadCSV(inputPath, parseDelimiter(cfg.CSVDelimiter))
	}
	if err != nil {
		return nil, err
	}

	return corpus.Build(docs, corpus.Options{
		InMemory:  cfg.InMemory,
		Preload:   cfg.Preload,
		CacheSize: cfg.CacheSize,
		Log:       lg,
	})
}

func parseDelimiter(s string) rune {
	switch s {
	case "\\t":
		return '\t'
	case "\\n":
		return '\n'
	case "":
		return ','
	}
	return []rune(s)[0]
}

func persistRun(ctx context.Context, cfg config.Params, input string, phrases []mine.Phrase, r results.Renderer, lg *log.Logger) error {
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, store.Run{
		Input:     input,
		Algorithm: cfg.Algorithm,
		MinDocs:   cfg.MinDocs,
		NGrams:    cfg.NGrams,
		MinLen:    cfg.MinLen,
	})
	if err != nil {
		return err
	}

	rows := make([]store.PhraseRow, 0, len(phrases))
	for _, p := range phrases {
		phrase, examples := results.Render(p, r)
		rows = append(rows, store.PhraseRow{
			Phrase:       phrase,
			Support:      p.Support,
			Length:       len(p.Tokens),
			ExampleFiles: examples,
		})
	}
	if err := db.SavePhrases(ctx, runID, rows); err != nil {
		return err
	}
	lg.Info("run persisted", "db", cfg.DBPath, "run_id", runID, "phrases", len(rows))
	return nil
}
