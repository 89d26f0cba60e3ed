// Package spmf bridges the miner to the external SPMF sequential pattern
// mining tool: it exports the encoded corpus in SPMF item format, runs the
// jar, and parses the resulting patterns back into phrases.
package spmf

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// Bridge runs one SPMF algorithm over the corpus.
type Bridge struct {
	JarPath string
	Log     *log.Logger
}

// New creates a bridge for the given jar.
func New(jarPath string, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{JarPath: jarPath, Log: logger}
}

// Run exports the corpus, invokes `java -jar <jar> run <algo> <in> <out>
// <params...>` and parses the output. SPMF reports no positions, so the
// returned phrases carry only tokens and support.
func (b *Bridge) Run(ctx context.Context, c mine.Corpus, algo, params string) ([]mine.Phrase, error) {
	inputPath := "spmf_input.txt"
	outputPath := "spmf_output.txt"
	defer os.Remove(inputPath)
	defer os.Remove(outputPath)

	b.Log.Info("converting corpus to SPMF format", "path", inputPath)
	if err := b.export(c, inputPath); err != nil {
		return nil, err
	}

	args := []string{"-jar", b.JarPath, "run", algo, inputPath, outputPath}
	if params != "" {
		args = append(args, strings.Fields(params)...)
	}
	b.Log.Info("executing SPMF", "algo", algo, "params", params)

	cmd := exec.CommandContext(ctx, "java", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("spmf execution failed: %w", err)
	}

	phrases, err := b.parse(outputPath)
	if err != nil {
		return nil, err
	}
	b.Log.Info("parsed SPMF output", "phrases", len(phrases))
	return phrases, nil
}

// export writes every document as `tok -1 tok -1 ... -2`.
func (b *Bridge) export(c mine.Corpus, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create spmf input: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for d := 0; d < c.NumDocs(); d++ {
		doc, err := c.GetDoc(uint32(d))
		if err != nil {
			return err
		}
		for _, t := range doc {
			fmt.Fprintf(w, "%d -1 ", t)
		}
		fmt.Fprint(w, "-2\n")
	}
	return w.Flush()
}

// parse reads SPMF output lines of the form "item1 item2 ... #SUP: count".
func (b *Bridge) parse(path string) ([]mine.Phrase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spmf output: %w", err)
	}
	defer f.Close()

	var phrases []mine.Phrase
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		supIdx := strings.Index(line, "#SUP:")
		if supIdx < 0 {
			continue
		}
		support, err := strconv.Atoi(strings.TrimSpace(line[supIdx+5:]))
		if err != nil {
			b.Log.Warn("skipping unparsable SPMF line", "line", line)
			continue
		}

		var tokens []uint32
		for _, field := range strings.Fields(line[:supIdx]) {
			v, err := strconv.ParseUint(field, 10, 32)
			if err != nil {
				// Itemset separators (-1) and malformed items are skipped.
				continue
			}
			tokens = append(tokens, uint32(v))
		}
		if len(tokens) == 0 {
			continue
		}
		phrases = append(phrases, mine.Phrase{Tokens: tokens, Support: support})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read spmf output: %w", err)
	}
	return phrases, nil
}
