// Package phrasemine is the mining engine facade: it resolves an algorithm
// name to its implementation and runs it over an encoded corpus.
package phrasemine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine/bide"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine/bloomspan"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine/clospan"
)

// NewAlgorithm resolves an algorithm name. The empty name and "default" both
// select bloomspan.
func NewAlgorithm(name string, logger *log.Logger) (mine.Algorithm, error) {
	switch name {
	case "", "default", "bloomspan":
		return bloomspan.New(logger), nil
	case "bide":
		return bide.New(logger), nil
	case "clospan":
		return clospan.New(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", internalerr.ErrInvalidInput, name)
	}
}

// Mine resolves the named algorithm and runs it with params.
func Mine(ctx context.Context, c mine.Corpus, algorithm string, p mine.Params, logger *log.Logger) ([]mine.Phrase, error) {
	algo, err := NewAlgorithm(algorithm, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("mining",
		"algorithm", algo.Name(), "min_docs", p.MinDocs, "ngrams", p.NGrams)
	return algo.Mine(ctx, c, p)
}
