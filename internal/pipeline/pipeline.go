// Package pipeline runs one statement through extraction, parsing and
// aggregation. Every run is independent; nothing is cached between runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/extractor"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/logger"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/parser"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/summary"
)

// ErrExtraction wraps any failure to read text out of the PDF.
var ErrExtraction = errors.New("extraction failed")

// Result is the output of one run: the full record set and its daily summary.
type Result struct {
	Pages     []string
	Statement *models.Statement
	Summary   *summary.Summary
}

// AnalyzePDF extracts page text from data and analyzes it.
func AnalyzePDF(ctx context.Context, data []byte) (*Result, error) {
	pages, err := extractor.ExtractBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return Analyze(ctx, pages)
}

// Analyze parses pages and aggregates credits. When no line matches, the
// returned Result is still populated and the error is parser.ErrNoTransactions.
func Analyze(ctx context.Context, pages []string) (*Result, error) {
	log := logger.FromContext(ctx)

	p := parser.New()
	st, err := p.Parse(pages)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	res := &Result{
		Pages:     pages,
		Statement: st,
		Summary:   summary.Aggregate(st.Transactions),
	}

	log.Debug().
		Int("pages", len(pages)).
		Bool("phonepe_marker", parser.IsPhonePe(pages)).
		Int("transactions", len(st.Transactions)).
		Int("days", len(res.Summary.Entries)).
		Int("undated_credits", res.Summary.Skipped).
		Msg("statement analyzed")

	if err := parser.Validate(st); err != nil {
		return res, err
	}
	return res, nil
}
