// Package knowledge retrieves reference guideline text for the risk
// assessment prompt. The pipeline must work with no store configured, so a
// nil retriever and every retrieval failure degrade to a fixed sentinel
// instead of surfacing an error.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Sentinels injected into the risk assessment prompt when retrieval has
// nothing to contribute.
const (
	NoContextSentinel    = "No additional medical context available."
	NoGuidelinesSentinel = "No specific medical guidelines found for these symptoms."
)

// contextTopK is how many guideline documents a query retrieves.
const contextTopK = 3

// Document is one retrieved guideline entry, most relevant first.
type Document struct {
	ID      string
	Title   string
	Content string
	Score   float64
}

// Retriever is the capability interface to the knowledge store. Search
// returns up to k documents ordered by descending relevance.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// RetrievalError wraps a knowledge-store failure. It never propagates out
// of BuildContext; it exists so logs can distinguish retrieval trouble from
// model trouble.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("guideline retrieval failed for %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// BuildContext queries the store with the joined symptom list and formats
// the hits as a numbered context block. It is defensively wrapped per call:
// a nil retriever or any retrieval error yields the no-context sentinel and
// never fails the pipeline.
func BuildContext(ctx context.Context, r Retriever, symptoms []string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		return NoContextSentinel
	}

	query := strings.Join(symptoms, " ")
	docs, err := r.Search(ctx, query, contextTopK)
	if err != nil {
		retErr := &RetrievalError{Query: query, Err: err}
		logger.Warn("degrading to no-context sentinel", zap.Error(retErr))
		return NoContextSentinel
	}
	if len(docs) == 0 {
		return NoGuidelinesSentinel
	}

	var b strings.Builder
	b.WriteString("Medical Context:\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, doc.Content)
	}
	return b.String()
}
