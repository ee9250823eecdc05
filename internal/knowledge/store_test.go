package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubRetriever struct {
	docs []Document
	err  error
}

func (s *stubRetriever) Search(_ context.Context, _ string, _ int) ([]Document, error) {
	return s.docs, s.err
}

type queryCapture struct {
	query string
	k     int
}

func (q *queryCapture) Search(_ context.Context, query string, k int) ([]Document, error) {
	q.query = query
	q.k = k
	return nil, nil
}

func TestBuildContextWithoutStore(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, NoContextSentinel, BuildContext(ctx, nil, []string{"headache"}, nil))
	assert.Equal(t, NoContextSentinel, BuildContext(ctx, nil, nil, nil))
}

func TestBuildContextSwallowsRetrievalErrors(t *testing.T) {
	r := &stubRetriever{err: errors.New("connection refused")}
	got := BuildContext(context.Background(), r, []string{"chest pain"}, zap.NewNop())
	assert.Equal(t, NoContextSentinel, got)
}

func TestBuildContextWithNoHits(t *testing.T) {
	r := &stubRetriever{}
	got := BuildContext(context.Background(), r, []string{"sore throat"}, nil)
	assert.Equal(t, NoGuidelinesSentinel, got)
}

func TestBuildContextFormatsNumberedList(t *testing.T) {
	r := &stubRetriever{docs: []Document{
		{Content: "Chest pain with dyspnea warrants immediate evaluation."},
		{Content: "Consider cardiac causes in patients over 40."},
	}}
	got := BuildContext(context.Background(), r, []string{"chest pain", "shortness of breath"}, nil)
	assert.Equal(t, "Medical Context:\n1. Chest pain with dyspnea warrants immediate evaluation.\n2. Consider cardiac causes in patients over 40.\n", got)
}

func TestBuildContextJoinsSymptomsIntoQuery(t *testing.T) {
	capture := &queryCapture{}
	BuildContext(context.Background(), capture, []string{"chest pain", "nausea"}, nil)
	assert.Equal(t, "chest pain nausea", capture.query)
	assert.Equal(t, contextTopK, capture.k)
}
