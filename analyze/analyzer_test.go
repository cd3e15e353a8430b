package analyze_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ewintr.nl/tubescribe/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
  "summary": "A short talk about gardening.",
  "keyPoints": ["soil matters", "water sparingly", "prune in spring"],
  "sentiment": "positive",
  "contentRating": "General",
  "suggestedTags": ["gardening", "howto"]
}`

type stubGenerator struct {
	prompts   []string
	responses []string
	errs      []error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	call := len(g.prompts) - 1
	if call < len(g.errs) && g.errs[call] != nil {
		return "", g.errs[call]
	}
	if call < len(g.responses) {
		return g.responses[call], nil
	}
	return g.responses[len(g.responses)-1], nil
}

func newTestAnalyzer(gen analyze.Generator) *analyze.Analyzer {
	analyzer := analyze.NewAnalyzer(gen)
	analyzer.Delay = time.Millisecond
	return analyzer
}

func TestAnalyzerParsesResponse(t *testing.T) {
	gen := &stubGenerator{responses: []string{validResponse}}
	analyzer := newTestAnalyzer(gen)

	analysis, err := analyzer.Analyze(context.Background(), "we talk about gardening")
	require.NoError(t, err)
	assert.Equal(t, "A short talk about gardening.", analysis.Summary)
	assert.Len(t, analysis.KeyPoints, 3)
	assert.Equal(t, "positive", analysis.Sentiment)
	assert.Equal(t, "General", analysis.ContentRating)
	assert.Equal(t, []string{"gardening", "howto"}, analysis.SuggestedTags)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "we talk about gardening")
}

func TestAnalyzerStripsCodeFences(t *testing.T) {
	gen := &stubGenerator{responses: []string{"```json\n" + validResponse + "\n```"}}
	analyzer := newTestAnalyzer(gen)

	analysis, err := analyzer.Analyze(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, "positive", analysis.Sentiment)
}

func TestAnalyzerRetriesGenerationError(t *testing.T) {
	gen := &stubGenerator{
		errs:      []error{errors.New("rate limited"), nil},
		responses: []string{"", validResponse},
	}
	analyzer := newTestAnalyzer(gen)

	analysis, err := analyzer.Analyze(context.Background(), "transcript")
	require.NoError(t, err)
	assert.NotEmpty(t, analysis.Summary)
	assert.Len(t, gen.prompts, 2)
}

func TestAnalyzerRejectsMissingFields(t *testing.T) {
	incomplete := `{"summary": "something", "keyPoints": ["a"], "contentRating": "General"}`
	gen := &stubGenerator{responses: []string{incomplete}}
	analyzer := newTestAnalyzer(gen)

	_, err := analyzer.Analyze(context.Background(), "transcript")
	require.Error(t, err)
	assert.ErrorIs(t, err, analyze.ErrInvalidAnalysis)
	assert.Len(t, gen.prompts, 2)
}

func TestAnalyzerRejectsNonJSON(t *testing.T) {
	gen := &stubGenerator{responses: []string{"Sorry, I cannot analyze this."}}
	analyzer := newTestAnalyzer(gen)

	_, err := analyzer.Analyze(context.Background(), "transcript")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to analyze transcript after 2 attempts"))
}

func TestAnalyzerIgnoresUnknownFields(t *testing.T) {
	extra := `{
  "summary": "ok",
  "keyPoints": ["a", "b"],
  "sentiment": "neutral",
  "confidence": 0.93
}`
	gen := &stubGenerator{responses: []string{extra}}
	analyzer := newTestAnalyzer(gen)

	analysis, err := analyzer.Analyze(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, "neutral", analysis.Sentiment)
	assert.Empty(t, analysis.ContentRating)
}
