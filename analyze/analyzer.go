package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ewintr.nl/tubescribe/model"
)

const analysisPrompt = `Analyze this YouTube video transcript and provide:
1. A concise summary (max 3 sentences)
2. 5 key points from the content
3. Overall sentiment (positive, negative, or neutral)
4. Content rating (General, Teen, Mature)
5. 5-7 suggested tags for the video

Transcript:
%s

Format your response as JSON:
{
  "summary": "...",
  "keyPoints": ["point1", "point2", "point3", "point4", "point5"],
  "sentiment": "...",
  "contentRating": "...",
  "suggestedTags": ["tag1", "tag2", "tag3", "tag4", "tag5"]
}`

// ErrInvalidAnalysis marks a response that parsed but misses one of the
// required fields. It consumes a retry slot like any transport failure.
var ErrInvalidAnalysis = errors.New("analysis response missing required fields")

// Generator produces text for a prompt. The analyzer only depends on the
// structured JSON mode; chat features share the same operation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer turns transcript text into a validated Analysis, retrying a
// bounded number of times with a per-attempt timeout.
type Analyzer struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration

	gen Generator
}

func NewAnalyzer(gen Generator) *Analyzer {
	return &Analyzer{
		Attempts: 2,
		Delay:    2 * time.Second,
		Timeout:  30 * time.Second,
		gen:      gen,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, transcriptText string) (*model.Analysis, error) {
	var lastErr error
	for attempt := 0; attempt < a.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.Delay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		analysis, err := a.analyzeOnce(ctx, transcriptText)
		if err != nil {
			lastErr = err
			continue
		}
		return analysis, nil
	}

	return nil, fmt.Errorf("failed to analyze transcript after %d attempts: %w", a.Attempts, lastErr)
}

func (a *Analyzer) analyzeOnce(ctx context.Context, transcriptText string) (*model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	raw, err := a.gen.Generate(ctx, fmt.Sprintf(analysisPrompt, transcriptText))
	if err != nil {
		return nil, err
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if err := validate(&analysis); err != nil {
		return nil, err
	}

	return &analysis, nil
}

func validate(analysis *model.Analysis) error {
	if analysis.Summary == "" || len(analysis.KeyPoints) == 0 || analysis.Sentiment == "" {
		return ErrInvalidAnalysis
	}
	return nil
}

// stripFences removes markdown code fences models like to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
