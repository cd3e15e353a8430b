package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ewintr.nl/tubescribe/model"
)

// ErrEmptyTranscript marks a lookup that succeeded on the wire but returned
// nothing the analyzer could work with.
var ErrEmptyTranscript = errors.New("empty transcript received")

// ExhaustedError is returned once every attempt has been spent. It carries
// the last underlying error for the orchestrator to record.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed to fetch transcript after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Source performs one transcript lookup. The ref may be a bare video id or a
// full URL; both resolve through the same endpoint.
type Source interface {
	Fetch(ctx context.Context, ref, language string) (string, error)
}

// Fetcher wraps a Source with retries, exponential backoff and a per-attempt
// timeout. When a fallback URL is supplied it is tried within the same
// attempt after the id path fails, not as an extra retry.
type Fetcher struct {
	Attempts  int
	BaseDelay time.Duration
	Timeout   time.Duration

	source Source
}

func NewFetcher(source Source) *Fetcher {
	return &Fetcher{
		Attempts:  3,
		BaseDelay: 2 * time.Second,
		Timeout:   30 * time.Second,
		source:    source,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, youtubeID model.YoutubeVideoID, fallbackURL, language string) (string, error) {
	refs := make([]string, 0, 2)
	if youtubeID != "" {
		refs = append(refs, string(youtubeID))
	}
	if fallbackURL != "" {
		refs = append(refs, fallbackURL)
	}
	if len(refs) == 0 {
		return "", errors.New("no video id or url to fetch")
	}

	var lastErr error
	for attempt := 0; attempt < f.Attempts; attempt++ {
		if attempt > 0 {
			delay := f.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		for _, ref := range refs {
			text, err := f.fetchOnce(ctx, ref, language)
			if err != nil {
				lastErr = err
				continue
			}
			return text, nil
		}
	}

	return "", &ExhaustedError{Attempts: f.Attempts, Last: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, ref, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	text, err := f.source.Fetch(ctx, ref, language)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyTranscript
	}

	return text, nil
}
