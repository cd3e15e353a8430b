package model

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the structured result of running a transcript through the
// language model. The JSON tags match the keys the model is asked to emit.
type Analysis struct {
	VideoID       uuid.UUID `json:"-"`
	Summary       string    `json:"summary"`
	KeyPoints     []string  `json:"keyPoints"`
	Sentiment     string    `json:"sentiment"`
	ContentRating string    `json:"contentRating"`
	SuggestedTags []string  `json:"suggestedTags"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
