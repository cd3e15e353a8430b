package youtube

import (
	"regexp"

	"ewintr.nl/tubescribe/model"
)

// Each known URL shape gets its own matcher. Order matters: the first match
// of an exact 11 character id wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/(?:v|e)/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
}

var bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID derives the 11 character video id from a watch, short-link,
// embed or legacy URL, or accepts a bare id as-is. It reports false when the
// input holds no recognizable id.
func ExtractVideoID(s string) (model.YoutubeVideoID, bool) {
	if bareID.MatchString(s) {
		return model.YoutubeVideoID(s), true
	}
	for _, pattern := range idPatterns {
		if m := pattern.FindStringSubmatch(s); m != nil {
			return model.YoutubeVideoID(m[1]), true
		}
	}
	return "", false
}
