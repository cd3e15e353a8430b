package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"ewintr.nl/tubescribe/model"
)

// Transcripts come from the Innertube ANDROID /player endpoint, which lists
// caption tracks without the PoToken dance the web client requires. The
// selected track resolves to a timedtext XML document.
const (
	innertubePlayerURL   = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"
	androidClientVersion = "19.09.37"
	androidSDKVersion    = 30
	maxTimedTextBytes    = 512 * 1024
)

type TranscriptSource struct {
	client *http.Client
}

func NewTranscriptSource(client *http.Client) *TranscriptSource {
	if client == nil {
		client = &http.Client{}
	}
	return &TranscriptSource{client: client}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch performs a single transcript lookup. The ref may be a video id or any
// URL shape ExtractVideoID understands.
func (t *TranscriptSource) Fetch(ctx context.Context, ref, language string) (string, error) {
	id, ok := ExtractVideoID(ref)
	if !ok {
		return "", fmt.Errorf("no video id in %q", ref)
	}

	tracks, err := t.captionTracks(ctx, id)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("no caption tracks for video %s", id)
	}

	return t.timedText(ctx, pickTrack(tracks, language).BaseURL)
}

func (t *TranscriptSource) captionTracks(ctx context.Context, id model.YoutubeVideoID) ([]captionTrack, error) {
	body, err := json.Marshal(map[string]any{
		"videoId": string(id),
		"context": map[string]any{
			"client": map[string]any{
				"clientName":        "ANDROID",
				"clientVersion":     androidClientVersion,
				"androidSdkVersion": androidSDKVersion,
				"hl":                "en",
				"gl":                "US",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, innertubePlayerURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("com.google.android.youtube/%s (Linux; U; Android 11) gzip", androidClientVersion))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player request: unexpected status %s", resp.Status)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	return player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// pickTrack prefers a manual track in the requested language, then an
// auto-generated one, then any English track, then whatever is first.
func pickTrack(tracks []captionTrack, language string) captionTrack {
	for _, track := range tracks {
		if track.LanguageCode == language && track.Kind != "asr" {
			return track
		}
	}
	for _, track := range tracks {
		if track.LanguageCode == language {
			return track
		}
	}
	for _, track := range tracks {
		if strings.HasPrefix(track.LanguageCode, "en") {
			return track
		}
	}
	return tracks[0]
}

func (t *TranscriptSource) timedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch timedtext: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty timedtext document")
	}

	return sb.String(), nil
}
