package youtube

import (
	"context"
	"fmt"

	"ewintr.nl/tubescribe/model"
	"google.golang.org/api/youtube/v3"
)

type Metadata struct {
	Title        string
	Description  string
	ThumbnailURL string
	Duration     string
}

type Client struct {
	svc *youtube.Service
}

func NewClient(svc *youtube.Service) *Client {
	return &Client{svc: svc}
}

// FetchMetadata retrieves title, description, thumbnail and duration for a
// single video from the Data API.
func (c *Client) FetchMetadata(ctx context.Context, id model.YoutubeVideoID) (Metadata, error) {
	call := c.svc.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(string(id)).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	if len(response.Items) == 0 {
		return Metadata{}, fmt.Errorf("video %s not found", id)
	}

	item := response.Items[0]
	md := Metadata{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
	}
	if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
		md.ThumbnailURL = item.Snippet.Thumbnails.High.Url
	}
	if item.ContentDetails != nil {
		md.Duration = item.ContentDetails.Duration
	}

	return md, nil
}
