package domain

import "time"

const (
	StatusDraft   = "draft"
	StatusPublish = "publish"

	MetaVideoID = "youtube_video_id"
	FieldIframe = "youtube_iframe"
)

type Article struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	Status          string            `json:"status"`
	AuthorID        int64             `json:"author_id"`
	CategoryID      *int64            `json:"category_id,omitempty"`
	FeaturedMediaID *int64            `json:"featured_media_id,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// MediaAsset is a stored binary attached to an article.
type MediaAsset struct {
	ID        int64          `json:"id"`
	ParentID  int64          `json:"parent_id"`
	Title     string         `json:"title"`
	FileName  string         `json:"file_name"`
	Path      string         `json:"path"`
	MimeType  string         `json:"mime_type"`
	Size      int64          `json:"size"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Variants  []ImageVariant `json:"variants,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ImageVariant struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}
