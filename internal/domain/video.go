package domain

// VideoCandidate is an upload returned by the channel listing, not yet confirmed new.
type VideoCandidate struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublishedAt  string `json:"published_at"` // ISO-8601, UTC, as returned by the API
}

// PublishedAfter reports whether the video was published strictly after cutoff.
// Both values are zero-padded UTC timestamps of the same layout, so a string
// comparison orders them correctly.
func (v VideoCandidate) PublishedAfter(cutoff string) bool {
	return v.PublishedAt > cutoff
}

type VideoDetail struct {
	ID          string
	Description string
}

// Setting keys under which credentials are stored by the admin API.
const (
	SettingAPIKey    = "youtube_api_key"
	SettingChannelID = "youtube_channel_id"
)

// Credentials identify the channel to mirror and the key used to query it.
type Credentials struct {
	APIKey    string
	ChannelID string
}

func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.ChannelID != ""
}
