package service

import (
	"fmt"
	"html"

	"video_importer/internal/domain"
)

const embedTemplate = `<iframe width="560" height="315" src="https://www.youtube.com/embed/%s" frameborder="0" allowfullscreen></iframe>`

// EmbedCode returns the player markup for a video.
func EmbedCode(videoID string) string {
	return fmt.Sprintf(embedTemplate, html.EscapeString(videoID))
}

// articleBuilder turns listing and detail data into a draft article.
type articleBuilder struct {
	authorID int64
}

func newArticleBuilder(authorID int64) *articleBuilder {
	return &articleBuilder{authorID: authorID}
}

// Build copies title and description verbatim and appends the embed after a
// blank line.
func (b *articleBuilder) Build(video domain.VideoCandidate, detail *domain.VideoDetail, categoryID *int64) *domain.Article {
	embed := EmbedCode(video.ID)

	body := embed
	if detail.Description != "" {
		body = detail.Description + "\n\n" + embed
	}

	return &domain.Article{
		Title:      video.Title,
		Body:       body,
		Status:     domain.StatusDraft,
		AuthorID:   b.authorID,
		CategoryID: categoryID,
		Meta: map[string]string{
			domain.MetaVideoID: video.ID,
			domain.FieldIframe: embed,
		},
	}
}
