package content

import (
	"context"
	"encoding/json"

	"gtahub/internal/cache"
	"gtahub/internal/cms"
)

// descriptionLength caps the derived meta description.
const descriptionLength = 160

// Metadata is the presentation metadata derived from an article: the
// page title, a plain-text description distilled from the rich-content
// blocks, and the reading-time estimate. Derivation is pure; the result
// is cached so the block tree is not re-flattened on every render.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReadingTime int    `json:"reading_time"`
}

// ArticleMetadata returns the cached metadata for an article, computing
// it from the article's content blocks on first use.
func (s *Service) ArticleMetadata(ctx context.Context, article *cms.Article) Metadata {
	if article == nil {
		return Metadata{}
	}

	key := cache.Key(cache.KindMetadata, "article", article.Slug)
	raw, ok := s.fetch(ctx, cache.KindMetadata, key, func(context.Context) ([]byte, error) {
		meta := deriveArticleMetadata(article)
		return json.Marshal(meta)
	})
	if !ok {
		return deriveArticleMetadata(article)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.log.Error("cached metadata decode failed", "slug", article.Slug, "error", err)
		return deriveArticleMetadata(article)
	}
	return meta
}

// GuideMetadata returns the cached metadata for a guide.
func (s *Service) GuideMetadata(ctx context.Context, guide *cms.Guide) Metadata {
	if guide == nil {
		return Metadata{}
	}

	key := cache.Key(cache.KindMetadata, "guide", guideKeyPart(guide))
	raw, ok := s.fetch(ctx, cache.KindMetadata, key, func(context.Context) ([]byte, error) {
		return json.Marshal(deriveGuideMetadata(guide))
	})
	if !ok {
		return deriveGuideMetadata(guide)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.log.Error("cached metadata decode failed", "slug", guide.Slug, "error", err)
		return deriveGuideMetadata(guide)
	}
	return meta
}

func deriveArticleMetadata(article *cms.Article) Metadata {
	description := article.Excerpt
	if description == "" {
		description = cms.Summary(article.Content, descriptionLength)
	}
	return Metadata{
		Title:       article.Title,
		Description: description,
		ReadingTime: cms.ReadingTime(article.Content),
	}
}

func deriveGuideMetadata(guide *cms.Guide) Metadata {
	description := guide.Summary
	if description == "" {
		description = cms.Summary(guide.Content, descriptionLength)
	}
	return Metadata{
		Title:       guide.Title,
		Description: description,
		ReadingTime: cms.ReadingTime(guide.Content),
	}
}

func guideKeyPart(guide *cms.Guide) string {
	if guide.Game != nil {
		return guide.Game.Slug + ":" + guide.Slug
	}
	return guide.Slug
}
