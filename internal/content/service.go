// Package content is the cached content service. It applies the one
// fetch contract every page follows: derive a deterministic cache key,
// serve fresh entries (including a cached not-found) without touching the
// upstream, fetch on miss, store successful results, and convert fetch
// failures into the kind's default value so rendering always proceeds.
package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"gtahub/internal/cache"
	"gtahub/internal/cms"
	"gtahub/internal/observability"
)

// SearchLimitMax caps the page size of search-as-you-type queries.
const SearchLimitMax = 20

// Service exposes one operation per content kind, all funneled through
// the same cache contract. Concurrent misses for the same key are
// de-duplicated into a single upstream call.
type Service struct {
	client  *cms.Client
	store   cache.Store
	ttls    cache.TTLTable
	metrics *observability.Metrics
	log     *slog.Logger
	group   singleflight.Group
}

// New creates the content service. The store is constructed at startup
// and injected; there are no package-level cache singletons.
func New(client *cms.Client, store cache.Store, ttls cache.TTLTable, metrics *observability.Metrics, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		client:  client,
		store:   store,
		ttls:    ttls,
		metrics: metrics,
		log:     log,
	}
}

// fetch runs the cache contract around loader and returns the normalized
// raw JSON payload. ok is false only on fetch failure, in which case
// nothing was cached and the kind's default applies. A cached "null" is
// a successful result and is returned without re-querying.
func (s *Service) fetch(ctx context.Context, kind cache.Kind, key string, loader func(context.Context) ([]byte, error)) ([]byte, bool) {
	ttl := s.ttls.TTL(kind)

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	}
	if entry != nil && entry.Fresh(ttl) {
		s.metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		return entry.Value, true
	}
	s.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	value, err, _ := s.group.Do(key, func() (any, error) {
		raw, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.store.Set(ctx, key, raw, ttl); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
		return raw, nil
	})
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues(string(kind)).Inc()
		s.log.Error("content fetch failed", "kind", kind, "key", key, "error", err)
		return nil, false
	}

	return value.([]byte), true
}

// one builds a loader that fetches a single-record lookup and normalizes
// an empty result set to literal null, which is cached like any value.
func (s *Service) one(kind cache.Kind, collection string, q *cms.Query) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		s.metrics.UpstreamRequests.WithLabelValues(string(kind)).Inc()
		resp, err := s.client.Get(ctx, collection, q, s.ttls.TTL(kind))
		if err != nil {
			return nil, err
		}
		first, err := resp.First()
		if err != nil {
			return nil, err
		}
		if first == nil {
			return []byte("null"), nil
		}
		return first, nil
	}
}

// list builds a loader that fetches a list lookup; an absent data array
// normalizes to an empty one. Zero results are a valid, cacheable state.
func (s *Service) list(kind cache.Kind, collection string, q *cms.Query) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		s.metrics.UpstreamRequests.WithLabelValues(string(kind)).Inc()
		resp, err := s.client.Get(ctx, collection, q, s.ttls.TTL(kind))
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 || string(resp.Data) == "null" {
			return []byte("[]"), nil
		}
		return resp.Data, nil
	}
}

func decodeOne[T any](raw []byte, log *slog.Logger, kind cache.Kind) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Error("cached payload decode failed", "kind", kind, "error", err)
		return nil
	}
	return &v
}

func decodeList[T any](raw []byte, log *slog.Logger, kind cache.Kind) []T {
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}
	}
	var v []T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Error("cached payload decode failed", "kind", kind, "error", err)
		return []T{}
	}
	if v == nil {
		return []T{}
	}
	return v
}

// ArticleBySlug looks up one article by slug with its cover, author,
// category and tags populated. Returns nil when the slug is unknown or
// the upstream is unavailable.
func (s *Service) ArticleBySlug(ctx context.Context, slug string) *cms.Article {
	key := cache.Key(cache.KindArticle, slug)
	q := cms.NewQuery().
		FilterEq("slug", slug).
		Populate("cover", "author", "category", "tags")
	raw, ok := s.fetch(ctx, cache.KindArticle, key, s.one(cache.KindArticle, "articles", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Article](raw, s.log, cache.KindArticle)
}

// SimilarArticles returns up to limit recent articles sharing a category,
// excluding the article they accompany.
func (s *Service) SimilarArticles(ctx context.Context, categoryID, excludeID, limit int) []cms.Article {
	key := cache.Key(cache.KindSimilar, strconv.Itoa(categoryID), strconv.Itoa(excludeID), strconv.Itoa(limit))
	q := cms.NewQuery().
		FilterRelEq("category", "id", strconv.Itoa(categoryID)).
		FilterNe("id", strconv.Itoa(excludeID)).
		Sort("publishedAt:desc").
		Limit(limit).
		Populate("cover")
	raw, ok := s.fetch(ctx, cache.KindSimilar, key, s.list(cache.KindSimilar, "articles", q))
	if !ok {
		return []cms.Article{}
	}
	return decodeList[cms.Article](raw, s.log, cache.KindSimilar)
}

// AuthorByID looks up one author with their avatar populated.
func (s *Service) AuthorByID(ctx context.Context, id int) *cms.Author {
	key := cache.Key(cache.KindAuthor, strconv.Itoa(id))
	q := cms.NewQuery().
		FilterEq("id", strconv.Itoa(id)).
		Populate("avatar")
	raw, ok := s.fetch(ctx, cache.KindAuthor, key, s.one(cache.KindAuthor, "authors", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Author](raw, s.log, cache.KindAuthor)
}

// RecentArticles returns the newest published articles for the home page.
func (s *Service) RecentArticles(ctx context.Context, limit int) []cms.Article {
	key := cache.Key(cache.KindArticle, "recent", strconv.Itoa(limit))
	q := cms.NewQuery().
		FilterNotNull("publishedAt").
		Sort("publishedAt:desc").
		Limit(limit).
		Populate("cover", "category")
	raw, ok := s.fetch(ctx, cache.KindArticle, key, s.list(cache.KindArticle, "articles", q))
	if !ok {
		return []cms.Article{}
	}
	return decodeList[cms.Article](raw, s.log, cache.KindArticle)
}

// ArticlesByCategory returns one page of a category's articles, newest
// first.
func (s *Service) ArticlesByCategory(ctx context.Context, categoryID, page, pageSize int) []cms.Article {
	key := cache.Key(cache.KindArticle, "category", strconv.Itoa(categoryID), strconv.Itoa(page), strconv.Itoa(pageSize))
	q := cms.NewQuery().
		FilterRelEq("category", "id", strconv.Itoa(categoryID)).
		Sort("publishedAt:desc").
		Page(page).
		PageSize(pageSize).
		Populate("cover")
	raw, ok := s.fetch(ctx, cache.KindArticle, key, s.list(cache.KindArticle, "articles", q))
	if !ok {
		return []cms.Article{}
	}
	return decodeList[cms.Article](raw, s.log, cache.KindArticle)
}

// CategoryBySlug looks up one category.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) *cms.Category {
	key := cache.Key(cache.KindCategory, slug)
	q := cms.NewQuery().FilterEq("slug", slug)
	raw, ok := s.fetch(ctx, cache.KindCategory, key, s.one(cache.KindCategory, "categories", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Category](raw, s.log, cache.KindCategory)
}

// Categories returns the full category enumeration. Small collection,
// full population is acceptable.
func (s *Service) Categories(ctx context.Context) []cms.Category {
	key := cache.Key(cache.KindCategory, "all")
	q := cms.NewQuery().PopulateAll().Sort("name:asc").PageSize(100)
	raw, ok := s.fetch(ctx, cache.KindCategory, key, s.list(cache.KindCategory, "categories", q))
	if !ok {
		return []cms.Category{}
	}
	return decodeList[cms.Category](raw, s.log, cache.KindCategory)
}

// GameBySlug looks up one game with its cover populated.
func (s *Service) GameBySlug(ctx context.Context, slug string) *cms.Game {
	key := cache.Key(cache.KindGame, slug)
	q := cms.NewQuery().FilterEq("slug", slug).Populate("cover")
	raw, ok := s.fetch(ctx, cache.KindGame, key, s.one(cache.KindGame, "games", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Game](raw, s.log, cache.KindGame)
}

// Games returns the full games enumeration.
func (s *Service) Games(ctx context.Context) []cms.Game {
	key := cache.Key(cache.KindGame, "all")
	q := cms.NewQuery().PopulateAll().Sort("title:asc").PageSize(200)
	raw, ok := s.fetch(ctx, cache.KindGame, key, s.list(cache.KindGame, "games", q))
	if !ok {
		return []cms.Game{}
	}
	return decodeList[cms.Game](raw, s.log, cache.KindGame)
}

// AchievementsByGame returns a game's achievements with award images.
func (s *Service) AchievementsByGame(ctx context.Context, gameSlug string) []cms.Achievement {
	key := cache.Key(cache.KindAchievement, gameSlug)
	q := cms.NewQuery().
		FilterRelEq("game", "slug", gameSlug).
		Sort("points:asc").
		PageSize(200).
		Populate("image")
	raw, ok := s.fetch(ctx, cache.KindAchievement, key, s.list(cache.KindAchievement, "achievements", q))
	if !ok {
		return []cms.Achievement{}
	}
	return decodeList[cms.Achievement](raw, s.log, cache.KindAchievement)
}

// GuideBySlug looks up a guide by its compound (game slug, guide slug)
// identity.
func (s *Service) GuideBySlug(ctx context.Context, gameSlug, guideSlug string) *cms.Guide {
	key := cache.Key(cache.KindGuide, gameSlug, guideSlug)
	q := cms.NewQuery().
		FilterRelEq("game", "slug", gameSlug).
		FilterEq("slug", guideSlug).
		Populate("cover", "game", "author")
	raw, ok := s.fetch(ctx, cache.KindGuide, key, s.one(cache.KindGuide, "guides", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Guide](raw, s.log, cache.KindGuide)
}

// GuidesByGame returns a game's guides, newest first.
func (s *Service) GuidesByGame(ctx context.Context, gameSlug string) []cms.Guide {
	key := cache.Key(cache.KindGuide, gameSlug, "all")
	q := cms.NewQuery().
		FilterRelEq("game", "slug", gameSlug).
		Sort("publishedAt:desc").
		PageSize(100).
		Populate("cover")
	raw, ok := s.fetch(ctx, cache.KindGuide, key, s.list(cache.KindGuide, "guides", q))
	if !ok {
		return []cms.Guide{}
	}
	return decodeList[cms.Guide](raw, s.log, cache.KindGuide)
}

// HeistBySlug looks up one heist page.
func (s *Service) HeistBySlug(ctx context.Context, slug string) *cms.Heist {
	key := cache.Key(cache.KindHeist, slug)
	q := cms.NewQuery().FilterEq("slug", slug).Populate("cover", "game")
	raw, ok := s.fetch(ctx, cache.KindHeist, key, s.one(cache.KindHeist, "heists", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Heist](raw, s.log, cache.KindHeist)
}

// Heists returns the heist enumeration.
func (s *Service) Heists(ctx context.Context) []cms.Heist {
	key := cache.Key(cache.KindHeist, "all")
	q := cms.NewQuery().PopulateAll().Sort("name:asc").PageSize(100)
	raw, ok := s.fetch(ctx, cache.KindHeist, key, s.list(cache.KindHeist, "heists", q))
	if !ok {
		return []cms.Heist{}
	}
	return decodeList[cms.Heist](raw, s.log, cache.KindHeist)
}

// JobBySlug looks up one job page.
func (s *Service) JobBySlug(ctx context.Context, slug string) *cms.Job {
	key := cache.Key(cache.KindJob, slug)
	q := cms.NewQuery().FilterEq("slug", slug).Populate("cover")
	raw, ok := s.fetch(ctx, cache.KindJob, key, s.one(cache.KindJob, "jobs", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.Job](raw, s.log, cache.KindJob)
}

// WeeklyEvent returns the current weekly event, the newest by start date.
func (s *Service) WeeklyEvent(ctx context.Context) *cms.WeeklyEvent {
	key := cache.Key(cache.KindWeekly, "current")
	q := cms.NewQuery().Sort("startsAt:desc").Limit(1)
	raw, ok := s.fetch(ctx, cache.KindWeekly, key, s.one(cache.KindWeekly, "weekly-events", q))
	if !ok {
		return nil
	}
	return decodeOne[cms.WeeklyEvent](raw, s.log, cache.KindWeekly)
}

// SearchArticles backs search-as-you-type: a field-limited title search,
// newest first, capped at SearchLimitMax results. The term is folded to
// lower case so equivalent queries share a cache entry.
func (s *Service) SearchArticles(ctx context.Context, term string, limit int) []cms.Article {
	if limit <= 0 || limit > SearchLimitMax {
		limit = SearchLimitMax
	}
	folded := strings.ToLower(strings.TrimSpace(term))
	key := cache.Key(cache.KindSearch, folded, strconv.Itoa(limit))
	q := cms.NewQuery().
		FilterContains("title", folded).
		Fields("title", "slug", "excerpt", "publishedAt").
		Sort("publishedAt:desc").
		Limit(limit)
	raw, ok := s.fetch(ctx, cache.KindSearch, key, s.list(cache.KindSearch, "articles", q))
	if !ok {
		return []cms.Article{}
	}
	return decodeList[cms.Article](raw, s.log, cache.KindSearch)
}
