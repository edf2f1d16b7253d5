package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"gtahub/internal/cache"
	"gtahub/internal/cms"
	"gtahub/internal/content"
)

const categoryPageSize = 24

// Handler holds the page and API handlers.
type Handler struct {
	content *content.Service
	cms     *cms.Client
	ttls    cache.TTLTable
	log     *slog.Logger
}

// NewHandler creates a handler around the content service.
func NewHandler(svc *content.Service, client *cms.Client, ttls cache.TTLTable, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		content: svc,
		cms:     client,
		ttls:    ttls,
		log:     log,
	}
}

// pageCache sets the response freshness hints for a content kind,
// mirroring the kind's TTL. Kinds without a TTL advertise a day.
func (h *Handler) pageCache(c echo.Context, kind cache.Kind) {
	ttl := h.ttls.TTL(kind)
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxAge := "public, max-age=" + strconv.Itoa(int(ttl.Seconds()))
	c.Response().Header().Set("Cache-Control", maxAge)
	c.Response().Header().Set("CDN-Cache-Control", maxAge)
}

// notFound renders the designed not-found page. Missing content is a
// designed state, never a raw error page.
func (h *Handler) notFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "notfound.html", map[string]any{"Title": "Not found"})
}

// ErrorBoundary is the echo error handler: known HTTP errors keep their
// status, anything unexpected surfaces as the generic boundary page.
func (h *Handler) ErrorBoundary(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
	}

	if code == http.StatusNotFound {
		_ = h.notFound(c)
		return
	}

	h.log.Error("unhandled error", "path", c.Path(), "error", err)
	_ = c.Render(code, "boundary.html", map[string]any{"Title": "Error"})
}

// Home renders the front page: recent articles and the current weekly
// event, fetched concurrently. Either one failing leaves its section
// empty without failing the page.
func (h *Handler) Home(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		recent []cms.Article
		weekly *cms.WeeklyEvent
	)
	content.Join(
		func() { recent = h.content.RecentArticles(ctx, 12) },
		func() { weekly = h.content.WeeklyEvent(ctx) },
	)

	h.pageCache(c, cache.KindArticle)
	return c.Render(http.StatusOK, "home.html", map[string]any{
		"Recent": recent,
		"Weekly": weekly,
	})
}

// Article renders a news article. The primary lookup is sequenced first;
// the author profile and similar articles depend only on ids it carries
// and are fetched concurrently afterwards.
func (h *Handler) Article(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	article := h.content.ArticleBySlug(ctx, slug)
	if article == nil {
		return h.notFound(c)
	}

	var (
		author  *cms.Author
		similar []cms.Article
	)
	content.Join(
		func() {
			if article.Author != nil {
				author = h.content.AuthorByID(ctx, article.Author.ID)
			}
		},
		func() {
			if article.Category != nil {
				similar = h.content.SimilarArticles(ctx, article.Category.ID, article.ID, 6)
			}
		},
	)
	if author == nil {
		author = article.Author
	}

	meta := h.content.ArticleMetadata(ctx, article)

	h.pageCache(c, cache.KindArticle)
	return c.Render(http.StatusOK, "article.html", map[string]any{
		"Title":       meta.Title,
		"Description": meta.Description,
		"Article":     article,
		"Author":      author,
		"Similar":     similar,
		"Meta":        meta,
	})
}

// Category renders a category's article listing. An unknown category is
// not found; a known category with no articles is a valid empty state.
func (h *Handler) Category(c echo.Context) error {
	ctx := c.Request().Context()

	category := h.content.CategoryBySlug(ctx, c.Param("slug"))
	if category == nil {
		return h.notFound(c)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	var (
		articles []cms.Article
		all      []cms.Category
	)
	content.Join(
		func() { articles = h.content.ArticlesByCategory(ctx, category.ID, page, categoryPageSize) },
		func() { all = h.content.Categories(ctx) },
	)

	h.pageCache(c, cache.KindCategory)
	return c.Render(http.StatusOK, "category.html", map[string]any{
		"Title":       category.Name,
		"Description": category.Description,
		"Category":    category,
		"Articles":    articles,
		"Categories":  all,
		"Page":        page,
	})
}

// Games renders the games index.
func (h *Handler) Games(c echo.Context) error {
	games := h.content.Games(c.Request().Context())

	h.pageCache(c, cache.KindGame)
	return c.Render(http.StatusOK, "games.html", map[string]any{
		"Title": "Games",
		"Games": games,
	})
}

// Game renders one game's wiki page with its achievements and guides
// fetched concurrently after the primary lookup.
func (h *Handler) Game(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	game := h.content.GameBySlug(ctx, slug)
	if game == nil {
		return h.notFound(c)
	}

	var (
		achievements []cms.Achievement
		guides       []cms.Guide
	)
	content.Join(
		func() { achievements = h.content.AchievementsByGame(ctx, slug) },
		func() { guides = h.content.GuidesByGame(ctx, slug) },
	)

	h.pageCache(c, cache.KindGame)
	return c.Render(http.StatusOK, "game.html", map[string]any{
		"Title":        game.Title,
		"Description":  game.Description,
		"Game":         game,
		"Achievements": achievements,
		"Guides":       guides,
	})
}

// Guide renders a walkthrough, identified by its (game, guide) slug pair.
func (h *Handler) Guide(c echo.Context) error {
	ctx := c.Request().Context()

	guide := h.content.GuideBySlug(ctx, c.Param("slug"), c.Param("guide"))
	if guide == nil {
		return h.notFound(c)
	}

	meta := h.content.GuideMetadata(ctx, guide)

	h.pageCache(c, cache.KindGuide)
	return c.Render(http.StatusOK, "guide.html", map[string]any{
		"Title":       meta.Title,
		"Description": meta.Description,
		"Guide":       guide,
		"Meta":        meta,
	})
}

// Heists renders the heist index.
func (h *Handler) Heists(c echo.Context) error {
	heists := h.content.Heists(c.Request().Context())

	h.pageCache(c, cache.KindHeist)
	return c.Render(http.StatusOK, "heists.html", map[string]any{
		"Title":  "Heists",
		"Heists": heists,
	})
}

// Heist renders one heist page.
func (h *Handler) Heist(c echo.Context) error {
	heist := h.content.HeistBySlug(c.Request().Context(), c.Param("slug"))
	if heist == nil {
		return h.notFound(c)
	}

	h.pageCache(c, cache.KindHeist)
	return c.Render(http.StatusOK, "heist.html", map[string]any{
		"Title": heist.Name,
		"Heist": heist,
	})
}

// Job renders one job page.
func (h *Handler) Job(c echo.Context) error {
	job := h.content.JobBySlug(c.Request().Context(), c.Param("slug"))
	if job == nil {
		return h.notFound(c)
	}

	h.pageCache(c, cache.KindJob)
	return c.Render(http.StatusOK, "job.html", map[string]any{
		"Title": job.Name,
		"Job":   job,
	})
}

// Weekly renders the current weekly event; absence is an empty state,
// not an error.
func (h *Handler) Weekly(c echo.Context) error {
	weekly := h.content.WeeklyEvent(c.Request().Context())

	h.pageCache(c, cache.KindWeekly)
	return c.Render(http.StatusOK, "weekly.html", map[string]any{
		"Weekly": weekly,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
