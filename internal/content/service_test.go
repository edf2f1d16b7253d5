package content

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtahub/internal/cache"
	"gtahub/internal/cms"
	"gtahub/internal/observability"
)

// testService wires a Service against a fake upstream and counts the
// upstream calls it receives.
type testService struct {
	svc     *Service
	store   *cache.MemoryStore
	metrics *observability.Metrics
	calls   *atomic.Int64
}

func newTestService(t *testing.T, ttls cache.TTLTable, handler http.HandlerFunc) *testService {
	t.Helper()

	calls := &atomic.Int64{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(upstream.Close)

	if ttls == nil {
		ttls = cache.DefaultTTLs()
	}

	store := cache.NewMemoryStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	client := cms.New(upstream.URL, "test-token", nil)
	svc := New(client, store, ttls, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &testService{svc: svc, store: store, metrics: metrics, calls: calls}
}

func articleHandler(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}
}

func TestArticleBySlugServedFromCacheWithinTTL(t *testing.T) {
	ts := newTestService(t, nil, articleHandler(`{"data":[{"id":7,"slug":"gta-vi-trailer","title":"Trailer 2 Breakdown"}]}`))
	ctx := context.Background()

	first := ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	require.NotNil(t, first)
	assert.Equal(t, "Trailer 2 Breakdown", first.Title)
	assert.Equal(t, int64(1), ts.calls.Load())

	// Second read within the TTL must not touch the upstream.
	second := ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	require.NotNil(t, second)
	assert.Equal(t, int64(1), ts.calls.Load())

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.CacheHits.WithLabelValues("article")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.CacheMisses.WithLabelValues("article")))
}

func TestNotFoundIsCachedLikeAValue(t *testing.T) {
	// End-to-end: empty upstream data -> nil -> cached null -> second
	// request served from cache with zero additional upstream calls.
	ts := newTestService(t, nil, articleHandler(`{"data":[]}`))
	ctx := context.Background()

	assert.Nil(t, ts.svc.ArticleBySlug(ctx, "gta-vi-trailer"))
	assert.Equal(t, int64(1), ts.calls.Load())

	entry, err := ts.store.Get(ctx, "article:gta-vi-trailer")
	require.NoError(t, err)
	require.NotNil(t, entry, "not-found must be stored, not skipped")
	assert.Equal(t, "null", string(entry.Value))

	assert.Nil(t, ts.svc.ArticleBySlug(ctx, "gta-vi-trailer"))
	assert.Equal(t, int64(1), ts.calls.Load(), "cached null must suppress the re-query")
}

func TestStaleEntryTriggersRefresh(t *testing.T) {
	ttls := cache.TTLTable{cache.KindArticle: 40 * time.Millisecond}
	ts := newTestService(t, ttls, articleHandler(`{"data":[{"id":7,"slug":"gta-vi-trailer","title":"Trailer"}]}`))
	ctx := context.Background()

	ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	assert.Equal(t, int64(1), ts.calls.Load())

	// Within the TTL: no new call.
	ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	assert.Equal(t, int64(1), ts.calls.Load())

	time.Sleep(60 * time.Millisecond)

	// Past the TTL: the entry is a miss and must be refreshed.
	ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	assert.Equal(t, int64(2), ts.calls.Load())
}

func TestFetchFailureReturnsDefaultWithoutCaching(t *testing.T) {
	ts := newTestService(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	ctx := context.Background()

	assert.Nil(t, ts.svc.ArticleBySlug(ctx, "gta-vi-trailer"))

	entry, err := ts.store.Get(ctx, "article:gta-vi-trailer")
	require.NoError(t, err)
	assert.Nil(t, entry, "a failed fetch must not populate the cache")

	// Each request retries upstream because nothing was cached.
	assert.Nil(t, ts.svc.ArticleBySlug(ctx, "gta-vi-trailer"))
	assert.Equal(t, int64(2), ts.calls.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(ts.metrics.UpstreamErrors.WithLabelValues("article")))
}

func TestEmptyListAndFailedListBothRenderEmpty(t *testing.T) {
	t.Run("empty upstream yields empty slice and is cached", func(t *testing.T) {
		ts := newTestService(t, nil, articleHandler(`{"data":[]}`))
		ctx := context.Background()

		similar := ts.svc.SimilarArticles(ctx, 42, 7, 6)
		require.NotNil(t, similar)
		assert.Empty(t, similar)

		entry, err := ts.store.Get(ctx, "similar:42:7:6")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "[]", string(entry.Value))
	})

	t.Run("failed upstream yields the same empty slice uncached", func(t *testing.T) {
		ts := newTestService(t, nil, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "timeout", http.StatusGatewayTimeout)
		})
		ctx := context.Background()

		similar := ts.svc.SimilarArticles(ctx, 42, 7, 6)
		require.NotNil(t, similar)
		assert.Empty(t, similar)

		entry, err := ts.store.Get(ctx, "similar:42:7:6")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestSearchArticlesCapsLimitAndFoldsTerm(t *testing.T) {
	var gotQuery atomic.Value
	ts := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"data":[{"id":1,"slug":"gta-vi-trailer","title":"GTA VI Trailer"}]}`))
	})
	ctx := context.Background()

	results := ts.svc.SearchArticles(ctx, "  GTA VI  ", 999)
	require.Len(t, results, 1)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "gta vi", q.Get("filters[title][$containsi]"))
	assert.Equal(t, "20", q.Get("pagination[limit]"))
	assert.Equal(t, "title", q.Get("fields[0]"))

	// The folded term shares one cache entry with its raggedly cased twin.
	ts.svc.SearchArticles(ctx, "gta vi", 999)
	assert.Equal(t, int64(1), ts.calls.Load())
}

func TestConcurrentMissesAreSingleFlighted(t *testing.T) {
	release := make(chan struct{})
	ts := newTestService(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"data":[{"id":7,"slug":"gta-vi-trailer","title":"Trailer"}]}`))
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			article := ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
			assert.NotNil(t, article)
		}()
	}

	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), ts.calls.Load(), "concurrent cold reads must collapse into one upstream call")
}

func TestPartialFanOutFailure(t *testing.T) {
	// Authors fail, similar articles succeed; the page must get the
	// successful result and the failed one's default.
	ts := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/authors" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":9,"slug":"cayo-perico-guide","title":"Cayo Perico"}]}`))
	})
	ctx := context.Background()

	var (
		author  *cms.Author
		similar []cms.Article
	)
	Join(
		func() { author = ts.svc.AuthorByID(ctx, 3) },
		func() { similar = ts.svc.SimilarArticles(ctx, 42, 7, 6) },
	)

	assert.Nil(t, author)
	require.Len(t, similar, 1)
	assert.Equal(t, "Cayo Perico", similar[0].Title)
}

func TestGuideBySlugUsesCompoundKey(t *testing.T) {
	ts := newTestService(t, nil, articleHandler(`{"data":[{"id":4,"slug":"heist-setup","title":"Heist Setup"}]}`))
	ctx := context.Background()

	guide := ts.svc.GuideBySlug(ctx, "gta-v", "heist-setup")
	require.NotNil(t, guide)

	entry, err := ts.store.Get(ctx, "guide:gta-v:heist-setup")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestEnumerationKindsNeverGoStale(t *testing.T) {
	ts := newTestService(t, nil, articleHandler(`{"data":[{"id":1,"title":"GTA V","slug":"gta-v"}]}`))
	ctx := context.Background()

	ts.svc.Games(ctx)
	time.Sleep(20 * time.Millisecond)
	ts.svc.Games(ctx)

	// No TTL for the game kind: the first fetch serves forever.
	assert.Equal(t, int64(1), ts.calls.Load())
}

func TestArticleMetadataDerivation(t *testing.T) {
	content := `[{"type":"paragraph","children":[{"type":"text","text":"Rockstar confirmed the release window."}]}]`
	ts := newTestService(t, nil, articleHandler(`{"data":[{"id":7,"slug":"gta-vi-trailer","title":"Trailer","content":`+content+`}]}`))
	ctx := context.Background()

	article := ts.svc.ArticleBySlug(ctx, "gta-vi-trailer")
	require.NotNil(t, article)

	meta := ts.svc.ArticleMetadata(ctx, article)
	assert.Equal(t, "Trailer", meta.Title)
	assert.Equal(t, "Rockstar confirmed the release window.", meta.Description)
	assert.Equal(t, 1, meta.ReadingTime)

	entry, err := ts.store.Get(ctx, "metadata:article:gta-vi-trailer")
	require.NoError(t, err)
	assert.NotNil(t, entry, "derived metadata is cached under the metadata kind")
}
