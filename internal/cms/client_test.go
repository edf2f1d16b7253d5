package cms

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet(t *testing.T) {
	t.Run("SendsAuthAndCacheHints", func(t *testing.T) {
		var gotReq *http.Request
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r.Clone(context.Background())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"id":1,"slug":"gta-vi-trailer","title":"Trailer"}],"meta":{"pagination":{"page":1,"pageSize":25,"pageCount":1,"total":1}}}`))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "test-token", nil)
		q := NewQuery().FilterEq("slug", "gta-vi-trailer").Populate("cover", "author")

		resp, err := client.Get(context.Background(), "articles", q, 24*time.Hour)
		require.NoError(t, err)

		assert.Equal(t, "/api/articles", gotReq.URL.Path)
		assert.Equal(t, "gta-vi-trailer", gotReq.URL.Query().Get("filters[slug][$eq]"))
		assert.Equal(t, "cover", gotReq.URL.Query().Get("populate[0]"))
		assert.Equal(t, "Bearer test-token", gotReq.Header.Get("Authorization"))
		assert.Equal(t, "max-age=86400", gotReq.Header.Get("Cache-Control"))
		assert.Equal(t, "max-age=86400", gotReq.Header.Get("CDN-Cache-Control"))

		require.NotNil(t, resp.Meta)
		require.NotNil(t, resp.Meta.Pagination)
		assert.Equal(t, 1, resp.Meta.Pagination.Total)

		first, err := resp.First()
		require.NoError(t, err)
		require.NotNil(t, first)
	})

	t.Run("EmptyDataIsNotFoundNotError", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[],"meta":{"pagination":{"page":1,"pageSize":25,"pageCount":0,"total":0}}}`))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "", nil)
		resp, err := client.Get(context.Background(), "articles", NewQuery().FilterEq("slug", "missing"), 0)
		require.NoError(t, err)

		first, err := resp.First()
		require.NoError(t, err)
		assert.Nil(t, first, "empty data must normalize to nil, not an error")

		records, err := resp.Records()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("NonOKStatusIsError", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer upstream.Close()

		client := New(upstream.URL, "", nil)
		_, err := client.Get(context.Background(), "articles", nil, 0)
		assert.Error(t, err)
	})

	t.Run("TimeoutIsError", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "", &http.Client{Timeout: 20 * time.Millisecond})
		_, err := client.Get(context.Background(), "articles", nil, 0)
		assert.Error(t, err)
	})

	t.Run("MalformedJSONIsError", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": [`))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "", nil)
		_, err := client.Get(context.Background(), "articles", nil, 0)
		assert.Error(t, err)
	})
}

func TestClientProxy(t *testing.T) {
	t.Run("ForwardsStatusAndBody", func(t *testing.T) {
		var gotReq *http.Request
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r.Clone(context.Background())
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":42}}`))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "static-token", nil)
		status, body, err := client.Proxy(context.Background(), http.MethodPost, "/api/comments",
			"application/json", strings.NewReader(`{"data":{"content":"nice"}}`), "caller-jwt")
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, status)
		assert.JSONEq(t, `{"data":{"id":42}}`, string(body))
		assert.Equal(t, "Bearer caller-jwt", gotReq.Header.Get("Authorization"),
			"caller token takes precedence over the static token")
	})

	t.Run("OversizedBodyIsError", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("x"), maxBodySize+1))
		}))
		defer upstream.Close()

		client := New(upstream.URL, "", nil)
		_, _, err := client.Proxy(context.Background(), http.MethodPost, "/api/comments",
			"application/json", strings.NewReader(`{}`), "")
		assert.Error(t, err, "a reply past the body cap must fail, not forward truncated bytes")
	})
}
