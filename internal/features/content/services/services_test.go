package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/cache"
	"curator/internal/core"
	"curator/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testFetcher(c cache.Cache) *Fetcher {
	return NewFetcher(FetcherConfig{
		Timeout:    2 * time.Second,
		Retries:    0,
		RetryDelay: time.Millisecond,
		Rate:       1000,
		CacheTTL:   time.Minute,
	}, c, core.NewDiscardLogger())
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
	})
	return srv
}

func itemIDs(items []models.ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestNewsFetchMapsArticles(t *testing.T) {
	var gotKey, gotPath, gotCategory string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		gotCategory = r.URL.Query().Get("category")
		w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Wire"},"author":"A. Writer","title":"First","description":"d1","url":"https://n/1","urlToImage":"https://img/1","publishedAt":"2026-03-01T10:00:00Z"},
			{"source":{"name":"Wire"},"title":"Second","url":"https://n/2","publishedAt":"2026-03-01T09:00:00Z"}
		]}`))
	})

	source := NewNewsSource(testFetcher(nil), core.NewsProviderConfig{APIKey: "live", BaseURL: srv.URL}, core.NewDiscardLogger(), clock)
	outcome := source.Fetch(context.Background(), Params{Category: "science", Country: "gb", PageSize: 5})

	require.False(t, outcome.Fallback)
	require.Len(t, outcome.Items, 2)
	assert.Equal(t, "live", gotKey)
	assert.Equal(t, "/top-headlines", gotPath)
	assert.Equal(t, "science", gotCategory)

	first := outcome.Items[0]
	assert.Equal(t, "news_1772366400000_0", first.ID)
	assert.Equal(t, models.ContentTypeNews, first.Type)
	assert.Equal(t, "Wire", first.Source)
	assert.Equal(t, "science", first.Category)
	assert.Equal(t, "https://img/1", first.ImageURL)
	assert.Empty(t, outcome.Items[1].ImageURL)
	assert.Nil(t, first.Rating)
}

func TestNewsFallsBackWithoutCredential(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	for _, key := range []string{"", core.DemoAPIKey} {
		source := NewNewsSource(testFetcher(nil), core.NewsProviderConfig{APIKey: key, BaseURL: srv.URL}, core.NewDiscardLogger(), clock)
		outcome := source.Fetch(context.Background(), Params{Category: "business"})

		assert.True(t, outcome.Fallback)
		assert.Equal(t, []string{"news_1", "news_2", "news_3"}, itemIDs(outcome.Items))
		assert.Equal(t, fixedNow.Add(-2*time.Hour).Format(time.RFC3339), outcome.Items[0].PublishedAt)
	}
	assert.Zero(t, hits.Load())
}

func TestNewsFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"unauthorized", http.StatusUnauthorized, `{"status":"error"}`},
		{"provider error", http.StatusOK, `{"status":"error","code":"rateLimited","message":"slow down"}`},
		{"missing articles", http.StatusOK, `{"status":"ok"}`},
		{"not json", http.StatusOK, `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			})

			source := NewNewsSource(testFetcher(nil), core.NewsProviderConfig{APIKey: "live", BaseURL: srv.URL}, core.NewDiscardLogger(), clock)
			outcome := source.Fetch(context.Background(), Params{})

			assert.True(t, outcome.Fallback)
			assert.Len(t, outcome.Items, 3)
		})
	}
}

func TestNewsSearchFallbackFilters(t *testing.T) {
	source := NewNewsSource(testFetcher(nil), core.NewsProviderConfig{}, core.NewDiscardLogger(), clock)

	outcome := source.Search(context.Background(), "MARKETS", Params{})

	assert.True(t, outcome.Fallback)
	assert.Equal(t, []string{"news_2"}, itemIDs(outcome.Items))
}

func TestMovieFetchMapsResults(t *testing.T) {
	var gotAuth, gotPath, gotRegion string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRegion = r.URL.Query().Get("region")
		w.Write([]byte(`{"page":1,"results":[
			{"id":42,"title":"Answer","overview":"o","poster_path":"/p.jpg","release_date":"2025-01-01","vote_average":7.5},
			{"id":7,"title":"No Poster","overview":"o","release_date":"2025-02-01","vote_average":0}
		]}`))
	})

	config := core.MovieProviderConfig{
		APIKey:       "token",
		BaseURL:      srv.URL,
		ImageBaseURL: "https://img.test/w500",
		SiteURL:      "https://site.test",
	}
	source := NewMovieSource(testFetcher(nil), config, core.NewDiscardLogger())

	outcome := source.Fetch(context.Background(), Params{})
	require.False(t, outcome.Fallback)
	require.Len(t, outcome.Items, 2)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "/trending/movie/day", gotPath)

	movie := outcome.Items[0]
	assert.Equal(t, "movie_42", movie.ID)
	assert.Equal(t, "https://img.test/w500/p.jpg", movie.ImageURL)
	assert.Equal(t, "https://site.test/movie/42", movie.URL)
	require.NotNil(t, movie.Rating)
	assert.Equal(t, 7.5, *movie.Rating)
	assert.Empty(t, outcome.Items[1].ImageURL)

	popular := source.Fetch(context.Background(), Params{Listing: ListingPopular, Country: "de"})
	assert.Equal(t, "/movie/popular", gotPath)
	assert.Equal(t, "DE", gotRegion)
	assert.Equal(t, "movie_popular_42", popular.Items[0].ID)
}

func TestMovieSchemaMismatchFallsBack(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"movies":[]}`))
	})

	source := NewMovieSource(testFetcher(nil), core.MovieProviderConfig{APIKey: "token", BaseURL: srv.URL}, core.NewDiscardLogger())
	outcome := source.Fetch(context.Background(), Params{})

	assert.True(t, outcome.Fallback)
	assert.Equal(t, []string{"movie_1", "movie_2", "movie_3"}, itemIDs(outcome.Items))

	_, err := decodeMovies([]byte(`{"page":1,"movies":[]}`))
	assert.ErrorIs(t, err, errSchemaMismatch)
	assert.True(t, core.HasCode(err, core.ErrCodeAPI))
}

func TestFetcherCachesResponses(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("body"))
	})

	fetcher := testFetcher(cache.NewMemory(time.Now))
	for i := 0; i < 3; i++ {
		body, err := fetcher.Get(context.Background(), models.ContentTypeNews, srv.URL+"/x", nil)
		require.NoError(t, err)
		assert.Equal(t, "body", string(body))
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcherClassifiesErrors(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	fetcher := testFetcher(nil)
	_, err := fetcher.Get(context.Background(), models.ContentTypeMovie, srv.URL+"/missing", nil)
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.ErrCodeAPI, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)

	fast := NewFetcher(FetcherConfig{Timeout: 20 * time.Millisecond, Rate: 1000}, nil, core.NewDiscardLogger())
	_, err = fast.Get(context.Background(), models.ContentTypeMovie, srv.URL+"/slow", nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, core.ErrCodeNetwork, appErr.Code)
	assert.Equal(t, "Request timed out. Please try again.", appErr.Message)
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("retries until success", func(t *testing.T) {
		var calls int
		value, err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", value)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls int
		_, err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() (int, error) {
			calls++
			return 0, errors.New("down")
		})
		assert.EqualError(t, err, "down")
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		var calls int
		cause := errors.New("bad request")
		_, err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() (int, error) {
			calls++
			return 0, backoff.Permanent(cause)
		})
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		var calls int
		cause := errors.New("bad request")
		_, err := RetryWithBackoff(context.Background(), 0, time.Millisecond, func() (int, error) {
			calls++
			return 0, backoff.Permanent(cause)
		})
		assert.Same(t, cause, err)
		assert.Equal(t, 1, calls)
	})
}

func TestSocialGeneratorIsDeterministic(t *testing.T) {
	a := NewSocialSource(nil, core.SocialProviderConfig{}, 7, core.NewDiscardLogger(), clock)
	b := NewSocialSource(nil, core.SocialProviderConfig{}, 7, core.NewDiscardLogger(), clock)

	first := a.Fetch(context.Background(), Params{Hashtag: "#Go", PageSize: 10})
	second := b.Fetch(context.Background(), Params{Hashtag: "go", PageSize: 10})

	require.True(t, first.Fallback)
	require.Len(t, first.Items, 10)
	assert.Equal(t, first.Items, second.Items)

	for i, item := range first.Items {
		assert.Equal(t, models.ContentTypeSocial, item.Type)
		assert.Equal(t, []string{"go"}, item.Tags)
		assert.True(t, strings.HasPrefix(item.ID, "social_"))
		if i > 0 {
			assert.GreaterOrEqual(t, first.Items[i-1].PublishedAt, item.PublishedAt)
		}
	}

	next := a.Fetch(context.Background(), Params{Hashtag: "go", Page: 2, PageSize: 10})
	assert.NotEqual(t, itemIDs(first.Items), itemIDs(next.Items))

	other := NewSocialSource(nil, core.SocialProviderConfig{}, 8, core.NewDiscardLogger(), clock)
	assert.NotEqual(t, first.Items, other.Fetch(context.Background(), Params{Hashtag: "go", PageSize: 10}).Items)
}

const mastodonFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>#golang</title>
    <link>https://social.test/tags/golang</link>
    <item>
      <guid isPermaLink="true">https://social.test/@gopher/1</guid>
      <link>https://social.test/@gopher/1</link>
      <pubDate>Sun, 01 Mar 2026 11:00:00 +0000</pubDate>
      <description>&lt;p&gt;Generics &amp;amp; iterators are &lt;b&gt;great&lt;/b&gt;&lt;/p&gt;</description>
      <media:content url="https://social.test/media/1.png" type="image/png" medium="image"/>
      <category>golang</category>
      <category>Go</category>
    </item>
  </channel>
</rss>`

func TestSocialLiveFeed(t *testing.T) {
	var gotPath string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(mastodonFeed))
	})

	source := NewSocialSource(testFetcher(nil), core.SocialProviderConfig{InstanceURL: srv.URL + "/"}, 1, core.NewDiscardLogger(), clock)
	outcome := source.Fetch(context.Background(), Params{Hashtag: "golang"})

	require.False(t, outcome.Fallback)
	require.Len(t, outcome.Items, 1)
	assert.Equal(t, "/tags/golang.rss", gotPath)

	post := outcome.Items[0]
	assert.Equal(t, "social_"+hashString("https://social.test/@gopher/1"), post.ID)
	assert.Equal(t, "Generics & iterators are great", post.Title)
	assert.Equal(t, post.Title, post.Description)
	assert.Equal(t, "@gopher", post.Author)
	assert.Equal(t, "https://social.test/media/1.png", post.ImageURL)
	assert.Equal(t, []string{"golang", "go"}, post.Tags)
	assert.Equal(t, "2026-03-01T11:00:00Z", post.PublishedAt)
}

func TestSocialLiveFailureFallsBack(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	source := NewSocialSource(testFetcher(nil), core.SocialProviderConfig{InstanceURL: srv.URL}, 1, core.NewDiscardLogger(), clock)
	outcome := source.Fetch(context.Background(), Params{PageSize: 5})

	assert.True(t, outcome.Fallback)
	assert.Len(t, outcome.Items, 5)
}

func TestHTMLTextAndTruncate(t *testing.T) {
	assert.Equal(t, "a b c", htmlText("<p>a</p><p>b <br/>c</p>"))
	assert.Equal(t, "", htmlText(""))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}

// stubSource returns fixed items and records the params it was called with
type stubSource struct {
	kind     models.ContentType
	items    []models.ContentItem
	fallback bool
	params   atomic.Pointer[Params]
}

func (s *stubSource) Type() models.ContentType { return s.kind }

func (s *stubSource) Fetch(ctx context.Context, params Params) Outcome {
	s.params.Store(&params)
	return Outcome{Items: models.CloneItems(s.items), Fallback: s.fallback}
}

func (s *stubSource) Search(ctx context.Context, query string, params Params) Outcome {
	s.params.Store(&params)
	return Outcome{Items: filter(models.CloneItems(s.items), query), Fallback: s.fallback}
}

func numbered(kind models.ContentType, prefix string, n int) []models.ContentItem {
	items := make([]models.ContentItem, n)
	for i := range items {
		items[i] = models.ContentItem{ID: prefix + string(rune('a'+i)), Type: kind, Title: prefix}
	}
	return items
}

func newTestAggregator(news, movies, social *stubSource) *Aggregator {
	return NewAggregator(news, movies, social, core.NewDiscardLogger(), WithShuffle(func([]models.ContentItem) {}))
}

func TestAggregatorPersonalized(t *testing.T) {
	news := &stubSource{kind: models.ContentTypeNews, items: numbered(models.ContentTypeNews, "n", 3)}
	movies := &stubSource{kind: models.ContentTypeMovie, items: numbered(models.ContentTypeMovie, "m", 12), fallback: true}
	social := &stubSource{kind: models.ContentTypeSocial, items: numbered(models.ContentTypeSocial, "s", 2)}

	prefs := models.DefaultPreferences()
	prefs.Categories = []string{"sports", "health"}
	prefs.PageSize = 30

	batch := newTestAggregator(news, movies, social).Personalized(context.Background(), prefs)

	assert.Len(t, batch.Items, 3+6+2)
	assert.Equal(t, "na", batch.Items[0].ID)
	assert.Equal(t, "ma", batch.Items[3].ID)
	assert.Equal(t, []models.ContentType{models.ContentTypeMovie}, batch.Degraded)
	assert.Equal(t, "sports", news.params.Load().Category)
	assert.Equal(t, 10, news.params.Load().PageSize)
	assert.Equal(t, 10, social.params.Load().PageSize)
}

func TestAggregatorMoreUsesPopularMovies(t *testing.T) {
	news := &stubSource{kind: models.ContentTypeNews}
	movies := &stubSource{kind: models.ContentTypeMovie}
	social := &stubSource{kind: models.ContentTypeSocial}

	prefs := models.DefaultPreferences()
	prefs.Country = "fr"

	batch := newTestAggregator(news, movies, social).MorePersonalized(context.Background(), prefs, 3)

	assert.Empty(t, batch.Items)
	assert.NotNil(t, batch.Items)
	assert.Equal(t, ListingPopular, movies.params.Load().Listing)
	assert.Equal(t, "fr", movies.params.Load().Country)
	assert.Equal(t, 3, news.params.Load().Page)
	assert.Equal(t, 3, social.params.Load().Page)
}

func TestAggregatorTrendingAndSearch(t *testing.T) {
	news := &stubSource{kind: models.ContentTypeNews, items: numbered(models.ContentTypeNews, "n", 2)}
	movies := &stubSource{kind: models.ContentTypeMovie, items: numbered(models.ContentTypeMovie, "m", 15)}
	social := &stubSource{kind: models.ContentTypeSocial, items: numbered(models.ContentTypeSocial, "s", 4), fallback: true}
	agg := newTestAggregator(news, movies, social)

	trending := agg.Trending(context.Background(), 20)
	assert.Len(t, trending.Items, 10+4)
	assert.Equal(t, ListingTrending, social.params.Load().Listing)
	assert.Equal(t, []models.ContentType{models.ContentTypeSocial}, trending.Degraded)

	results := agg.Search(context.Background(), "m", 20)
	assert.Len(t, results.Items, 6)
}

func TestAggregatorFallbackEverywhere(t *testing.T) {
	fetcher := testFetcher(nil)
	logger := core.NewDiscardLogger()
	agg := NewAggregator(
		NewNewsSource(fetcher, core.NewsProviderConfig{APIKey: core.DemoAPIKey}, logger, clock),
		NewMovieSource(fetcher, core.MovieProviderConfig{APIKey: core.DemoAPIKey}, logger),
		NewSocialSource(fetcher, core.SocialProviderConfig{}, 1, logger, clock),
		logger,
		WithShuffle(func([]models.ContentItem) {}),
	)

	batch := agg.Personalized(context.Background(), models.DefaultPreferences())

	assert.Equal(t, []models.ContentType{models.ContentTypeNews, models.ContentTypeMovie, models.ContentTypeSocial}, batch.Degraded)
	assert.Equal(t, []string{"news_1", "news_2", "news_3", "movie_1", "movie_2", "movie_3"}, itemIDs(batch.Items[:6]))
	assert.Len(t, batch.Items, 6+models.DefaultPreferences().PageSize/3)
}

func TestDedupe(t *testing.T) {
	a := []models.ContentItem{{ID: "1", Title: "first"}, {ID: "2"}}
	b := []models.ContentItem{{ID: "1", Title: "second"}, {ID: "3"}}

	out := Dedupe(a, b)

	assert.Equal(t, []string{"1", "2", "3"}, itemIDs(out))
	assert.Equal(t, "first", out[0].Title)
	assert.Empty(t, Dedupe())
}
