package services

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"curator/internal/cache"
	"curator/internal/core"
	"curator/internal/models"
)

// Truncation limits applied when merging movie results
const (
	personalizedMovies = 6
	trendingMovies     = 10
	searchMovies       = 6
	catalogPageSize    = 20
)

// AggregatorOption customizes an Aggregator
type AggregatorOption func(*Aggregator)

// WithShuffle replaces the shuffle applied to personalized batches
func WithShuffle(shuffle func([]models.ContentItem)) AggregatorOption {
	return func(a *Aggregator) {
		a.shuffle = shuffle
	}
}

// Aggregator fetches the three sources concurrently and merges them in a
// fixed order
type Aggregator struct {
	news    Source
	movies  Source
	social  Source
	logger  *core.Logger
	shuffle func([]models.ContentItem)
}

// NewAggregator creates an aggregator over the given sources
func NewAggregator(news, movies, social Source, logger *core.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		news:    news,
		movies:  movies,
		social:  social,
		logger:  logger.ForFeature("aggregator"),
		shuffle: shuffleItems,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewDefaultAggregator wires the NewsAPI, TMDB and social sources from config
func NewDefaultAggregator(config *core.Config, c cache.Cache, logger *core.Logger) *Aggregator {
	fetcher := NewFetcher(FetcherConfigFrom(config), c, logger.ForFeature("fetcher"))
	return NewAggregator(
		NewNewsSource(fetcher, config.Providers.News, logger, time.Now),
		NewMovieSource(fetcher, config.Providers.Movies, logger),
		NewSocialSource(fetcher, config.Providers.Social, uint64(time.Now().Unix()/86400), logger, time.Now),
		logger,
	)
}

type request struct {
	source Source
	run    func(ctx context.Context, s Source) Outcome
	limit  int
}

func fetch(params Params) func(context.Context, Source) Outcome {
	return func(ctx context.Context, s Source) Outcome {
		return s.Fetch(ctx, params)
	}
}

func search(query string, params Params) func(context.Context, Source) Outcome {
	return func(ctx context.Context, s Source) Outcome {
		return s.Search(ctx, query, params)
	}
}

// gather runs every request concurrently and concatenates the results in
// request order, de-duplicated by id
func (a *Aggregator) gather(ctx context.Context, requests ...request) models.ContentBatch {
	outcomes := make([]Outcome, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			outcomes[i] = req.run(gctx, req.source)
			return nil
		})
	}
	_ = g.Wait()

	batch := models.ContentBatch{Items: []models.ContentItem{}}
	lists := make([][]models.ContentItem, 0, len(outcomes))
	for i, outcome := range outcomes {
		items := outcome.Items
		if limit := requests[i].limit; limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		lists = append(lists, items)

		if outcome.Fallback && !containsType(batch.Degraded, requests[i].source.Type()) {
			batch.Degraded = append(batch.Degraded, requests[i].source.Type())
		}
	}
	batch.Items = Dedupe(lists...)

	if len(batch.Degraded) > 0 {
		a.logger.Debug("Served fallback content", "sources", batch.Degraded)
	}
	return batch
}

// Personalized builds the main feed: headlines for the first preferred
// category, trending movies and social posts, shuffled
func (a *Aggregator) Personalized(ctx context.Context, prefs models.UserPreferences) models.ContentBatch {
	perSource := sourcePageSize(prefs.PageSize)
	category := "general"
	if len(prefs.Categories) > 0 {
		category = prefs.Categories[0]
	}

	batch := a.gather(ctx,
		request{source: a.news, run: fetch(Params{Category: category, Country: prefs.Country, PageSize: perSource})},
		request{source: a.movies, run: fetch(Params{}), limit: personalizedMovies},
		request{source: a.social, run: fetch(Params{PageSize: perSource})},
	)
	a.shuffle(batch.Items)
	return batch
}

// MorePersonalized fetches page of the personalized feed: headlines, popular
// movies for the country and social posts
func (a *Aggregator) MorePersonalized(ctx context.Context, prefs models.UserPreferences, page int) models.ContentBatch {
	perSource := sourcePageSize(prefs.PageSize)
	category := "general"
	if len(prefs.Categories) > 0 {
		category = prefs.Categories[0]
	}

	batch := a.gather(ctx,
		request{source: a.news, run: fetch(Params{Category: category, Country: prefs.Country, Page: page, PageSize: perSource})},
		request{source: a.movies, run: fetch(Params{Listing: ListingPopular, Country: prefs.Country, Page: page}), limit: personalizedMovies},
		request{source: a.social, run: fetch(Params{Page: page, PageSize: perSource})},
	)
	a.shuffle(batch.Items)
	return batch
}

// Trending merges trending movies with trending social posts
func (a *Aggregator) Trending(ctx context.Context, pageSize int) models.ContentBatch {
	return a.gather(ctx,
		request{source: a.movies, run: fetch(Params{}), limit: trendingMovies},
		request{source: a.social, run: fetch(Params{Listing: ListingTrending, PageSize: pageSize})},
	)
}

// Search queries all three sources
func (a *Aggregator) Search(ctx context.Context, query string, pageSize int) models.ContentBatch {
	params := Params{PageSize: pageSize}
	return a.gather(ctx,
		request{source: a.news, run: search(query, params)},
		request{source: a.movies, run: search(query, params), limit: searchMovies},
		request{source: a.social, run: search(query, params)},
	)
}

// Catalog returns the general lists favorites are resolved against
func (a *Aggregator) Catalog(ctx context.Context) models.ContentBatch {
	return a.gather(ctx,
		request{source: a.news, run: fetch(Params{Category: "general", PageSize: catalogPageSize})},
		request{source: a.movies, run: fetch(Params{})},
		request{source: a.social, run: fetch(Params{PageSize: catalogPageSize})},
	)
}

// Dedupe concatenates lists, keeping the first item for each id
func Dedupe(lists ...[]models.ContentItem) []models.ContentItem {
	seen := make(map[string]bool)
	out := []models.ContentItem{}
	for _, list := range lists {
		for _, item := range list {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			out = append(out, item)
		}
	}
	return out
}

func sourcePageSize(pageSize int) int {
	if n := pageSize / 3; n > 0 {
		return n
	}
	return 1
}

func containsType(types []models.ContentType, t models.ContentType) bool {
	for _, existing := range types {
		if existing == t {
			return true
		}
	}
	return false
}

func shuffleItems(items []models.ContentItem) {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
