package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"curator/internal/core"
	"curator/internal/models"
)

// MovieSource serves trending, popular and searched movies from TMDB
type MovieSource struct {
	fetcher *Fetcher
	config  core.MovieProviderConfig
	logger  *core.Logger
}

// NewMovieSource creates a movie source
func NewMovieSource(fetcher *Fetcher, config core.MovieProviderConfig, logger *core.Logger) *MovieSource {
	return &MovieSource{
		fetcher: fetcher,
		config:  config,
		logger:  logger.ForFeature("movies"),
	}
}

func (s *MovieSource) Type() models.ContentType {
	return models.ContentTypeMovie
}

type tmdbResponse struct {
	Page    int          `json:"page"`
	Results *[]tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

// Fetch returns today's trending movies, or the popular list for the
// country when params.Listing is ListingPopular
func (s *MovieSource) Fetch(ctx context.Context, params Params) Outcome {
	if !core.HasLiveCredential(s.config.APIKey) {
		return fallback(sampleMovies())
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(params.page()))
	query.Set("language", "en-US")

	path, idPrefix := "/trending/movie/day", "movie"
	if params.Listing == ListingPopular {
		path, idPrefix = "/movie/popular", "movie_popular"
		region := params.Country
		if region == "" {
			region = "us"
		}
		query.Set("region", strings.ToUpper(region))
	}

	items, err := s.get(ctx, path, query, idPrefix)
	if err != nil {
		s.logger.Warn("Falling back to sample movies", "listing", params.Listing, "error", err)
		return fallback(sampleMovies())
	}
	return Outcome{Items: items}
}

// Search returns movies whose title matches q
func (s *MovieSource) Search(ctx context.Context, q string, params Params) Outcome {
	if !core.HasLiveCredential(s.config.APIKey) {
		return fallback(filter(sampleMovies(), q))
	}

	query := url.Values{}
	query.Set("query", q)
	query.Set("page", strconv.Itoa(params.page()))
	query.Set("language", "en-US")

	items, err := s.get(ctx, "/search/movie", query, "movie_search")
	if err != nil {
		s.logger.Warn("Falling back to sample movies", "query", q, "error", err)
		return fallback(filter(sampleMovies(), q))
	}
	return Outcome{Items: items}
}

func (s *MovieSource) get(ctx context.Context, path string, query url.Values, idPrefix string) ([]models.ContentItem, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.config.APIKey)
	header.Set("Accept", "application/json")

	body, err := s.fetcher.Get(ctx, s.Type(), s.config.BaseURL+path+"?"+query.Encode(), header)
	if err != nil {
		return nil, err
	}

	movies, err := decodeMovies(body)
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(movies))
	for _, movie := range movies {
		item := models.ContentItem{
			ID:          fmt.Sprintf("%s_%d", idPrefix, movie.ID),
			Type:        models.ContentTypeMovie,
			Title:       movie.Title,
			Description: movie.Overview,
			URL:         fmt.Sprintf("%s/movie/%d", s.config.SiteURL, movie.ID),
			PublishedAt: movie.ReleaseDate,
			Source:      "TMDB",
			Rating:      rating(movie.VoteAverage),
			Category:    "entertainment",
		}
		if movie.PosterPath != "" {
			item.ImageURL = s.config.ImageBaseURL + movie.PosterPath
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeMovies(body []byte) ([]tmdbMovie, error) {
	var resp tmdbResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.NewAPIError(0, "movie payload is not valid JSON", err)
	}
	if resp.Results == nil {
		return nil, schemaMismatch(models.ContentTypeMovie, "results")
	}
	return *resp.Results, nil
}
