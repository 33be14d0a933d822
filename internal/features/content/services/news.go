package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"curator/internal/core"
	"curator/internal/models"
)

// NewsSource serves headlines and article search from NewsAPI
type NewsSource struct {
	fetcher *Fetcher
	config  core.NewsProviderConfig
	logger  *core.Logger
	now     func() time.Time
}

// NewNewsSource creates a news source
func NewNewsSource(fetcher *Fetcher, config core.NewsProviderConfig, logger *core.Logger, now func() time.Time) *NewsSource {
	return &NewsSource{
		fetcher: fetcher,
		config:  config,
		logger:  logger.ForFeature("news"),
		now:     now,
	}
}

func (s *NewsSource) Type() models.ContentType {
	return models.ContentTypeNews
}

// newsResponse is the NewsAPI envelope. Articles is a pointer so a missing
// list can be told apart from an empty one.
type newsResponse struct {
	Status   string         `json:"status"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Articles *[]newsArticle `json:"articles"`
}

type newsArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch returns top headlines for the category and country
func (s *NewsSource) Fetch(ctx context.Context, params Params) Outcome {
	category := params.Category
	if category == "" {
		category = "general"
	}
	country := params.Country
	if country == "" {
		country = "us"
	}

	if !core.HasLiveCredential(s.config.APIKey) {
		return fallback(sampleNews(s.now()))
	}

	query := url.Values{}
	query.Set("category", category)
	query.Set("country", country)
	query.Set("page", strconv.Itoa(params.page()))
	query.Set("pageSize", strconv.Itoa(params.pageSize()))

	items, err := s.get(ctx, "/top-headlines", query, "news", category)
	if err != nil {
		s.logger.Warn("Falling back to sample headlines", "category", category, "error", err)
		return fallback(sampleNews(s.now()))
	}
	return Outcome{Items: items}
}

// Search returns articles matching query, most relevant first
func (s *NewsSource) Search(ctx context.Context, q string, params Params) Outcome {
	if !core.HasLiveCredential(s.config.APIKey) {
		return fallback(filter(sampleNews(s.now()), q))
	}

	query := url.Values{}
	query.Set("q", q)
	query.Set("sortBy", "relevancy")
	query.Set("page", strconv.Itoa(params.page()))
	query.Set("pageSize", strconv.Itoa(params.pageSize()))

	items, err := s.get(ctx, "/everything", query, "news_search", "general")
	if err != nil {
		s.logger.Warn("Falling back to sample articles", "query", q, "error", err)
		return fallback(filter(sampleNews(s.now()), q))
	}
	return Outcome{Items: items}
}

func (s *NewsSource) get(ctx context.Context, path string, query url.Values, idPrefix, category string) ([]models.ContentItem, error) {
	header := http.Header{}
	header.Set("X-API-Key", s.config.APIKey)

	body, err := s.fetcher.Get(ctx, s.Type(), s.config.BaseURL+path+"?"+query.Encode(), header)
	if err != nil {
		return nil, err
	}

	articles, err := decodeNews(body)
	if err != nil {
		return nil, err
	}

	stamp := s.now().UnixMilli()
	items := make([]models.ContentItem, 0, len(articles))
	for i, article := range articles {
		items = append(items, models.ContentItem{
			ID:          fmt.Sprintf("%s_%d_%d", idPrefix, stamp, i),
			Type:        models.ContentTypeNews,
			Title:       article.Title,
			Description: article.Description,
			ImageURL:    article.URLToImage,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
			Source:      article.Source.Name,
			Author:      article.Author,
			Category:    category,
		})
	}
	return items, nil
}

func decodeNews(body []byte) ([]newsArticle, error) {
	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.NewAPIError(0, "news payload is not valid JSON", err)
	}
	if resp.Status == "error" {
		return nil, core.NewAPIError(0, fmt.Sprintf("news provider error %s: %s", resp.Code, resp.Message), nil)
	}
	if resp.Articles == nil {
		return nil, schemaMismatch(models.ContentTypeNews, "articles")
	}
	return *resp.Articles, nil
}
