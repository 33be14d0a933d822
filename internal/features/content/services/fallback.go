package services

import (
	"time"

	"curator/internal/models"
)

func rating(v float64) *float64 {
	return &v
}

// sampleNews is the fallback served when headlines cannot be fetched
func sampleNews(now time.Time) []models.ContentItem {
	hoursAgo := func(h int) string {
		return now.Add(-time.Duration(h) * time.Hour).UTC().Format(time.RFC3339)
	}

	return []models.ContentItem{
		{
			ID:          "news_1",
			Type:        models.ContentTypeNews,
			Title:       "Latest Tech Innovations Transform Digital Landscape",
			Description: "Breakthrough technologies including AI, quantum computing, and blockchain are reshaping industries worldwide.",
			ImageURL:    "https://via.placeholder.com/400x300/dc2626/ffffff?text=Tech+News",
			URL:         "https://example.com/tech-news-1",
			PublishedAt: hoursAgo(2),
			Source:      "TechDaily",
			Author:      "Jane Smith",
			Category:    "technology",
		},
		{
			ID:          "news_2",
			Type:        models.ContentTypeNews,
			Title:       "Global Markets React to Economic Policy Changes",
			Description: "Stock markets worldwide show mixed reactions to new economic policies announced by major governments.",
			ImageURL:    "https://via.placeholder.com/400x300/059669/ffffff?text=Business+News",
			URL:         "https://example.com/business-news-1",
			PublishedAt: hoursAgo(4),
			Source:      "Business Weekly",
			Author:      "John Doe",
			Category:    "business",
		},
		{
			ID:          "news_3",
			Type:        models.ContentTypeNews,
			Title:       "Health Breakthrough: New Treatment Shows Promise",
			Description: "Researchers announce promising results from clinical trials of innovative medical treatment.",
			ImageURL:    "https://via.placeholder.com/400x300/dc2626/ffffff?text=Health+News",
			URL:         "https://example.com/health-news-1",
			PublishedAt: hoursAgo(6),
			Source:      "Health Today",
			Author:      "Dr. Sarah Wilson",
			Category:    "health",
		},
	}
}

// sampleMovies is the fallback served when movie listings cannot be fetched
func sampleMovies() []models.ContentItem {
	return []models.ContentItem{
		{
			ID:          "movie_1",
			Type:        models.ContentTypeMovie,
			Title:       "Quantum Horizons",
			Description: "A thrilling sci-fi adventure exploring the boundaries of quantum physics and human consciousness in a dystopian future.",
			ImageURL:    "https://via.placeholder.com/500x750/7c3aed/ffffff?text=Quantum+Horizons",
			URL:         "https://www.themoviedb.org/movie/1",
			PublishedAt: "2024-01-15",
			Source:      "TMDB",
			Rating:      rating(8.5),
			Category:    "entertainment",
		},
		{
			ID:          "movie_2",
			Type:        models.ContentTypeMovie,
			Title:       "The Digital Divide",
			Description: "A gripping drama about technology's impact on human relationships in the modern world.",
			ImageURL:    "https://via.placeholder.com/500x750/dc2626/ffffff?text=Digital+Divide",
			URL:         "https://www.themoviedb.org/movie/2",
			PublishedAt: "2024-02-20",
			Source:      "TMDB",
			Rating:      rating(7.8),
			Category:    "entertainment",
		},
		{
			ID:          "movie_3",
			Type:        models.ContentTypeMovie,
			Title:       "Neon Nights",
			Description: "An action-packed cyberpunk thriller set in a neon-lit metropolis where hackers fight for freedom.",
			ImageURL:    "https://via.placeholder.com/500x750/059669/ffffff?text=Neon+Nights",
			URL:         "https://www.themoviedb.org/movie/3",
			PublishedAt: "2024-03-10",
			Source:      "TMDB",
			Rating:      rating(9.1),
			Category:    "entertainment",
		},
	}
}
