package models

// ContentType discriminates the three content sources
type ContentType string

const (
	ContentTypeNews   ContentType = "news"
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSocial ContentType = "social"
)

// ContentItem is one card in the dashboard, whatever its source.
// ID is the only de-duplication key.
type ContentItem struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	URL         string      `json:"url"`
	PublishedAt string      `json:"publishedAt"`
	Source      string      `json:"source"`
	Category    string      `json:"category"`
	Rating      *float64    `json:"rating,omitempty"`
	Author      string      `json:"author,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Clone returns a copy that shares no memory with item
func (item ContentItem) Clone() ContentItem {
	if item.Rating != nil {
		rating := *item.Rating
		item.Rating = &rating
	}
	if item.Tags != nil {
		item.Tags = append([]string(nil), item.Tags...)
	}
	return item
}

// CloneItems deep-copies a slice of items. A nil slice stays nil.
func CloneItems(items []ContentItem) []ContentItem {
	if items == nil {
		return nil
	}
	out := make([]ContentItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// ContentBatch is the result of one aggregation. Degraded lists the sources
// that served fallback data instead of a live response.
type ContentBatch struct {
	Items    []ContentItem `json:"items"`
	Degraded []ContentType `json:"degraded,omitempty"`
}
