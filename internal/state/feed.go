package state

import (
	"time"

	"curator/internal/models"
)

// FeedState holds the personalized feed, trending and search views
type FeedState struct {
	PersonalizedFeed   []models.ContentItem `json:"personalizedFeed"`
	FeedOrder          []string             `json:"feedOrder"`
	TrendingContent    []models.ContentItem `json:"trendingContent"`
	SearchResults      []models.ContentItem `json:"searchResults"`
	CurrentSearchQuery string               `json:"currentSearchQuery"`
	IsLoading          bool                 `json:"isLoading"`
	Error              *string              `json:"error"`
	LastUpdated        *time.Time           `json:"lastUpdated"`
	HasMore            bool                 `json:"hasMore"`
	CurrentPage        int                  `json:"currentPage"`
}

// NewFeedState returns an empty feed on page one
func NewFeedState() FeedState {
	return FeedState{
		PersonalizedFeed: []models.ContentItem{},
		FeedOrder:        []string{},
		TrendingContent:  []models.ContentItem{},
		SearchResults:    []models.ContentItem{},
		HasMore:          true,
		CurrentPage:      1,
	}
}

// Clone returns a deep copy
func (f FeedState) Clone() FeedState {
	f.PersonalizedFeed = models.CloneItems(f.PersonalizedFeed)
	f.FeedOrder = append([]string{}, f.FeedOrder...)
	f.TrendingContent = models.CloneItems(f.TrendingContent)
	f.SearchResults = models.CloneItems(f.SearchResults)
	if f.Error != nil {
		msg := *f.Error
		f.Error = &msg
	}
	if f.LastUpdated != nil {
		at := *f.LastUpdated
		f.LastUpdated = &at
	}
	return f
}

// SetPersonalizedFeed replaces the feed. Repeated ids keep their first item.
func (f *FeedState) SetPersonalizedFeed(items []models.ContentItem, now time.Time) {
	f.PersonalizedFeed = []models.ContentItem{}
	f.FeedOrder = []string{}
	f.appendNew(items)
	f.LastUpdated = &now
}

// AppendToPersonalizedFeed adds items whose id is not already in the feed,
// keeping existing positions
func (f *FeedState) AppendToPersonalizedFeed(items []models.ContentItem) {
	f.appendNew(items)
}

func (f *FeedState) appendNew(items []models.ContentItem) {
	seen := make(map[string]bool, len(f.FeedOrder)+len(items))
	for _, id := range f.FeedOrder {
		seen[id] = true
	}
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		f.PersonalizedFeed = append(f.PersonalizedFeed, item.Clone())
		f.FeedOrder = append(f.FeedOrder, item.ID)
	}
}

// ReorderFeed rebuilds the feed in the order of ids. Ids not in the feed are
// dropped, as are feed items not named in ids.
func (f *FeedState) ReorderFeed(ids []string) {
	index := make(map[string]models.ContentItem, len(f.PersonalizedFeed))
	for _, item := range f.PersonalizedFeed {
		index[item.ID] = item
	}

	feed := make([]models.ContentItem, 0, len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		item, ok := index[id]
		if !ok {
			continue
		}
		delete(index, id)
		feed = append(feed, item)
		order = append(order, id)
	}

	f.PersonalizedFeed = feed
	f.FeedOrder = order
}

func (f *FeedState) SetTrendingContent(items []models.ContentItem) {
	f.TrendingContent = models.CloneItems(items)
	if f.TrendingContent == nil {
		f.TrendingContent = []models.ContentItem{}
	}
}

func (f *FeedState) SetSearchResults(items []models.ContentItem) {
	f.SearchResults = models.CloneItems(items)
	if f.SearchResults == nil {
		f.SearchResults = []models.ContentItem{}
	}
}

func (f *FeedState) UpdateSearchQuery(query string) {
	f.CurrentSearchQuery = query
}

// ClearSearchResults empties the results and the current query
func (f *FeedState) ClearSearchResults() {
	f.SearchResults = []models.ContentItem{}
	f.CurrentSearchQuery = ""
}

func (f *FeedState) SetLoading(loading bool) {
	f.IsLoading = loading
}

// SetError sets the error message; "" clears it
func (f *FeedState) SetError(message string) {
	if message == "" {
		f.Error = nil
		return
	}
	f.Error = &message
}

func (f *FeedState) SetHasMore(hasMore bool) {
	f.HasMore = hasMore
}

func (f *FeedState) IncrementPage() {
	f.CurrentPage++
}

func (f *FeedState) ResetPage() {
	f.CurrentPage = 1
}
