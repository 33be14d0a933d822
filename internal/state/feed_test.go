package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"curator/internal/models"
)

func items(ids ...string) []models.ContentItem {
	out := make([]models.ContentItem, len(ids))
	for i, id := range ids {
		out[i] = models.ContentItem{ID: id, Title: "item " + id}
	}
	return out
}

func ids(items []models.ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestReorderFeed(t *testing.T) {
	feed := NewFeedState()
	feed.SetPersonalizedFeed(items("a", "b", "c"), time.Now())

	feed.ReorderFeed([]string{"c", "a", "b"})
	assert.Equal(t, []string{"c", "a", "b"}, ids(feed.PersonalizedFeed))
	assert.Equal(t, []string{"c", "a", "b"}, feed.FeedOrder)

	feed.ReorderFeed([]string{"b", "z", "c", "a"})
	assert.Equal(t, []string{"b", "c", "a"}, ids(feed.PersonalizedFeed))
	assert.Equal(t, feed.FeedOrder, ids(feed.PersonalizedFeed))
}

func TestSetPersonalizedFeedDropsRepeatedIDs(t *testing.T) {
	feed := NewFeedState()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	feed.SetPersonalizedFeed(items("a", "b", "a"), now)

	assert.Equal(t, []string{"a", "b"}, feed.FeedOrder)
	assert.Equal(t, feed.FeedOrder, ids(feed.PersonalizedFeed))
	assert.Equal(t, now, *feed.LastUpdated)
}

func TestAppendToPersonalizedFeed(t *testing.T) {
	feed := NewFeedState()
	feed.SetPersonalizedFeed(items("a", "b"), time.Now())

	feed.AppendToPersonalizedFeed(items("b", "c", "d"))

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(feed.PersonalizedFeed))
	assert.Equal(t, feed.FeedOrder, ids(feed.PersonalizedFeed))
}

func TestSearchAndPagingFlags(t *testing.T) {
	feed := NewFeedState()

	feed.UpdateSearchQuery("go")
	feed.SetSearchResults(items("x"))
	feed.ClearSearchResults()
	assert.Empty(t, feed.SearchResults)
	assert.Empty(t, feed.CurrentSearchQuery)

	feed.IncrementPage()
	feed.IncrementPage()
	assert.Equal(t, 3, feed.CurrentPage)
	feed.ResetPage()
	assert.Equal(t, 1, feed.CurrentPage)

	feed.SetError("boom")
	assert.Equal(t, "boom", *feed.Error)
	feed.SetError("")
	assert.Nil(t, feed.Error)
}

func TestFeedCloneIsIndependent(t *testing.T) {
	feed := NewFeedState()
	feed.SetPersonalizedFeed([]models.ContentItem{{ID: "s", Tags: []string{"go"}}}, time.Now())

	snap := feed.Clone()
	snap.PersonalizedFeed[0].Tags[0] = "changed"
	snap.FeedOrder[0] = "changed"

	assert.Equal(t, "go", feed.PersonalizedFeed[0].Tags[0])
	assert.Equal(t, "s", feed.FeedOrder[0])
}
