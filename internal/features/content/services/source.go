package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"curator/internal/core"
	"curator/internal/models"
)

// Listing selects which list a source serves from Fetch
type Listing string

const (
	ListingDefault  Listing = ""
	ListingTrending Listing = "trending"
	ListingPopular  Listing = "popular"
)

// Params narrows a provider request. Zero values take provider defaults.
type Params struct {
	Category string
	Country  string
	Hashtag  string
	Listing  Listing
	Page     int
	PageSize int
}

func (p Params) page() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p Params) pageSize() int {
	if p.PageSize < 1 {
		return 20
	}
	return p.PageSize
}

// Outcome is what a source returns. Fallback is set when the items are
// sample data rather than a live response.
type Outcome struct {
	Items    []models.ContentItem
	Fallback bool
}

// Source is one content provider. Implementations never fail: any error
// produces fallback data.
type Source interface {
	Type() models.ContentType
	Fetch(ctx context.Context, params Params) Outcome
	Search(ctx context.Context, query string, params Params) Outcome
}

var errSchemaMismatch = errors.New("payload did not match the expected shape")

func schemaMismatch(source models.ContentType, field string) error {
	return core.NewAPIError(0, fmt.Sprintf("%s payload is missing %q", source, field), errSchemaMismatch)
}

// matches reports whether query occurs in the title or description, ignoring case
func matches(item models.ContentItem, query string) bool {
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.Description), query)
}

func filter(items []models.ContentItem, query string) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if matches(item, query) {
			out = append(out, item)
		}
	}
	return out
}

func fallback(items []models.ContentItem) Outcome {
	return Outcome{Items: items, Fallback: true}
}
