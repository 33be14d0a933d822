package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"curator/internal/core"
	"curator/internal/models"
)

const (
	defaultHashtag = "tech"
	socialPoolSize = 100
	maxTitleLength = 100
)

var (
	socialHashtags = []string{"tech", "programming", "react", "typescript", "webdev", "startup", "ai", "design"}
	socialAuthors  = []string{"@techguru", "@reactdev", "@designpro", "@startuplife", "@codemaster", "@webdevtips"}
	socialOpeners  = []string{
		"Just discovered an amazing new feature in",
		"Working on an exciting project with",
		"Great insights about",
		"Learning something new about",
		"Excited to share my thoughts on",
		"Building something cool with",
	}
	socialColors = []string{"dc2626", "059669", "7c3aed", "ea580c", "0891b2"}
)

// SocialSource serves hashtag timelines from a Mastodon-compatible instance
// through its public tag RSS feeds. Without an instance it generates sample
// posts from a seed, so the same request always yields the same posts.
type SocialSource struct {
	fetcher  *Fetcher
	instance string
	seed     uint64
	logger   *core.Logger
	now      func() time.Time
}

// NewSocialSource creates a social source. An empty instanceURL selects
// generated posts.
func NewSocialSource(fetcher *Fetcher, config core.SocialProviderConfig, seed uint64, logger *core.Logger, now func() time.Time) *SocialSource {
	return &SocialSource{
		fetcher:  fetcher,
		instance: strings.TrimRight(config.InstanceURL, "/"),
		seed:     seed,
		logger:   logger.ForFeature("social"),
		now:      now,
	}
}

func (s *SocialSource) Type() models.ContentType {
	return models.ContentTypeSocial
}

// Fetch returns a page of posts for params.Hashtag, or trending posts when
// params.Listing is ListingTrending
func (s *SocialSource) Fetch(ctx context.Context, params Params) Outcome {
	tag := normalizeHashtag(params.Hashtag)

	if params.Listing == ListingTrending {
		if s.instance == "" {
			return fallback(s.trending(params))
		}
		if tag == "" {
			tag = defaultHashtag
		}
		items, err := s.timeline(ctx, tag)
		if err != nil {
			s.logger.Warn("Falling back to generated trending posts", "error", err)
			return fallback(s.trending(params))
		}
		return Outcome{Items: window(items, 1, params.pageSize())}
	}

	if s.instance == "" {
		return fallback(s.posts(tag, params))
	}

	liveTag := tag
	if liveTag == "" {
		liveTag = defaultHashtag
	}
	items, err := s.timeline(ctx, liveTag)
	if err != nil {
		s.logger.Warn("Falling back to generated posts", "hashtag", liveTag, "error", err)
		return fallback(s.posts(tag, params))
	}
	return Outcome{Items: window(items, params.page(), params.pageSize())}
}

// Search looks the query up as a hashtag
func (s *SocialSource) Search(ctx context.Context, query string, params Params) Outcome {
	tag := normalizeHashtag(query)
	if s.instance == "" || tag == "" {
		return fallback(s.searchResults(query, params))
	}

	items, err := s.timeline(ctx, tag)
	if err != nil {
		s.logger.Warn("Falling back to generated search results", "query", query, "error", err)
		return fallback(s.searchResults(query, params))
	}
	return Outcome{Items: window(items, 1, params.pageSize())}
}

func (s *SocialSource) timeline(ctx context.Context, tag string) ([]models.ContentItem, error) {
	feedURL := fmt.Sprintf("%s/tags/%s.rss", s.instance, url.PathEscape(tag))

	body, err := s.fetcher.Get(ctx, s.Type(), feedURL, nil)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, core.NewAPIError(0, "social payload is not a valid feed", err)
	}

	source := "Social Media"
	if u, err := url.Parse(s.instance); err == nil && u.Host != "" {
		source = u.Host
	}

	items := make([]models.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, convertFeedItem(entry, tag, source))
	}
	return items, nil
}

func convertFeedItem(entry *gofeed.Item, tag, source string) models.ContentItem {
	text := htmlText(entry.Description)
	if text == "" {
		text = htmlText(entry.Content)
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = truncate(text, maxTitleLength)
	}

	publishedAt := entry.Published
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}
	if author == "" {
		author = authorFromLink(entry.Link)
	}

	tags := make([]string, 0, len(entry.Categories))
	for _, category := range entry.Categories {
		if t := normalizeHashtag(category); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = []string{tag}
	}

	key := entry.GUID
	if key == "" {
		key = entry.Link
	}

	return models.ContentItem{
		ID:          "social_" + hashString(key),
		Type:        models.ContentTypeSocial,
		Title:       title,
		Description: text,
		ImageURL:    imageOf(entry),
		URL:         entry.Link,
		PublishedAt: publishedAt,
		Source:      source,
		Category:    "social",
		Author:      author,
		Tags:        tags,
	}
}

func imageOf(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, media := range entry.Extensions["media"]["content"] {
		if media.Attrs["medium"] == "image" || strings.HasPrefix(media.Attrs["type"], "image/") {
			return media.Attrs["url"]
		}
	}
	for _, enclosure := range entry.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	return ""
}

// authorFromLink extracts "@user" from a status URL such as
// https://host/@user/123
func authorFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(segment, "@") && len(segment) > 1 {
			return segment
		}
	}
	return ""
}

// posts serves a page from a fixed pool generated for tag
func (s *SocialSource) posts(tag string, params Params) []models.ContentItem {
	pool := s.generate(s.seedFor("posts", tag), socialPoolSize, tag)
	return window(pool, params.page(), params.pageSize())
}

func (s *SocialSource) trending(params Params) []models.ContentItem {
	seed := s.seedFor("trending", fmt.Sprint(params.page()))
	posts := s.generate(seed, params.pageSize(), "")

	rng := rand.New(rand.NewPCG(seed, s.seed))
	rng.Shuffle(len(posts), func(i, j int) {
		posts[i], posts[j] = posts[j], posts[i]
	})
	return posts
}

func (s *SocialSource) searchResults(query string, params Params) []models.ContentItem {
	posts := s.generate(s.seedFor("search", strings.ToLower(query)), params.pageSize(), "")
	return filter(posts, query)
}

// generate builds count posts, newest first. An empty tag picks one per post.
func (s *SocialSource) generate(seed uint64, count int, tag string) []models.ContentItem {
	rng := rand.New(rand.NewPCG(seed, s.seed))
	now := s.now()

	type post struct {
		item models.ContentItem
		at   time.Time
	}
	posts := make([]post, 0, count)

	for i := 0; i < count; i++ {
		author := socialAuthors[rng.IntN(len(socialAuthors))]
		hashtag := tag
		if hashtag == "" {
			hashtag = socialHashtags[rng.IntN(len(socialHashtags))]
		}
		opener := socialOpeners[rng.IntN(len(socialOpeners))]

		image := ""
		if rng.Float64() > 0.3 {
			image = fmt.Sprintf("https://via.placeholder.com/400x300/%s/ffffff?text=Social+Post+%d",
				socialColors[(i+1)%len(socialColors)], i+1)
		}
		at := now.Add(-time.Duration(rng.Int64N(int64(7 * 24 * time.Hour))))

		posts = append(posts, post{
			at: at,
			item: models.ContentItem{
				ID:          fmt.Sprintf("social_%x_%d", seed, i),
				Type:        models.ContentTypeSocial,
				Title:       fmt.Sprintf("%s #%s", opener, hashtag),
				Description: fmt.Sprintf("A sample post about #%s. Connect a social instance to see real posts here.", hashtag),
				ImageURL:    image,
				URL:         fmt.Sprintf("https://example.com/post/%d", i+1),
				PublishedAt: at.UTC().Format(time.RFC3339),
				Source:      "Social Media",
				Category:    "social",
				Author:      author,
				Tags:        []string{hashtag},
			},
		})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].at.After(posts[j].at)
	})

	items := make([]models.ContentItem, len(posts))
	for i, p := range posts {
		items[i] = p.item
	}
	return items
}

func (s *SocialSource) seedFor(parts ...string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", s.seed)
	for _, part := range parts {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return h.Sum64()
}

// window returns page (1-based) of size items
func window(items []models.ContentItem, page, size int) []models.ContentItem {
	start := (page - 1) * size
	if start >= len(items) {
		return []models.ContentItem{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// normalizeHashtag reduces s to lowercase letters and digits
func normalizeHashtag(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// htmlText returns the visible text of an HTML fragment
func htmlText(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxLen-3])) + "..."
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}
