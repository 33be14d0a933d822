package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"curator/internal/auth"
	"curator/internal/core"
	"curator/internal/models"
)

var (
	// ErrClosed is returned by transitions issued after Close
	ErrClosed = errors.New("application state is closed")
	// ErrSuperseded reports that a newer request for the same view won and
	// this result was discarded
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Aggregator fetches content batches. Implementations absorb provider
// failures and report fallback sources in ContentBatch.Degraded.
type Aggregator interface {
	Personalized(ctx context.Context, prefs models.UserPreferences) models.ContentBatch
	MorePersonalized(ctx context.Context, prefs models.UserPreferences, page int) models.ContentBatch
	Trending(ctx context.Context, pageSize int) models.ContentBatch
	Search(ctx context.Context, query string, pageSize int) models.ContentBatch
	Catalog(ctx context.Context) models.ContentBatch
}

// Authenticator checks credentials and creates accounts
type Authenticator interface {
	Authenticate(ctx context.Context, in auth.SignInInput) (models.UserProfile, error)
	Register(ctx context.Context, in auth.RegisterInput) (models.UserProfile, error)
}

// Deps are the collaborators of App
type Deps struct {
	Store   ProfileStore
	Auth    Authenticator
	Content Aggregator
	Logger  *core.Logger
	Now     func() time.Time
}

// Snapshot is a deep copy of the whole application state
type Snapshot struct {
	Session SessionState `json:"session"`
	Feed    FeedState    `json:"feed"`
	UI      UIState      `json:"ui"`
}

// Page sizes requested by the trending and search views, independent of
// the feed's pageSize preference
const (
	TrendingPageSize = 15
	SearchPageSize   = 8
)

type view int

const (
	viewSignIn view = iota
	viewPersonalized
	viewMore
	viewTrending
	viewSearch
)

type task struct {
	fn   func() error
	done chan error
}

// App owns the session, feed and UI state. Every transition runs on a single
// goroutine in submission order; fetches and credential checks run on the
// caller's goroutine and post their completion back.
type App struct {
	session *Session
	feed    FeedState
	ui      UIState

	auth     Authenticator
	content  Aggregator
	logger   *core.Logger
	boundary *core.Boundary
	now      func() time.Time

	generations map[view]uint64
	pending     map[view]bool

	queue     chan task
	stopped   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates the application state and starts its execution queue
func New(deps Deps) *App {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	a := &App{
		session:     NewSession(deps.Store, deps.Logger),
		feed:        NewFeedState(),
		ui:          NewUIState(),
		auth:        deps.Auth,
		content:     deps.Content,
		logger:      deps.Logger.ForFeature("app"),
		now:         now,
		generations: make(map[view]uint64),
		pending:     make(map[view]bool),
		queue:       make(chan task),
		stopped:     make(chan struct{}),
	}
	a.boundary = core.NewBoundary(a.logger, a.onRecovered, core.ErrCodeDatabase)

	a.wg.Add(1)
	go a.run()
	return a
}

// Close stops the execution queue. Pending callers receive ErrClosed.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		close(a.stopped)
	})
	a.wg.Wait()
}

func (a *App) run() {
	defer a.wg.Done()
	for {
		select {
		case t := <-a.queue:
			t.done <- a.boundary.Run(t.fn)
		case <-a.stopped:
			return
		}
	}
}

// do runs fn on the execution queue and waits for its result. ctx only
// bounds the wait for a queue slot; a queued fn always runs to completion.
func (a *App) do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	select {
	case a.queue <- t:
	case <-a.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-t.done
}

// settle posts the completion step of a two-step transition. It is not
// cancelled with ctx, so a begun view always finishes.
func (a *App) settle(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	return a.do(ctx, func() error {
		return fn(ctx)
	})
}

// onRecovered runs on the queue when the boundary catches an error
func (a *App) onRecovered(err error) {
	a.ui.AddNotification(NotificationError, core.UserFriendlyMessage(err), a.now())
}

// begin starts a new request for v and returns its generation. Must run on the queue.
func (a *App) begin(v view) uint64 {
	a.generations[v]++
	a.pending[v] = true
	a.feed.SetLoading(a.loading())
	return a.generations[v]
}

// finish reports whether gen is still current for v and settles the loading
// flag. Must run on the queue.
func (a *App) finish(v view, gen uint64) bool {
	if a.generations[v] != gen {
		return false
	}
	delete(a.pending, v)
	a.feed.SetLoading(a.loading())
	return true
}

// cancel discards any in-flight request for v. Must run on the queue.
func (a *App) cancel(v view) {
	a.generations[v]++
	delete(a.pending, v)
	a.feed.SetLoading(a.loading())
}

func (a *App) loading() bool {
	for v := range a.pending {
		if v != viewSignIn {
			return true
		}
	}
	return false
}

func (a *App) applyDegraded(batch models.ContentBatch) {
	a.feed.SetError(degradedMessage(batch.Degraded))
}

func degradedMessage(degraded []models.ContentType) string {
	if len(degraded) == 0 {
		return ""
	}
	names := make([]string, len(degraded))
	for i, source := range degraded {
		names[i] = string(source)
	}
	return fmt.Sprintf("Live content unavailable for %s; showing sample data", strings.Join(names, ", "))
}

// Snapshot returns a deep copy of all state
func (a *App) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := a.do(ctx, func() error {
		snap = Snapshot{
			Session: a.session.State(),
			Feed:    a.feed.Clone(),
			UI:      a.ui.Clone(),
		}
		return nil
	})
	return snap, err
}

// Restore signs in the remembered profile, if any
func (a *App) Restore(ctx context.Context) error {
	return a.do(ctx, func() error {
		return a.session.Restore(ctx)
	})
}

// SignIn checks credentials off the queue and signs the user in on success
func (a *App) SignIn(ctx context.Context, in auth.SignInInput) (models.UserProfile, error) {
	return a.signIn(ctx, func() (models.UserProfile, error) {
		return a.auth.Authenticate(ctx, in)
	})
}

// Register creates an account and signs it in
func (a *App) Register(ctx context.Context, in auth.RegisterInput) (models.UserProfile, error) {
	return a.signIn(ctx, func() (models.UserProfile, error) {
		return a.auth.Register(ctx, in)
	})
}

func (a *App) signIn(ctx context.Context, check func() (models.UserProfile, error)) (models.UserProfile, error) {
	var gen uint64
	if err := a.do(ctx, func() error {
		gen = a.begin(viewSignIn)
		a.session.BeginSignIn()
		return nil
	}); err != nil {
		return models.UserProfile{}, err
	}

	profile, checkErr := check()

	err := a.settle(ctx, func(ctx context.Context) error {
		if !a.finish(viewSignIn, gen) {
			return ErrSuperseded
		}
		if checkErr != nil {
			a.session.FailSignIn()
			return checkErr
		}
		return a.session.CompleteSignIn(ctx, profile)
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// SignOut ends the session
func (a *App) SignOut(ctx context.Context) error {
	return a.do(ctx, func() error {
		a.cancel(viewSignIn)
		return a.session.SignOut(ctx)
	})
}

func (a *App) AddToFavorites(ctx context.Context, id string) error {
	return a.do(ctx, func() error {
		return a.session.AddToFavorites(ctx, id)
	})
}

func (a *App) RemoveFromFavorites(ctx context.Context, id string) error {
	return a.do(ctx, func() error {
		return a.session.RemoveFromFavorites(ctx, id)
	})
}

// ToggleFavorite flips id and reports whether it is now a favorite
func (a *App) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var favorite bool
	err := a.do(ctx, func() error {
		var err error
		favorite, err = a.session.ToggleFavorite(ctx, id)
		return err
	})
	return favorite, err
}

func (a *App) ClearSearchHistory(ctx context.Context) error {
	return a.do(ctx, func() error {
		return a.session.ClearSearchHistory(ctx)
	})
}

func (a *App) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) error {
	return a.do(ctx, func() error {
		return a.session.UpdatePreferences(ctx, patch)
	})
}

func (a *App) ToggleDarkMode(ctx context.Context) error {
	return a.do(ctx, func() error {
		return a.session.ToggleDarkMode(ctx)
	})
}

// Favorites resolves favorite ids against everything currently loaded plus
// the catalog
func (a *App) Favorites(ctx context.Context) ([]models.ContentItem, error) {
	catalog := a.content.Catalog(ctx)

	var items []models.ContentItem
	err := a.do(ctx, func() error {
		known := make([]models.ContentItem, 0, len(a.feed.PersonalizedFeed)+len(catalog.Items))
		known = append(known, a.feed.PersonalizedFeed...)
		known = append(known, a.feed.TrendingContent...)
		known = append(known, a.feed.SearchResults...)
		known = append(known, catalog.Items...)
		items = a.session.FavoriteItems(known)
		return nil
	})
	return items, err
}

// RefreshFeed replaces the personalized feed with a fresh batch for the
// active preferences and resets paging
func (a *App) RefreshFeed(ctx context.Context) error {
	var gen uint64
	var prefs models.UserPreferences
	if err := a.do(ctx, func() error {
		a.cancel(viewMore)
		gen = a.begin(viewPersonalized)
		prefs = a.session.Preferences()
		return nil
	}); err != nil {
		return err
	}

	batch := a.content.Personalized(ctx, prefs)

	return a.settle(ctx, func(context.Context) error {
		if !a.finish(viewPersonalized, gen) {
			return ErrSuperseded
		}
		a.feed.SetPersonalizedFeed(batch.Items, a.now())
		a.feed.ResetPage()
		a.feed.SetHasMore(len(batch.Items) > 0)
		a.applyDegraded(batch)
		return nil
	})
}

// LoadMore appends the next page of the personalized feed
func (a *App) LoadMore(ctx context.Context) error {
	var gen uint64
	var prefs models.UserPreferences
	var page int
	if err := a.do(ctx, func() error {
		gen = a.begin(viewMore)
		prefs = a.session.Preferences()
		page = a.feed.CurrentPage + 1
		return nil
	}); err != nil {
		return err
	}

	batch := a.content.MorePersonalized(ctx, prefs, page)

	return a.settle(ctx, func(context.Context) error {
		if !a.finish(viewMore, gen) {
			return ErrSuperseded
		}
		before := len(a.feed.PersonalizedFeed)
		a.feed.AppendToPersonalizedFeed(batch.Items)
		a.feed.IncrementPage()
		a.feed.SetHasMore(len(a.feed.PersonalizedFeed) > before)
		a.applyDegraded(batch)
		return nil
	})
}

// ReorderFeed applies a user-chosen order to the personalized feed
func (a *App) ReorderFeed(ctx context.Context, ids []string) error {
	return a.do(ctx, func() error {
		a.feed.ReorderFeed(ids)
		return nil
	})
}

// RefreshTrending reloads the trending view
func (a *App) RefreshTrending(ctx context.Context) error {
	var gen uint64
	if err := a.do(ctx, func() error {
		gen = a.begin(viewTrending)
		return nil
	}); err != nil {
		return err
	}

	batch := a.content.Trending(ctx, TrendingPageSize)

	return a.settle(ctx, func(context.Context) error {
		if !a.finish(viewTrending, gen) {
			return ErrSuperseded
		}
		a.feed.SetTrendingContent(batch.Items)
		a.applyDegraded(batch)
		return nil
	})
}

// Search records query in the history and loads its results. A blank query
// clears the results. Results of an older search are discarded.
func (a *App) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	var gen uint64
	if err := a.do(ctx, func() error {
		if query == "" {
			a.cancel(viewSearch)
			a.feed.ClearSearchResults()
			return nil
		}
		if err := a.session.AddToSearchHistory(ctx, query); err != nil {
			return err
		}
		gen = a.begin(viewSearch)
		a.feed.UpdateSearchQuery(query)
		return nil
	}); err != nil || query == "" {
		return err
	}

	batch := a.content.Search(ctx, query, SearchPageSize)

	return a.settle(ctx, func(context.Context) error {
		if !a.finish(viewSearch, gen) {
			return ErrSuperseded
		}
		a.feed.SetSearchResults(batch.Items)
		a.applyDegraded(batch)
		return nil
	})
}

// ClearSearch empties the results and abandons any in-flight search
func (a *App) ClearSearch(ctx context.Context) error {
	return a.do(ctx, func() error {
		a.cancel(viewSearch)
		a.feed.ClearSearchResults()
		return nil
	})
}

// AutoRefreshEnabled reports the active autoRefresh preference
func (a *App) AutoRefreshEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := a.do(ctx, func() error {
		enabled = a.session.Preferences().AutoRefresh
		return nil
	})
	return enabled, err
}

// UpdateUI runs fn against the UI state on the queue
func (a *App) UpdateUI(ctx context.Context, fn func(ui *UIState) error) error {
	return a.do(ctx, func() error {
		return fn(&a.ui)
	})
}

// SetActiveSection switches the active dashboard view
func (a *App) SetActiveSection(ctx context.Context, section Section) error {
	if !section.Valid() {
		return core.NewValidationError("Unknown section", map[string]string{"section": string(section)})
	}
	return a.UpdateUI(ctx, func(ui *UIState) error {
		ui.SetActiveSection(section)
		return nil
	})
}

// TogglePanel flips one of the named panels
func (a *App) TogglePanel(ctx context.Context, panel string) error {
	return a.UpdateUI(ctx, func(ui *UIState) error {
		switch panel {
		case "sidebar":
			ui.ToggleSidebar()
		case "mobile-menu":
			ui.ToggleMobileMenu()
		case "settings":
			ui.ToggleSettingsModal()
		case "search":
			ui.ToggleSearchModal()
		case "auth":
			ui.ToggleAuthModal()
		default:
			return core.NewValidationError("Unknown panel", map[string]string{"panel": panel})
		}
		return nil
	})
}

// SetDraggedItem records the item being dragged; "" ends the drag
func (a *App) SetDraggedItem(ctx context.Context, id string) error {
	return a.UpdateUI(ctx, func(ui *UIState) error {
		ui.SetDraggedItem(id)
		return nil
	})
}

// Notify adds a notification and returns it
func (a *App) Notify(ctx context.Context, kind NotificationType, message string) (Notification, error) {
	if !kind.Valid() {
		return Notification{}, core.NewValidationError("Unknown notification type", map[string]string{"type": string(kind)})
	}
	var n Notification
	err := a.UpdateUI(ctx, func(ui *UIState) error {
		n = ui.AddNotification(kind, message, a.now())
		return nil
	})
	return n, err
}

func (a *App) DismissNotification(ctx context.Context, id string) error {
	return a.UpdateUI(ctx, func(ui *UIState) error {
		ui.RemoveNotification(id)
		return nil
	})
}

func (a *App) ClearNotifications(ctx context.Context) error {
	return a.UpdateUI(ctx, func(ui *UIState) error {
		ui.ClearNotifications()
		return nil
	})
}
