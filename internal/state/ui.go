package state

import (
	"time"

	"github.com/google/uuid"
)

// Section is a top-level dashboard view
type Section string

const (
	SectionHome      Section = "home"
	SectionFeed      Section = "feed"
	SectionTrending  Section = "trending"
	SectionFavorites Section = "favorites"
	SectionSearch    Section = "search"
)

// Valid reports whether s names a known section
func (s Section) Valid() bool {
	switch s {
	case SectionHome, SectionFeed, SectionTrending, SectionFavorites, SectionSearch:
		return true
	}
	return false
}

// NotificationType is the severity of a notification
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSuccess, NotificationError, NotificationInfo, NotificationWarning:
		return true
	}
	return false
}

const MaxNotifications = 5

// Notification is a transient message shown to the user
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp int64            `json:"timestamp"`
}

// UIState coordinates panels, modals and drag state. It is never persisted.
type UIState struct {
	SidebarOpen       bool           `json:"sidebarOpen"`
	ActiveSection     Section        `json:"activeSection"`
	MobileMenuOpen    bool           `json:"mobileMenuOpen"`
	SettingsModalOpen bool           `json:"settingsModalOpen"`
	SearchModalOpen   bool           `json:"searchModalOpen"`
	AuthModalOpen     bool           `json:"authModalOpen"`
	DraggedItemID     *string        `json:"draggedItemId"`
	IsDragging        bool           `json:"isDragging"`
	Notifications     []Notification `json:"notifications"`
}

// NewUIState returns the initial layout: sidebar open on the feed
func NewUIState() UIState {
	return UIState{
		SidebarOpen:   true,
		ActiveSection: SectionFeed,
		Notifications: []Notification{},
	}
}

// Clone returns a deep copy
func (u UIState) Clone() UIState {
	if u.DraggedItemID != nil {
		id := *u.DraggedItemID
		u.DraggedItemID = &id
	}
	u.Notifications = append([]Notification{}, u.Notifications...)
	return u
}

func (u *UIState) ToggleSidebar() {
	u.SidebarOpen = !u.SidebarOpen
}

func (u *UIState) SetSidebarOpen(open bool) {
	u.SidebarOpen = open
}

func (u *UIState) SetActiveSection(section Section) {
	u.ActiveSection = section
}

func (u *UIState) ToggleMobileMenu() {
	u.MobileMenuOpen = !u.MobileMenuOpen
}

func (u *UIState) SetMobileMenuOpen(open bool) {
	u.MobileMenuOpen = open
}

func (u *UIState) ToggleSettingsModal() {
	u.SettingsModalOpen = !u.SettingsModalOpen
}

func (u *UIState) ToggleSearchModal() {
	u.SearchModalOpen = !u.SearchModalOpen
}

func (u *UIState) ToggleAuthModal() {
	u.AuthModalOpen = !u.AuthModalOpen
}

// SetDraggedItem records the item being dragged; "" ends the drag
func (u *UIState) SetDraggedItem(id string) {
	if id == "" {
		u.DraggedItemID = nil
		u.IsDragging = false
		return
	}
	u.DraggedItemID = &id
	u.IsDragging = true
}

// AddNotification puts a notification first, keeping the newest five
func (u *UIState) AddNotification(kind NotificationType, message string, now time.Time) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		Timestamp: now.UnixMilli(),
	}

	notifications := append([]Notification{n}, u.Notifications...)
	if len(notifications) > MaxNotifications {
		notifications = notifications[:MaxNotifications]
	}
	u.Notifications = notifications
	return n
}

// RemoveNotification drops the notification with id, if present
func (u *UIState) RemoveNotification(id string) {
	kept := make([]Notification, 0, len(u.Notifications))
	for _, n := range u.Notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	u.Notifications = kept
}

func (u *UIState) ClearNotifications() {
	u.Notifications = []Notification{}
}
