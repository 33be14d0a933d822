package models

// Content categories offered by the preferences form
var Categories = []string{
	"technology",
	"business",
	"entertainment",
	"health",
	"science",
	"sports",
	"general",
}

// UserPreferences holds the personalization settings of one user
type UserPreferences struct {
	Categories    []string `json:"categories"`
	Language      string   `json:"language"`
	Country       string   `json:"country"`
	DarkMode      bool     `json:"darkMode"`
	Notifications bool     `json:"notifications"`
	AutoRefresh   bool     `json:"autoRefresh"`
	PageSize      int      `json:"pageSize"`
}

// DefaultPreferences returns the settings of a user who never changed anything
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Categories:    []string{"technology", "business", "entertainment"},
		Language:      "en",
		Country:       "us",
		DarkMode:      true,
		Notifications: true,
		AutoRefresh:   false,
		PageSize:      20,
	}
}

// Clone returns a copy with its own categories slice
func (p UserPreferences) Clone() UserPreferences {
	p.Categories = append([]string(nil), p.Categories...)
	return p
}

// PreferencesPatch is a partial update; nil fields are left untouched
type PreferencesPatch struct {
	Categories    []string `json:"categories,omitempty"`
	Language      *string  `json:"language,omitempty"`
	Country       *string  `json:"country,omitempty"`
	DarkMode      *bool    `json:"darkMode,omitempty"`
	Notifications *bool    `json:"notifications,omitempty"`
	AutoRefresh   *bool    `json:"autoRefresh,omitempty"`
	PageSize      *int     `json:"pageSize,omitempty"`
}

// Apply merges the patch into p key by key
func (patch PreferencesPatch) Apply(p UserPreferences) UserPreferences {
	p = p.Clone()
	if patch.Categories != nil {
		p.Categories = append([]string(nil), patch.Categories...)
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Country != nil {
		p.Country = *patch.Country
	}
	if patch.DarkMode != nil {
		p.DarkMode = *patch.DarkMode
	}
	if patch.Notifications != nil {
		p.Notifications = *patch.Notifications
	}
	if patch.AutoRefresh != nil {
		p.AutoRefresh = *patch.AutoRefresh
	}
	if patch.PageSize != nil {
		p.PageSize = *patch.PageSize
	}
	return p
}

// UserProfile identifies the signed-in user
type UserProfile struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// UserData is the per-email record kept in the local profile store
type UserData struct {
	Email         string          `json:"email"`
	Favorites     []string        `json:"favorites"`
	SearchHistory []string        `json:"searchHistory"`
	Preferences   UserPreferences `json:"preferences"`
}

// DefaultUserData returns the record a first-time user starts with
func DefaultUserData(email string) UserData {
	return UserData{
		Email:         email,
		Favorites:     []string{},
		SearchHistory: []string{},
		Preferences:   DefaultPreferences(),
	}
}

// UserDataPatch is a partial record. A nil slice means the field is absent;
// a non-nil slice, even an empty one, replaces the stored value.
type UserDataPatch struct {
	Favorites     []string          `json:"favorites,omitempty"`
	SearchHistory []string          `json:"searchHistory,omitempty"`
	Preferences   *PreferencesPatch `json:"preferences,omitempty"`
}

// Apply merges the patch into data
func (patch UserDataPatch) Apply(data UserData) UserData {
	if patch.Favorites != nil {
		data.Favorites = append([]string{}, patch.Favorites...)
	}
	if patch.SearchHistory != nil {
		data.SearchHistory = append([]string{}, patch.SearchHistory...)
	}
	if patch.Preferences != nil {
		data.Preferences = patch.Preferences.Apply(data.Preferences)
	}
	return data
}

// FullPreferences builds a patch that sets every preference field
func FullPreferences(p UserPreferences) *PreferencesPatch {
	return &PreferencesPatch{
		Categories:    append([]string(nil), p.Categories...),
		Language:      &p.Language,
		Country:       &p.Country,
		DarkMode:      &p.DarkMode,
		Notifications: &p.Notifications,
		AutoRefresh:   &p.AutoRefresh,
		PageSize:      &p.PageSize,
	}
}

// Account is a registered local account
type Account struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}
