package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Setting key prefixes. The item source is appended, e.g. "favorites_audio".
const (
	SettingKeyFavoritesPrefix      = "favorites_"
	SettingKeyRecentSearchesPrefix = "recent_searches_"
)

// FavoritesKey returns the settings key holding the favorites of a source.
func FavoritesKey(source ItemSource) string {
	return SettingKeyFavoritesPrefix + string(source)
}

// RecentSearchesKey returns the settings key holding recent searches of a source.
func RecentSearchesKey(source ItemSource) string {
	return SettingKeyRecentSearchesPrefix + string(source)
}
