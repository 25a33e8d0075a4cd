// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── settings/        # Key-value settings table
//
// Favorites and recent searches are small JSON documents stored under
// well-known keys in the settings table (see entities.FavoritesKey and
// entities.RecentSearchesKey), so the schema stays a single table.
//
// # Usage
//
//	db, err := database.NewDatabase("./data/shelfstream.db")
//	repo := db.Settings()
//	value, ok, err := repo.Value("favorites_audio")
package database
