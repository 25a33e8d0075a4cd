package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./data/shelfstream.db"

	// DefaultCoversDir is where cached cover images are stored
	DefaultCoversDir = "./data/covers"
)

// Default upstream endpoints
const (
	DefaultLibriVoxBaseURL    = "https://librivox.org/api/feed/audiobooks/"
	DefaultGutendexBaseURL    = "https://gutendex.com/books/"
	DefaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"
	DefaultOpenLibraryBaseURL = "https://openlibrary.org"
)
