// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Remote Catalogs
//
//   - AudioCatalog / TextCatalog: paged catalog queries (internal/pagination/sources.go)
//   - AudiobookFetcher: single audiobook detail (internal/http/audiobooks.go)
//   - CoverProvider: cover lookup by title (internal/metadata/googlebooks.go)
//
// ## List State
//
//   - PageSource: one list bound to a provider call (internal/pagination/controller.go)
//   - BatchEnricher: decorates a page before it is appended (internal/pagination/controller.go)
//
// ## Data Access
//
//   - KeyValueStore: settings table access (internal/librarystore/librarystore.go)
//   - LibraryStore: favorites and recent searches (internal/http/favorites.go)
//
// ## Background Work
//
//   - CoverSink: receives covers found by enrichment (internal/metadata/enricher.go)
//   - CoverFetcher / CoverPruner: cover cache operations used by tasks (internal/tasks)
//   - TaskAdder: enqueues backlite tasks (internal/tasks/cache_cover.go)
//
// # Adding a New Cover Provider
//
// Implement CoverProvider in internal/metadata/:
//
//	type ArchiveOrgClient struct {
//		baseURL string
//		client  *http.Client
//	}
//
//	func (c *ArchiveOrgClient) FindCover(ctx context.Context, query string) (string, error)
//
// Then add it to the ChainProvider in entrypoint.NewProviders.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
