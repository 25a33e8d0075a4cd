package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/covers"
	"github.com/mrlokans/shelfstream/internal/database/settings"
	"github.com/mrlokans/shelfstream/internal/download"
	"github.com/mrlokans/shelfstream/internal/http"
	"github.com/mrlokans/shelfstream/internal/librarystore"
	"github.com/mrlokans/shelfstream/internal/metadata"
	"github.com/mrlokans/shelfstream/internal/pagination"
	"github.com/mrlokans/shelfstream/internal/tasks"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// KeyValueStore implementations
var _ librarystore.KeyValueStore = (*settings.Repository)(nil)

// LibraryStore implementations
var _ http.LibraryStore = (*librarystore.LibraryStore)(nil)

// =============================================================================
// Remote Catalogs
// =============================================================================

var _ pagination.AudioCatalog = (*catalog.AudioClient)(nil)
var _ pagination.TextCatalog = (*catalog.TextClient)(nil)
var _ http.AudiobookFetcher = (*catalog.AudioClient)(nil)

// CoverProvider implementations
var _ metadata.CoverProvider = (*metadata.GoogleBooksClient)(nil)
var _ metadata.CoverProvider = (*metadata.OpenLibraryClient)(nil)
var _ metadata.CoverProvider = metadata.ChainProvider(nil)

// Enrichment
var _ pagination.BatchEnricher = (*metadata.Enricher)(nil)
var _ http.ItemEnricher = (*metadata.Enricher)(nil)
var _ metadata.CoverSink = (*tasks.CoverQueue)(nil)

// =============================================================================
// Covers and Background Tasks
// =============================================================================

var _ http.CoverCache = (*covers.Cache)(nil)
var _ tasks.CoverFetcher = (*covers.Cache)(nil)
var _ tasks.CoverPruner = (*covers.Cache)(nil)
var _ tasks.TaskAdder = (*tasks.Client)(nil)

// =============================================================================
// Viewer State
// =============================================================================

var _ http.WorkspaceProvider = (*workspace.Registry)(nil)
var _ http.ViewerCounter = (*workspace.Registry)(nil)
var _ download.Decoder = download.PDFDecoder{}
