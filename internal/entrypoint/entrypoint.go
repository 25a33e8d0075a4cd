package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/config"
	"github.com/mrlokans/shelfstream/internal/covers"
	"github.com/mrlokans/shelfstream/internal/database"
	"github.com/mrlokans/shelfstream/internal/download"
	http_controllers "github.com/mrlokans/shelfstream/internal/http"
	"github.com/mrlokans/shelfstream/internal/librarystore"
	"github.com/mrlokans/shelfstream/internal/metadata"
	"github.com/mrlokans/shelfstream/internal/scheduler"
	"github.com/mrlokans/shelfstream/internal/tasks"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Providers holds the upstream clients built from configuration.
type Providers struct {
	Audio    *catalog.AudioClient
	Text     *catalog.TextClient
	Enricher *metadata.Enricher
}

// NewProviders builds the catalog and cover clients.
func NewProviders(cfg *config.Config) Providers {
	p := cfg.Providers
	audio := catalog.NewAudioClient(catalog.WithBaseURL(p.LibriVoxBaseURL), catalog.WithTimeout(p.RequestTimeout))
	text := catalog.NewTextClient(catalog.WithBaseURL(p.GutendexBaseURL), catalog.WithTimeout(p.RequestTimeout))

	var coverProvider metadata.CoverProvider = metadata.NewGoogleBooksClient(p.GoogleBooksAPIKey,
		catalog.WithBaseURL(p.GoogleBooksBaseURL), catalog.WithTimeout(p.RequestTimeout))
	if cfg.Enrichment.FallbackEnabled {
		coverProvider = metadata.ChainProvider{
			coverProvider,
			metadata.NewOpenLibraryClient(catalog.WithBaseURL(p.OpenLibraryBaseURL), catalog.WithTimeout(p.RequestTimeout)),
		}
	}
	enricher := metadata.NewEnricher(coverProvider)
	enricher.SetRateLimit(cfg.Enrichment.LookupsPerSecond)

	return Providers{Audio: audio, Text: text, Enricher: enricher}
}

// Catalogs returns what list controllers are built from.
func (p Providers) Catalogs(audioPageSize int) workspace.Catalogs {
	return workspace.Catalogs{
		Audio:         p.Audio,
		Text:          p.Text,
		AudioPageSize: audioPageSize,
		Enricher:      p.Enricher,
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, kill (no param) sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after in-flight requests are done.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Shelfstream v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	library := librarystore.New(db.Settings(), cfg.Library.RecentSearchesLimit)
	providers := NewProviders(cfg)

	coverCache, err := covers.NewCache(cfg.Covers.Dir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Covers.Dir)
	}

	// Task queue: caches covers found by enrichment and prunes old ones.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var taskAdder tasks.TaskAdder
	if cfg.Tasks.Enabled && coverCache != nil {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewCacheCoverQueue(coverCache),
			tasks.NewPruneCoversQueue(coverCache),
		)
		taskAdder = taskClient
		providers.Enricher.SetCoverSink(tasks.NewCoverQueue(taskClient, coverCache.IsCached))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var pruneScheduler *scheduler.CoverPruneScheduler
	if coverCache != nil {
		pruneScheduler = scheduler.NewCoverPruneScheduler(cfg.Covers.PruneSchedule, cfg.Covers.MaxAge, coverCache, taskAdder)
		if err := pruneScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Cover prune scheduler not started: %v", err)
		}
	}

	catalogs := providers.Catalogs(cfg.Providers.AudioPageSize)
	registry := workspace.NewRegistry(func() *workspace.Workspace {
		return workspace.New(catalogs, download.NewManager())
	}, cfg.Viewer.SessionLifetime)
	registry.StartSweeper(cfg.Viewer.SweepInterval)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessions, err := http_controllers.NewViewerSessions(sqlDB, cfg.Viewer)
	if err != nil {
		log.Fatalf("Failed to initialize viewer sessions: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		Workspaces:    registry,
		Sessions:      sessions,
		Audio:         providers.Audio,
		Enricher:      providers.Enricher,
		Library:       library,
		SecureCookies: cfg.Viewer.SecureCookies,
		Version:       version,
	}
	if coverCache != nil {
		routerCfg.CoverCache = coverCache
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		registry.Stop()
		if pruneScheduler != nil {
			pruneScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
