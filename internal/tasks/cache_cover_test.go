package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfstream/internal/entities"
)

type fakeCoverFetcher struct {
	fetched chan CacheCoverTask
	err     error
}

func (f *fakeCoverFetcher) GetCover(ctx context.Context, key, coverURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.fetched != nil {
		f.fetched <- CacheCoverTask{Key: key, URL: coverURL}
	}
	return "/covers/" + key + ".jpg", nil
}

type fakePruner struct {
	maxAge time.Duration
}

func (f *fakePruner) Prune(maxAge time.Duration) (int, error) {
	f.maxAge = maxAge
	return 3, nil
}

func TestCacheCoverTaskConfig(t *testing.T) {
	cfg := CacheCoverTask{Key: "audio-1", URL: "https://img/1.jpg"}.Config()

	assert.Equal(t, "cache_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCacheCoverProcessor(t *testing.T) {
	ok := CacheCoverProcessor(&fakeCoverFetcher{})
	assert.NoError(t, ok(context.Background(), CacheCoverTask{Key: "audio-1", URL: "https://img/1.jpg"}))

	failing := CacheCoverProcessor(&fakeCoverFetcher{err: errors.New("status 404")})
	err := failing(context.Background(), CacheCoverTask{Key: "audio-1", URL: "https://img/1.jpg"})
	assert.ErrorContains(t, err, "audio-1")

	unconfigured := CacheCoverProcessor(nil)
	assert.Error(t, unconfigured(context.Background(), CacheCoverTask{}))
}

func TestPruneCoversProcessor(t *testing.T) {
	pruner := &fakePruner{}
	process := PruneCoversProcessor(pruner)

	require.NoError(t, process(context.Background(), PruneCoversTask{MaxAge: 720 * time.Hour}))
	assert.Equal(t, 720*time.Hour, pruner.maxAge)

	assert.Error(t, process(context.Background(), PruneCoversTask{}))
	assert.Equal(t, "prune_covers", PruneCoversTask{}.Config().Name)
}

func TestCoverQueue_EnqueuesAndProcesses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	fetcher := &fakeCoverFetcher{fetched: make(chan CacheCoverTask, 4)}
	client.Register(NewCacheCoverQueue(fetcher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	queue := NewCoverQueue(client, func(key, coverURL string) bool { return key == "audio-2" })

	covered := entities.CatalogItem{Source: entities.SourceAudio, ID: 1, CoverURL: "https://img/1.jpg"}
	alreadyCached := entities.CatalogItem{Source: entities.SourceAudio, ID: 2, CoverURL: "https://img/2.jpg"}
	bare := entities.CatalogItem{Source: entities.SourceAudio, ID: 3}

	require.NoError(t, queue.CoverFound(context.Background(), covered))
	require.NoError(t, queue.CoverFound(context.Background(), alreadyCached))
	require.NoError(t, queue.CoverFound(context.Background(), bare))

	select {
	case task := <-fetcher.fetched:
		assert.Equal(t, CacheCoverTask{Key: "audio-1", URL: "https://img/1.jpg"}, task)
	case <-time.After(5 * time.Second):
		t.Fatal("cover task was not executed within timeout")
	}

	select {
	case task := <-fetcher.fetched:
		t.Fatalf("unexpected extra task %+v", task)
	case <-time.After(200 * time.Millisecond):
	}
}
