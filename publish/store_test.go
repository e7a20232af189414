package publish_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/db"
	cctest "github.com/crosscast/crosscast/internal/testing"
	"github.com/crosscast/crosscast/logger"
	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/publish"
)

func setupStore(t *testing.T) *publish.Store {
	t.Helper()
	database := cctest.CreateTestDB(t)
	require.NoError(t, db.Migrate(database, logger.NewTestLogger()))
	return publish.NewStore(database)
}

func terminalJob(t *testing.T) *publish.Job {
	t.Helper()
	job, err := publish.NewJob(publish.Request{
		OwnerID:   "owner-1",
		MediaRef:  "media/clip.mp4",
		Title:     "Launch",
		Tags:      []string{"launch", "demo"},
		Platforms: []string{"youtube", "tiktok"},
	})
	require.NoError(t, err)
	job.RecordResult(platform.YouTube, &publish.PlatformResult{Success: true, PostID: "yt1", PostURL: "https://yt/yt1"})
	job.RecordResult(platform.TikTok, &publish.PlatformResult{Success: false, Error: "api error"})
	job.Finalize()
	return job
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	store := setupStore(t)
	job := terminalJob(t)
	require.NoError(t, store.SaveSnapshot(job))

	loaded, err := store.LoadSnapshot(job.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, publish.StatusPartial, loaded.Status)
	assert.Equal(t, 100, loaded.Progress)
	assert.Equal(t, []string{"launch", "demo"}, loaded.Tags)
	assert.Equal(t, job.Platforms, loaded.Platforms)
	require.NotNil(t, loaded.Results[platform.YouTube])
	assert.Equal(t, "yt1", loaded.Results[platform.YouTube].PostID)
	require.NotNil(t, loaded.Results[platform.TikTok])
	assert.Equal(t, "api error", loaded.Results[platform.TikTok].Error)
	require.NotNil(t, loaded.CompletedAt)
}

func TestStoreLoadMissingSnapshot(t *testing.T) {
	store := setupStore(t)

	loaded, err := store.LoadSnapshot("JBnope")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing snapshot is nil, not an error")
}

func TestStoreListSnapshotsByStatus(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.SaveSnapshot(terminalJob(t)))
	require.NoError(t, store.SaveSnapshot(terminalJob(t)))

	completed, err := publish.NewJob(publish.Request{
		OwnerID: "owner-1", MediaRef: "m", Platforms: []string{"youtube"},
	})
	require.NoError(t, err)
	completed.RecordResult(platform.YouTube, &publish.PlatformResult{Success: true, PostID: "yt9"})
	completed.Finalize()
	require.NoError(t, store.SaveSnapshot(completed))

	partial := publish.StatusPartial
	jobs, err := store.ListSnapshots(&partial, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	all, err := store.ListSnapshots(nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Partial)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 3, stats.Total)
}

func TestStoreScheduledLifecycle(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	sj := &publish.ScheduledJob{
		ID:              "JBsched1",
		OwnerID:         "owner-1",
		MediaRef:        "media/clip.mp4",
		Title:           "Later",
		Platforms:       []platform.Platform{platform.Instagram},
		RunAt:           now.Add(time.Hour),
		EngagementScore: 1.4,
		CreatedAt:       now,
	}
	require.NoError(t, store.CreateScheduled(sj))

	got, err := store.GetScheduled("JBsched1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []platform.Platform{platform.Instagram}, got.Platforms)
	assert.Equal(t, 1.4, got.EngagementScore)
	assert.True(t, got.RunAt.Equal(sj.RunAt))

	// Not due yet
	due, err := store.ListDue(now)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Due after its run time passes
	due, err = store.ListDue(now.Add(2 * time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "JBsched1", due[0].ID)

	deleted, err := store.DeleteScheduled("JBsched1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteScheduled("JBsched1")
	require.NoError(t, err)
	assert.False(t, deleted, "second delete finds nothing")

	got, err = store.GetScheduled("JBsched1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreListDueOrdersOldestFirst(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC()

	for i, id := range []string{"JBolder", "JBnewer"} {
		offset := time.Duration(10-i*5) * time.Minute
		require.NoError(t, store.CreateScheduled(&publish.ScheduledJob{
			ID:        id,
			OwnerID:   "owner-1",
			MediaRef:  "m",
			Platforms: []platform.Platform{platform.YouTube},
			RunAt:     now.Add(-offset),
			CreatedAt: now,
		}))
	}

	due, err := store.ListDue(now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "JBolder", due[0].ID, "oldest run time launches first")
	assert.Equal(t, "JBnewer", due[1].ID)
}
