package publish_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/db"
	"github.com/crosscast/crosscast/errors"
	cctest "github.com/crosscast/crosscast/internal/testing"
	"github.com/crosscast/crosscast/logger"
	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/publish"
	"github.com/crosscast/crosscast/quota"
)

// stubPreparer returns a fixed rendition reference, or an error
type stubPreparer struct {
	rendition string
	err       error
	calls     int
}

func (s *stubPreparer) Prepare(_ context.Context, mediaRef string, _ platform.Platform) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.rendition, nil
}

// stubProvider records what it was asked to publish
type stubProvider struct {
	post      *publish.PostInfo
	err       error
	calls     int
	lastMedia string
}

func (s *stubProvider) Publish(_ context.Context, _ platform.Platform, mediaRef, _, _ string, _ []string) (*publish.PostInfo, error) {
	s.calls++
	s.lastMedia = mediaRef
	if s.err != nil {
		return nil, s.err
	}
	return s.post, nil
}

func setupExecutorDB(t *testing.T) *sql.DB {
	t.Helper()
	database := cctest.CreateTestDB(t)
	require.NoError(t, db.Migrate(database, logger.NewTestLogger()))
	return database
}

func mkJob(t *testing.T, platforms ...string) *publish.Job {
	t.Helper()
	job, err := publish.NewJob(publish.Request{
		OwnerID:   "chan-1",
		MediaRef:  "media/clip.mp4",
		Title:     "Launch",
		Platforms: platforms,
	})
	require.NoError(t, err)
	return job
}

func TestExecutorSuccessIncrementsQuota(t *testing.T) {
	database := setupExecutorDB(t)
	tracker := quota.NewTracker(database)
	require.NoError(t, tracker.Configure("chan-1", "youtube", 100, true))

	media := &stubPreparer{rendition: "media/clip-yt.mp4"}
	provider := &stubProvider{post: &publish.PostInfo{PostID: "yt1", PostURL: "https://yt/yt1"}}
	exec := publish.NewExecutor(tracker, media, provider, 0, logger.NewTestLogger())

	job := mkJob(t, "youtube")
	result := exec.Attempt(context.Background(), job, platform.YouTube)

	require.True(t, result.Success)
	assert.Equal(t, "yt1", result.PostID)
	assert.Equal(t, "media/clip-yt.mp4", provider.lastMedia, "prepared rendition should be published")

	status, err := tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Usage)
}

func TestExecutorQuotaExhaustedSkipsProvider(t *testing.T) {
	database := setupExecutorDB(t)
	tracker := quota.NewTracker(database)
	require.NoError(t, tracker.Configure("chan-1", "tiktok", 0, true))

	media := &stubPreparer{}
	provider := &stubProvider{post: &publish.PostInfo{PostID: "tt1"}}
	exec := publish.NewExecutor(tracker, media, provider, 0, logger.NewTestLogger())

	job := mkJob(t, "tiktok")
	result := exec.Attempt(context.Background(), job, platform.TikTok)

	require.False(t, result.Success)
	assert.Equal(t, errors.ErrQuotaExhausted.Error(), result.Error)
	assert.Equal(t, 0, provider.calls, "exhausted quota must not reach the provider")
	assert.Equal(t, 0, media.calls, "exhausted quota must not trigger media preparation")
}

func TestExecutorUnconfiguredQuotaSkipsProvider(t *testing.T) {
	database := setupExecutorDB(t)
	tracker := quota.NewTracker(database)

	provider := &stubProvider{post: &publish.PostInfo{PostID: "x"}}
	exec := publish.NewExecutor(tracker, &stubPreparer{}, provider, 0, logger.NewTestLogger())

	job := mkJob(t, "twitter")
	result := exec.Attempt(context.Background(), job, platform.Twitter)

	require.False(t, result.Success)
	assert.Equal(t, errors.ErrQuotaExhausted.Error(), result.Error)
	assert.Equal(t, 0, provider.calls)
}

func TestExecutorMediaPrepFallsBackToOriginal(t *testing.T) {
	database := setupExecutorDB(t)
	tracker := quota.NewTracker(database)
	require.NoError(t, tracker.Configure("chan-1", "instagram", 100, true))

	media := &stubPreparer{err: errors.New("transcode unavailable")}
	provider := &stubProvider{post: &publish.PostInfo{PostID: "ig1"}}
	exec := publish.NewExecutor(tracker, media, provider, 0, logger.NewTestLogger())

	job := mkJob(t, "instagram")
	result := exec.Attempt(context.Background(), job, platform.Instagram)

	require.True(t, result.Success, "media prep failure is best-effort, not fatal")
	assert.Equal(t, "media/clip.mp4", provider.lastMedia, "original reference should be published")
}

func TestExecutorProviderError(t *testing.T) {
	database := setupExecutorDB(t)
	tracker := quota.NewTracker(database)
	require.NoError(t, tracker.Configure("chan-1", "youtube", 100, true))

	provider := &stubProvider{err: errors.New("upstream 503")}
	exec := publish.NewExecutor(tracker, &stubPreparer{}, provider, 0, logger.NewTestLogger())

	job := mkJob(t, "youtube")
	result := exec.Attempt(context.Background(), job, platform.YouTube)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "upstream 503")

	// Failed provider calls still consume no quota
	status, err := tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Usage)
}
