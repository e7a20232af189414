package publish

import (
	"context"

	"github.com/crosscast/crosscast/platform"
)

// MediaPreparer is the external transcoding collaborator. Prepare returns a
// platform-specific rendition of the media; on failure the executor falls
// back to the original reference rather than failing the attempt.
type MediaPreparer interface {
	Prepare(ctx context.Context, mediaRef string, p platform.Platform) (string, error)
}

// PostInfo is the provider's identification of a published post
type PostInfo struct {
	PostID  string
	PostURL string
}

// ProviderClient is the external social-platform client collaborator.
// Publish may return an error; the executor converts it into a platform-level
// failure result and never lets it escape a job.
type ProviderClient interface {
	Publish(ctx context.Context, p platform.Platform, mediaRef, title, description string, tags []string) (*PostInfo, error)
}
