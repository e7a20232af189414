// Package provider contains ProviderClient and MediaPreparer implementations.
//
// Real platform credentials are deployment-specific; the simulated provider
// lets the full pipeline run end to end without any external account.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/publish"
)

// Simulated is an in-process stand-in for real platform APIs. Every publish
// succeeds and returns a synthetic post id; media preparation is a rename.
type Simulated struct {
	logger *zap.SugaredLogger
}

// NewSimulated creates a simulated provider
func NewSimulated(logger *zap.SugaredLogger) *Simulated {
	return &Simulated{logger: logger}
}

// Prepare implements publish.MediaPreparer
func (s *Simulated) Prepare(_ context.Context, mediaRef string, p platform.Platform) (string, error) {
	if ext := extOf(mediaRef); ext != "" {
		return strings.TrimSuffix(mediaRef, ext) + "." + string(p) + ext, nil
	}
	return mediaRef + "." + string(p), nil
}

// Publish implements publish.ProviderClient
func (s *Simulated) Publish(_ context.Context, p platform.Platform, mediaRef, title, _ string, _ []string) (*publish.PostInfo, error) {
	postID := uuid.NewString()[:8]
	s.logger.Infow("Simulated publish",
		"platform", p,
		"media_ref", mediaRef,
		"title", title,
		"post_id", postID,
	)
	return &publish.PostInfo{
		PostID:  postID,
		PostURL: fmt.Sprintf("https://%s.example/posts/%s", p, postID),
	}, nil
}

func extOf(ref string) string {
	if i := strings.LastIndex(ref, "."); i > strings.LastIndex(ref, "/") && i >= 0 {
		return ref[i:]
	}
	return ""
}
