// Package platform defines the closed set of distribution platforms.
package platform

import (
	"strings"

	"github.com/crosscast/crosscast/errors"
)

// Platform identifies one distribution target
type Platform string

const (
	YouTube   Platform = "youtube"
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	Facebook  Platform = "facebook"
	LinkedIn  Platform = "linkedin"
)

// All returns every known platform in a stable order
func All() []Platform {
	return []Platform{YouTube, TikTok, Instagram, Twitter, Facebook, LinkedIn}
}

// IsValid returns true if p is a known platform
func (p Platform) IsValid() bool {
	switch p {
	case YouTube, TikTok, Instagram, Twitter, Facebook, LinkedIn:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (p Platform) String() string {
	return string(p)
}

// Parse converts a platform name to a Platform, rejecting unknown names.
// Names are matched case-insensitively.
func Parse(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	if !p.IsValid() {
		return "", errors.NewInvalidPlatformError("unknown platform: %q", name)
	}
	return p, nil
}

// ParseAll converts a list of platform names, deduplicating while preserving
// first-seen order. Returns an error if the list is empty or any name is unknown.
func ParseAll(names []string) ([]Platform, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidPlatform, "no target platforms supplied")
	}

	seen := make(map[Platform]bool, len(names))
	platforms := make([]Platform, 0, len(names))
	for _, name := range names {
		p, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	return platforms, nil
}
