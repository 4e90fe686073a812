package ports

import (
	"context"
	"time"

	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// ResolveResult is the outcome of resolving a user query.
type ResolveResult struct {
	Tracks  []*domain.Track
	StartAt time.Duration // scheduled start offset extracted from the query
}

// TrackResolver resolves search phrases, direct links, and playlist URLs
// into playable track descriptors.
type TrackResolver interface {
	// Resolve returns at least one track or domain.ErrNoTracksResolved.
	Resolve(ctx context.Context, query string) (*ResolveResult, error)
}
