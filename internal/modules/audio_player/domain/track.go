package domain

import (
	"strconv"
	"sync/atomic"
	"time"
)

// TrackID is a synthetic identifier assigned to every enqueued track.
// IDs are unique per process and monotonically increasing, so two tracks
// sharing a display title never collide in resume-offset bookkeeping.
type TrackID uint64

var trackSeq atomic.Uint64

func nextTrackID() TrackID {
	return TrackID(trackSeq.Add(1))
}

// Track is an immutable descriptor of a playable unit.
type Track struct {
	ID         TrackID
	Encoded    string // engine source locator (Lavalink encoded track data)
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	SourceName string // e.g., "youtube", "soundcloud"
	IsStream   bool
}

// NewTrack creates a Track and assigns it a fresh TrackID.
func NewTrack(
	encoded string,
	title string,
	artist string,
	duration time.Duration,
	uri string,
	artworkURL string,
	sourceName string,
	isStream bool,
) *Track {
	return &Track{
		ID:         nextTrackID(),
		Encoded:    encoded,
		Title:      title,
		Artist:     artist,
		Duration:   duration,
		URI:        uri,
		ArtworkURL: artworkURL,
		SourceName: sourceName,
		IsStream:   isStream,
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// FormattedDuration returns the duration as mm:ss or hh:mm:ss.
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
