package domain

import "time"

// ResumePositions tracks where playback of a track should resume.
// Two logically distinct offsets exist per track: a scheduled start offset
// (an explicit seek requested at enqueue time, e.g. "play at t=90s") and an
// interrupted offset (where a track was cut off by skip/stop). The larger of
// the two wins when both are present.
type ResumePositions struct {
	scheduled   map[TrackID]time.Duration
	interrupted map[TrackID]time.Duration
}

// NewResumePositions creates empty ResumePositions.
func NewResumePositions() ResumePositions {
	return ResumePositions{
		scheduled:   make(map[TrackID]time.Duration),
		interrupted: make(map[TrackID]time.Duration),
	}
}

// SetScheduled records an explicit start offset requested at enqueue time.
func (r *ResumePositions) SetScheduled(id TrackID, offset time.Duration) {
	r.scheduled[id] = offset
}

// Scheduled returns the scheduled start offset for a track, default 0.
func (r *ResumePositions) Scheduled(id TrackID) time.Duration {
	return r.scheduled[id]
}

// MarkInterrupted records the elapsed position at which a track was cut off.
func (r *ResumePositions) MarkInterrupted(id TrackID, elapsed time.Duration) {
	r.interrupted[id] = elapsed
}

// ClearInterrupted forgets the interrupted offset for a track that finished
// cleanly. The scheduled offset survives.
func (r *ResumePositions) ClearInterrupted(id TrackID) {
	delete(r.interrupted, id)
}

// Offset returns the position at which playback of the track should start:
// max(scheduled, interrupted), default 0.
func (r *ResumePositions) Offset(id TrackID) time.Duration {
	offset := r.scheduled[id]
	if interrupted := r.interrupted[id]; interrupted > offset {
		offset = interrupted
	}
	return offset
}
