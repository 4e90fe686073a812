package domain

// TrackList is an ordered track container. Two instances exist per session:
// the forward queue (FIFO) and the history (most-recent-last).
type TrackList struct {
	tracks []*Track
}

// NewTrackList creates an empty TrackList.
func NewTrackList() TrackList {
	return TrackList{tracks: make([]*Track, 0)}
}

// Len returns the number of tracks.
func (l *TrackList) Len() int {
	return len(l.tracks)
}

// IsEmpty returns true if the list has no tracks.
func (l *TrackList) IsEmpty() bool {
	return len(l.tracks) == 0
}

// Append adds a track to the end.
func (l *TrackList) Append(tracks ...*Track) {
	l.tracks = append(l.tracks, tracks...)
}

// PopFront removes and returns the first track.
func (l *TrackList) PopFront() (*Track, error) {
	if l.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	track := l.tracks[0]
	l.tracks = l.tracks[1:]
	return track, nil
}

// PopBack removes and returns the last track.
func (l *TrackList) PopBack() (*Track, error) {
	if l.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	track := l.tracks[len(l.tracks)-1]
	l.tracks = l.tracks[:len(l.tracks)-1]
	return track, nil
}

// InsertFront adds a track ahead of everything else.
func (l *TrackList) InsertFront(track *Track) {
	l.tracks = append([]*Track{track}, l.tracks...)
}

// InsertAt inserts a track at the given index. An index at or past the end
// appends, so force-playing a batch can re-insert the pre-empted track right
// behind it even when the queue is short.
func (l *TrackList) InsertAt(index int, track *Track) {
	if index < 0 {
		index = 0
	}
	if index >= len(l.tracks) {
		l.tracks = append(l.tracks, track)
		return
	}
	l.tracks = append(l.tracks[:index], append([]*Track{track}, l.tracks[index:]...)...)
}

// RemoveAt removes and returns the track at the given index.
func (l *TrackList) RemoveAt(index int) (*Track, error) {
	if l.IsEmpty() {
		return nil, ErrQueueEmpty
	}
	if index < 0 || index >= len(l.tracks) {
		return nil, ErrIndexOutOfRange
	}
	track := l.tracks[index]
	l.tracks = append(l.tracks[:index], l.tracks[index+1:]...)
	return track, nil
}

// At returns the track at the given index without removing it, or nil if the
// index is out of bounds.
func (l *TrackList) At(index int) *Track {
	if index < 0 || index >= len(l.tracks) {
		return nil
	}
	return l.tracks[index]
}

// Slice returns a non-mutating copy of up to limit tracks starting at offset,
// for pagination. Out-of-range bounds are clamped.
func (l *TrackList) Slice(offset, limit int) []*Track {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(l.tracks) || limit <= 0 {
		return nil
	}
	end := min(offset+limit, len(l.tracks))
	result := make([]*Track, end-offset)
	copy(result, l.tracks[offset:end])
	return result
}

// List returns a copy of all tracks.
func (l *TrackList) List() []*Track {
	result := make([]*Track, len(l.tracks))
	copy(result, l.tracks)
	return result
}

// Clear removes all tracks.
func (l *TrackList) Clear() {
	l.tracks = l.tracks[:0]
}
