package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/events"
	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// PlaybackSession is the per-guild playback state machine. It owns the
// guild's current track, queue, history, and resume-offset bookkeeping, and
// it exclusively owns the guild's engine connection.
//
// All mutating operations run under the session mutex, which is held across
// engine calls. Engine calls are suspension points: releasing the lock
// before they complete would let a racing command observe pre-mutation state
// and issue a conflicting playback request.
type PlaybackSession struct {
	guildID snowflake.ID

	mu                    sync.Mutex
	conn                  ports.EngineConnection
	current               *domain.Track
	queue                 domain.TrackList
	history               domain.TrackList
	resume                domain.ResumePositions
	paused                bool
	filtersApplied        bool
	notificationChannelID snowflake.ID
	closed                bool

	bus *events.Bus
}

// EnqueueOptions controls how tracks enter the queue.
type EnqueueOptions struct {
	// ForcePlay prepends the batch and pre-empts the current track.
	ForcePlay bool
	// StartAt is the scheduled start offset recorded for every track in the
	// batch.
	StartAt time.Duration
}

// NewPlaybackSession creates a session bound to an engine connection.
func NewPlaybackSession(
	guildID snowflake.ID,
	conn ports.EngineConnection,
	bus *events.Bus,
) *PlaybackSession {
	return &PlaybackSession{
		guildID: guildID,
		conn:    conn,
		queue:   domain.NewTrackList(),
		history: domain.NewTrackList(),
		resume:  domain.NewResumePositions(),
		bus:     bus,
	}
}

// GuildID returns the guild this session belongs to.
func (s *PlaybackSession) GuildID() snowflake.ID {
	return s.guildID
}

// SetNotificationChannel records the text channel the player view renders in.
func (s *PlaybackSession) SetNotificationChannel(channelID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationChannelID = channelID
}

// Snapshot returns a consistent read-only view of the session.
func (s *PlaybackSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PlaybackSession) snapshotLocked() domain.SessionSnapshot {
	return domain.SessionSnapshot{
		GuildID:               s.guildID,
		NotificationChannelID: s.notificationChannelID,
		Current:               s.current,
		Paused:                s.paused,
		FiltersApplied:        s.filtersApplied,
		Queue:                 s.queue.List(),
		History:               s.history.List(),
	}
}

// Enqueue adds tracks to the queue. When idle, playback starts with the
// first queued track. With ForcePlay, the batch is prepended in order, its
// first track pre-empts the current one, and the pre-empted track is
// re-inserted right behind the batch with its elapsed position recorded so a
// later previous/jump resumes it mid-track.
func (s *PlaybackSession) Enqueue(
	ctx context.Context,
	tracks []*domain.Track,
	opts EnqueueOptions,
) error {
	if len(tracks) == 0 {
		return domain.ErrNoTracksResolved
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, track := range tracks {
		s.resume.SetScheduled(track.ID, opts.StartAt)
	}

	if err := s.enqueueLocked(ctx, tracks, opts.ForcePlay); err != nil {
		return err
	}

	s.notifyLocked()
	return nil
}

// enqueueLocked implements the shared enqueue/force-play path. Scheduled
// offsets must already be recorded; JumpTo reuses this without overwriting
// the offsets its track carries.
func (s *PlaybackSession) enqueueLocked(
	ctx context.Context,
	tracks []*domain.Track,
	forcePlay bool,
) error {
	if !forcePlay {
		s.queue.Append(tracks...)
		if s.current != nil {
			// Already playing or paused; the new tracks wait in line.
			return nil
		}
		next, err := s.queue.PopFront()
		if err != nil {
			return err
		}
		if err := s.playLocked(ctx, next); err != nil {
			// The engine never started; put the track back so a retry can
			// reach it.
			s.queue.InsertFront(next)
			return err
		}
		return nil
	}

	for i, track := range tracks {
		s.queue.InsertAt(i, track)
	}

	next, err := s.queue.PopFront()
	if err != nil {
		return err
	}

	preempted := s.current
	if preempted != nil {
		// The pre-empted track was interrupted, not finished: it returns to
		// the queue right behind the force-played batch, with its progress
		// recorded.
		s.resume.MarkInterrupted(preempted.ID, s.conn.Position())
		s.queue.InsertAt(len(tracks)-1, preempted)
	}

	if err := s.playLocked(ctx, next); err != nil {
		// Unwind: the pre-empted track is still playing and must not sit in
		// the queue as well; the forced batch stays queued at the front.
		if preempted != nil {
			_, _ = s.queue.RemoveAt(len(tracks) - 1)
		}
		s.queue.InsertFront(next)
		return err
	}
	return nil
}

// TrackFinished handles the engine's asynchronous completion signal. The
// engine may deliver duplicate signals; a call with no current track is a
// no-op, not an error.
func (s *PlaybackSession) TrackFinished(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		slog.Debug("completion signal while idle, ignoring", "guild", s.guildID)
		return nil
	}

	// The track completed cleanly; there is nothing to resume.
	s.resume.ClearInterrupted(s.current.ID)

	// The engine already stopped on its own; only a skip needs an explicit
	// stop when the queue is exhausted.
	if err := s.advanceLocked(ctx, false); err != nil {
		return err
	}

	s.notifyLocked()
	return nil
}

// Skip cuts off the current track, preserving its elapsed position so a
// later Previous resumes mid-track. No-op when idle.
func (s *PlaybackSession) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}

	s.resume.MarkInterrupted(s.current.ID, s.conn.Position())

	if err := s.advanceLocked(ctx, true); err != nil {
		return err
	}

	s.notifyLocked()
	return nil
}

// advanceLocked moves the current track to history and starts the next
// queued track, or stops and goes idle when the queue is exhausted.
func (s *PlaybackSession) advanceLocked(ctx context.Context, stopEngine bool) error {
	s.history.Append(s.current)

	next, err := s.queue.PopFront()
	if err != nil {
		// Queue exhausted: go idle.
		s.current = nil
		s.paused = false
		if stopEngine {
			if err := s.conn.Stop(ctx); err != nil {
				return domain.WrapUpstream("stop", err)
			}
		}
		return nil
	}

	if err := s.playLocked(ctx, next); err != nil {
		// The finished track is already history; the next track returns to
		// the queue front and the session goes idle so a retry can pick it
		// up.
		s.queue.InsertFront(next)
		s.current = nil
		s.paused = false
		return err
	}
	return nil
}

// Previous rewinds to the most recent history entry. The current track, if
// any, goes to the front of the queue with its progress recorded; undo is
// meant to feel like rewinding, not like finishing, so the current track
// does not enter history. Silent no-op on empty history.
func (s *PlaybackSession) Previous(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.history.PopBack()
	if err != nil {
		return nil
	}

	preempted := s.current
	if preempted != nil {
		s.resume.MarkInterrupted(preempted.ID, s.conn.Position())
	}

	if err := s.playLocked(ctx, last); err != nil {
		// The engine never switched tracks; the history entry goes back
		// where it was and the pre-empted track keeps playing.
		s.history.Append(last)
		return err
	}

	if preempted != nil {
		s.queue.InsertFront(preempted)
	}

	s.notifyLocked()
	return nil
}

// JumpTo removes the track at index from the queue (or history) and
// force-plays it, pre-empting the current track without discarding its
// progress.
func (s *PlaybackSession) JumpTo(ctx context.Context, index int, fromHistory bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		track *domain.Track
		err   error
	)
	if fromHistory {
		track, err = s.history.RemoveAt(index)
	} else {
		track, err = s.queue.RemoveAt(index)
	}
	if err != nil {
		return err
	}

	// The track keeps whatever scheduled offset it was enqueued with.
	if err := s.enqueueLocked(ctx, []*domain.Track{track}, true); err != nil {
		return err
	}

	s.notifyLocked()
	return nil
}

// StopAll discards every pending track, then stops the current one
// (recording its progress and appending it to history). This is the only
// deliberately destructive operation; Skip and Previous preserve tracks.
func (s *PlaybackSession) StopAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopAllLocked(ctx); err != nil {
		return err
	}

	s.notifyLocked()
	return nil
}

func (s *PlaybackSession) stopAllLocked(ctx context.Context) error {
	s.queue.Clear()

	if s.current == nil {
		return nil
	}

	s.resume.MarkInterrupted(s.current.ID, s.conn.Position())
	s.history.Append(s.current)
	s.current = nil
	s.paused = false

	if err := s.conn.Stop(ctx); err != nil {
		return domain.WrapUpstream("stop", err)
	}
	return nil
}

// TogglePause switches between Playing and Paused.
func (s *PlaybackSession) TogglePause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNothingPlaying
	}

	if s.paused {
		if err := s.conn.Resume(ctx); err != nil {
			return domain.WrapUpstream("resume", err)
		}
	} else {
		if err := s.conn.Pause(ctx); err != nil {
			return domain.WrapUpstream("pause", err)
		}
	}
	s.paused = !s.paused

	s.notifyLocked()
	return nil
}

// ToggleFilter toggles the session's audio filter chain. Filter state
// persists across tracks within a session and resets on teardown.
func (s *PlaybackSession) ToggleFilter(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNothingPlaying
	}

	if err := s.conn.SetFilter(ctx, !s.filtersApplied); err != nil {
		return domain.WrapUpstream("filter", err)
	}
	s.filtersApplied = !s.filtersApplied

	s.notifyLocked()
	return nil
}

// SetVolume sets the playback volume (0-100).
func (s *PlaybackSession) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return domain.ErrVolumeOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetVolume(ctx, volume); err != nil {
		return domain.WrapUpstream("volume", err)
	}
	return nil
}

// Close tears the session down: pending tracks are discarded, playback
// stops, and the engine connection is released. Safe to call more than once.
func (s *PlaybackSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.stopAllLocked(ctx); err != nil {
		slog.Warn("failed to stop playback during session close",
			"guild", s.guildID, "error", err)
	}

	// Disconnecting destroys the engine player, which also resets any
	// applied filters.
	s.filtersApplied = false
	if err := s.conn.Disconnect(ctx); err != nil {
		return domain.WrapUpstream("disconnect", err)
	}

	if s.bus != nil {
		s.bus.PublishSessionClosed(events.SessionClosedEvent{GuildID: s.guildID})
	}
	return nil
}

// playLocked starts the engine playing a track at its effective resume
// offset (max of scheduled and interrupted, default 0) and makes it current.
func (s *PlaybackSession) playLocked(ctx context.Context, track *domain.Track) error {
	offset := s.resume.Offset(track.ID)
	if err := s.conn.Play(ctx, track, offset); err != nil {
		return domain.WrapUpstream("play", err)
	}

	s.current = track
	// The engine does not report pause state after a replace; playback
	// always starts unpaused.
	s.paused = false

	slog.Debug("started playback",
		"guild", s.guildID,
		"track", track.Title,
		"offset", offset,
	)
	return nil
}

func (s *PlaybackSession) notifyLocked() {
	if s.bus == nil {
		return
	}
	s.bus.PublishStateChanged(events.StateChangedEvent{
		GuildID:  s.guildID,
		Snapshot: s.snapshotLocked(),
	})
}
