package domain

import (
	"errors"
	"fmt"
)

// User-input errors. Recovered locally and surfaced as a user-visible
// message; never fatal, never retried automatically.
var (
	// ErrNoTracksResolved is returned when a query yields no playable tracks.
	ErrNoTracksResolved = errors.New("no tracks found")

	// ErrQueueEmpty is returned when an operation requires a non-empty queue.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrIndexOutOfRange is returned when a queue position does not exist.
	ErrIndexOutOfRange = errors.New("no such position in the queue")

	// ErrNothingPlaying is returned when an operation requires an active track.
	ErrNothingPlaying = errors.New("nothing is currently playing")

	// ErrVolumeOutOfRange is returned for volume values outside 0-100.
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 100")

	// ErrUserNotInVoice is returned when the caller is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotConnected is returned when no session exists for the guild.
	ErrNotConnected = errors.New("not connected to a voice channel")
)

// ErrUpstreamUnavailable marks failures of the external streaming engine or
// resolver. A single failure does not tear the session down; the command
// layer decides whether to retry or disconnect.
var ErrUpstreamUnavailable = errors.New("streaming engine unavailable")

// WrapUpstream tags an engine/resolver transport failure with
// ErrUpstreamUnavailable so callers can match the category with errors.Is.
func WrapUpstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

// IsUserError reports whether err belongs to the user-input category.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrNoTracksResolved,
		ErrQueueEmpty,
		ErrIndexOutOfRange,
		ErrNothingPlaying,
		ErrVolumeOutOfRange,
		ErrUserNotInVoice,
		ErrNotConnected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
