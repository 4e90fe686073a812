package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/events"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

const testGuildID = snowflake.ID(123456789)

func newTestSession() (*PlaybackSession, *fakeConnection) {
	conn := &fakeConnection{}
	session := NewPlaybackSession(testGuildID, conn, nil)
	return session, conn
}

func TestEnqueueStartsPlaybackWhenIdle(t *testing.T) {
	session, conn := newTestSession()
	tracks := makeTracks("a", "b", "c")

	err := session.Enqueue(context.Background(), tracks, EnqueueOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.playCount() != 1 {
		t.Fatalf("expected 1 play call, got %d", conn.playCount())
	}
	if conn.lastPlay().track.Title != "a" {
		t.Errorf("expected first track to play, got %q", conn.lastPlay().track.Title)
	}

	snapshot := session.Snapshot()
	if snapshot.Current == nil || snapshot.Current.Title != "a" {
		t.Errorf("expected current track a, got %+v", snapshot.Current)
	}
	if len(snapshot.Queue) != 2 {
		t.Errorf("expected 2 queued tracks, got %d", len(snapshot.Queue))
	}
}

func TestEnqueueWhilePlayingAppendsWithoutReplacing(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	_ = session.Enqueue(context.Background(), makeTracks("b"), EnqueueOptions{})

	if conn.playCount() != 1 {
		t.Fatalf("expected enqueue while playing not to replace, got %d plays", conn.playCount())
	}

	snapshot := session.Snapshot()
	if snapshot.Current.Title != "a" {
		t.Errorf("expected a still current, got %q", snapshot.Current.Title)
	}
	if len(snapshot.Queue) != 1 || snapshot.Queue[0].Title != "b" {
		t.Errorf("expected queue [b], got %v", snapshot.Queue)
	}
}

func TestEnqueueEmptyBatch(t *testing.T) {
	session, _ := newTestSession()

	err := session.Enqueue(context.Background(), nil, EnqueueOptions{})
	if !errors.Is(err, domain.ErrNoTracksResolved) {
		t.Errorf("expected ErrNoTracksResolved, got %v", err)
	}
}

func TestForcePlayPreemptsAndPreservesProgress(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("x", "b", "c"), EnqueueOptions{})
	conn.setPosition(20 * time.Second)

	err := session.Enqueue(context.Background(), makeTracks("y"), EnqueueOptions{ForcePlay: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.lastPlay().track.Title != "y" {
		t.Fatalf("expected y playing, got %q", conn.lastPlay().track.Title)
	}

	// The pre-empted track lands immediately behind the forced batch.
	snapshot := session.Snapshot()
	want := []string{"x", "b", "c"}
	if len(snapshot.Queue) != len(want) {
		t.Fatalf("expected queue %v, got %v", want, snapshot.Queue)
	}
	for i, title := range want {
		if snapshot.Queue[i].Title != title {
			t.Fatalf("expected queue %v, got position %d = %q", want, i, snapshot.Queue[i].Title)
		}
	}

	// Skipping the forced track resumes the pre-empted one where it left off.
	if err := session.Skip(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := conn.lastPlay()
	if last.track.Title != "x" {
		t.Fatalf("expected x to resume, got %q", last.track.Title)
	}
	if last.at != 20*time.Second {
		t.Errorf("expected x to resume at 20s, got %v", last.at)
	}
}

func TestForcePlayBatchKeepsBatchOrder(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("x"), EnqueueOptions{})
	_ = session.Enqueue(
		context.Background(),
		makeTracks("y1", "y2"),
		EnqueueOptions{ForcePlay: true},
	)

	if conn.lastPlay().track.Title != "y1" {
		t.Fatalf("expected y1 playing, got %q", conn.lastPlay().track.Title)
	}

	snapshot := session.Snapshot()
	want := []string{"y2", "x"}
	if len(snapshot.Queue) != len(want) {
		t.Fatalf("expected queue %v, got %v", want, snapshot.Queue)
	}
	for i, title := range want {
		if snapshot.Queue[i].Title != title {
			t.Fatalf("expected queue %v, got position %d = %q", want, i, snapshot.Queue[i].Title)
		}
	}
}

func TestTrackFinishedAdvancesQueue(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})

	if err := session.TrackFinished(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.lastPlay().track.Title != "b" {
		t.Errorf("expected b playing, got %q", conn.lastPlay().track.Title)
	}

	snapshot := session.Snapshot()
	if len(snapshot.History) != 1 || snapshot.History[0].Title != "a" {
		t.Errorf("expected history [a], got %v", snapshot.History)
	}
}

func TestTrackFinishedOnExhaustedQueueGoesIdleWithoutStopping(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})

	if err := session.TrackFinished(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := session.Snapshot()
	if !snapshot.IsIdle() {
		t.Error("expected session to be idle after queue exhaustion")
	}
	// The engine stopped by itself; an extra stop would fire a spurious end
	// event.
	if conn.stops != 0 {
		t.Errorf("expected no explicit stop on natural finish, got %d", conn.stops)
	}
}

func TestDuplicateTrackFinishedIsAbsorbed(t *testing.T) {
	session, _ := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	_ = session.TrackFinished(context.Background())

	if err := session.TrackFinished(context.Background()); err != nil {
		t.Errorf("expected duplicate completion signal to be a no-op, got %v", err)
	}

	snapshot := session.Snapshot()
	if len(snapshot.History) != 1 {
		t.Errorf("expected history unchanged by duplicate signal, got %v", snapshot.History)
	}
}

func TestSkipStopsEngineWhenQueueExhausted(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})

	if err := session.Skip(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.stops != 1 {
		t.Errorf("expected explicit stop on skip with empty queue, got %d", conn.stops)
	}
	if !session.Snapshot().IsIdle() {
		t.Error("expected session idle after skipping the last track")
	}
}

func TestSkipWhileIdleIsNoOp(t *testing.T) {
	session, conn := newTestSession()

	if err := session.Skip(context.Background()); err != nil {
		t.Errorf("expected idle skip to be a no-op, got %v", err)
	}
	if conn.stops != 0 {
		t.Errorf("expected no engine calls, got %d stops", conn.stops)
	}
}

func TestPreviousReplaysHistoryAndRequeuesCurrent(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})
	_ = session.TrackFinished(context.Background()) // b now playing, a in history
	conn.setPosition(40 * time.Second)

	if err := session.Previous(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.lastPlay().track.Title != "a" {
		t.Errorf("expected a replaying, got %q", conn.lastPlay().track.Title)
	}

	snapshot := session.Snapshot()
	if len(snapshot.Queue) != 1 || snapshot.Queue[0].Title != "b" {
		t.Fatalf("expected interrupted b at queue front, got %v", snapshot.Queue)
	}
	if len(snapshot.History) != 0 {
		t.Errorf("expected history emptied, got %v", snapshot.History)
	}

	// Going forward again resumes b where it was interrupted.
	_ = session.Skip(context.Background())
	if last := conn.lastPlay(); last.track.Title != "b" || last.at != 40*time.Second {
		t.Errorf("expected b resumed at 40s, got %q at %v", last.track.Title, last.at)
	}
}

func TestPreviousOnEmptyHistoryIsNoOp(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	before := conn.playCount()

	if err := session.Previous(context.Background()); err != nil {
		t.Errorf("expected empty-history previous to be a no-op, got %v", err)
	}
	if conn.playCount() != before {
		t.Error("expected no playback change")
	}
}

func TestScheduledOffsetAppliesOnFirstPlay(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{
		StartAt: 90 * time.Second,
	})

	if got := conn.lastPlay().at; got != 90*time.Second {
		t.Errorf("expected playback to start at 90s, got %v", got)
	}
}

func TestResumeOffsetLargerValueWins(t *testing.T) {
	session, conn := newTestSession()

	// Scheduled at 30s, interrupted at 5s: scheduled wins on replay.
	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{
		StartAt: 30 * time.Second,
	})
	conn.setPosition(5 * time.Second)
	_ = session.Skip(context.Background())
	_ = session.Previous(context.Background())

	if got := conn.lastPlay().at; got != 30*time.Second {
		t.Fatalf("expected replay at scheduled 30s, got %v", got)
	}

	// Interrupted at 45s, past the scheduled point: interruption wins.
	conn.setPosition(45 * time.Second)
	_ = session.Skip(context.Background())
	_ = session.Previous(context.Background())

	if got := conn.lastPlay().at; got != 45*time.Second {
		t.Errorf("expected replay at interrupted 45s, got %v", got)
	}
}

func TestJumpToForcePlaysQueuedTrack(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b", "c"), EnqueueOptions{})
	conn.setPosition(10 * time.Second)

	if err := session.JumpTo(context.Background(), 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.lastPlay().track.Title != "c" {
		t.Errorf("expected c playing, got %q", conn.lastPlay().track.Title)
	}

	// The pre-empted a returns to the queue front with its progress kept.
	snapshot := session.Snapshot()
	if len(snapshot.Queue) != 2 || snapshot.Queue[0].Title != "a" || snapshot.Queue[1].Title != "b" {
		t.Errorf("expected queue [a b], got %v", snapshot.Queue)
	}
}

func TestJumpToHistory(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})
	_ = session.TrackFinished(context.Background())

	if err := session.JumpTo(context.Background(), 0, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.lastPlay().track.Title != "a" {
		t.Errorf("expected a playing from history, got %q", conn.lastPlay().track.Title)
	}
	if len(session.Snapshot().History) != 0 {
		t.Errorf("expected a removed from history, got %v", session.Snapshot().History)
	}
}

func TestJumpToInvalidIndex(t *testing.T) {
	session, _ := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})

	if err := session.JumpTo(context.Background(), 5, false); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := session.JumpTo(context.Background(), 0, true); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Errorf("expected ErrQueueEmpty for empty history, got %v", err)
	}
}

func TestStopAllClearsQueueAndStops(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b", "c"), EnqueueOptions{})
	conn.setPosition(15 * time.Second)

	if err := session.StopAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := session.Snapshot()
	if !snapshot.IsIdle() {
		t.Error("expected idle session after StopAll")
	}
	if len(snapshot.Queue) != 0 {
		t.Errorf("expected queue discarded, got %v", snapshot.Queue)
	}
	if len(snapshot.History) != 1 || snapshot.History[0].Title != "a" {
		t.Errorf("expected stopped track in history, got %v", snapshot.History)
	}
	if conn.stops != 1 {
		t.Errorf("expected 1 stop, got %d", conn.stops)
	}
}

func TestTogglePause(t *testing.T) {
	session, conn := newTestSession()

	if err := session.TogglePause(context.Background()); !errors.Is(err, domain.ErrNothingPlaying) {
		t.Errorf("expected ErrNothingPlaying when idle, got %v", err)
	}

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})

	if err := session.TogglePause(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Snapshot().Paused || conn.pauses != 1 {
		t.Error("expected paused state after first toggle")
	}

	if err := session.TogglePause(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Snapshot().Paused || conn.resumes != 1 {
		t.Error("expected playing state after second toggle")
	}
}

func TestToggleFilterPersistsAcrossTracks(t *testing.T) {
	session, _ := newTestSession()

	if err := session.ToggleFilter(context.Background()); !errors.Is(err, domain.ErrNothingPlaying) {
		t.Errorf("expected ErrNothingPlaying when idle, got %v", err)
	}

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})

	if err := session.ToggleFilter(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Snapshot().FiltersApplied {
		t.Fatal("expected filter applied")
	}

	// Advancing to the next track keeps the filter on.
	_ = session.TrackFinished(context.Background())
	if !session.Snapshot().FiltersApplied {
		t.Error("expected filter to persist across track boundaries")
	}
}

func TestSetVolumeValidatesRange(t *testing.T) {
	session, conn := newTestSession()

	for _, volume := range []int{-1, 101} {
		if err := session.SetVolume(context.Background(), volume); !errors.Is(err, domain.ErrVolumeOutOfRange) {
			t.Errorf("volume %d: expected ErrVolumeOutOfRange, got %v", volume, err)
		}
	}

	if err := session.SetVolume(context.Background(), 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conn.volumes) != 1 || conn.volumes[0] != 50 {
		t.Errorf("expected volume 50 forwarded, got %v", conn.volumes)
	}
}

func TestEngineFailureIsTaggedUpstream(t *testing.T) {
	session, conn := newTestSession()
	conn.failWith = errors.New("socket closed")

	err := session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if domain.IsUserError(err) {
		t.Error("engine failures must not be user errors")
	}
}

func TestEnqueueEngineFailureKeepsTrackQueued(t *testing.T) {
	session, conn := newTestSession()
	conn.failWith = errors.New("socket closed")

	err := session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// The track the engine refused must not vanish.
	snapshot := session.Snapshot()
	if snapshot.Current != nil {
		t.Errorf("expected no current track after failed start, got %+v", snapshot.Current)
	}
	if len(snapshot.Queue) != 1 || snapshot.Queue[0].Title != "a" {
		t.Fatalf("expected failed track back in queue, got %v", snapshot.Queue)
	}

	// Once the engine recovers, the stranded track plays first.
	conn.failWith = nil
	if err := session.Enqueue(context.Background(), makeTracks("b"), EnqueueOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.lastPlay().track.Title != "a" {
		t.Errorf("expected stranded track to play on recovery, got %q", conn.lastPlay().track.Title)
	}
}

func TestForcePlayEngineFailureLeavesCurrentConsistent(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("x"), EnqueueOptions{})
	conn.setPosition(20 * time.Second)
	conn.failWith = errors.New("socket closed")

	err := session.Enqueue(context.Background(), makeTracks("y"), EnqueueOptions{ForcePlay: true})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// x is still playing, so it must not also sit in the queue; the forced
	// batch waits at the front instead.
	snapshot := session.Snapshot()
	if snapshot.Current == nil || snapshot.Current.Title != "x" {
		t.Fatalf("expected x still current, got %+v", snapshot.Current)
	}
	for _, track := range snapshot.Queue {
		if track.Title == "x" {
			t.Fatalf("current track duplicated into queue: %v", snapshot.Queue)
		}
	}
	if len(snapshot.Queue) != 1 || snapshot.Queue[0].Title != "y" {
		t.Fatalf("expected forced track queued at front, got %v", snapshot.Queue)
	}

	// After recovery a skip reaches the forced track normally.
	conn.failWith = nil
	if err := session.Skip(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.lastPlay().track.Title != "y" {
		t.Errorf("expected y to play after recovery, got %q", conn.lastPlay().track.Title)
	}
}

func TestPreviousEngineFailureKeepsHistoryIntact(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})
	_ = session.TrackFinished(context.Background()) // b now playing, a in history
	conn.failWith = errors.New("socket closed")

	err := session.Previous(context.Background())
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// b keeps playing, a stays replayable in history, and b is not duplicated
	// into the queue.
	snapshot := session.Snapshot()
	if snapshot.Current == nil || snapshot.Current.Title != "b" {
		t.Fatalf("expected b still current, got %+v", snapshot.Current)
	}
	if len(snapshot.History) != 1 || snapshot.History[0].Title != "a" {
		t.Fatalf("expected a back in history, got %v", snapshot.History)
	}
	if len(snapshot.Queue) != 0 {
		t.Fatalf("expected empty queue, got %v", snapshot.Queue)
	}

	conn.failWith = nil
	if err := session.Previous(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.lastPlay().track.Title != "a" {
		t.Errorf("expected a replaying after recovery, got %q", conn.lastPlay().track.Title)
	}
}

func TestTrackFinishedEngineFailureRequeuesNext(t *testing.T) {
	session, conn := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("a", "b"), EnqueueOptions{})

	conn.failWith = errors.New("socket closed")
	err := session.TrackFinished(context.Background())
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// The finished track is history either way; the next one returns to the
	// queue front so nothing is lost.
	snapshot := session.Snapshot()
	if snapshot.Current != nil {
		t.Errorf("expected idle session after failed advance, got %+v", snapshot.Current)
	}
	if len(snapshot.History) != 1 || snapshot.History[0].Title != "a" {
		t.Errorf("expected history [a], got %v", snapshot.History)
	}
	if len(snapshot.Queue) != 1 || snapshot.Queue[0].Title != "b" {
		t.Errorf("expected b back at queue front, got %v", snapshot.Queue)
	}
}

func TestCloseIsIdempotentAndPublishesClosure(t *testing.T) {
	conn := &fakeConnection{}
	bus := events.NewBus(8)
	defer bus.Close()
	session := NewPlaybackSession(testGuildID, conn, bus)

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})
	_ = session.ToggleFilter(context.Background())

	if err := session.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}

	if conn.disconnects != 1 {
		t.Errorf("expected exactly 1 disconnect, got %d", conn.disconnects)
	}
	if session.Snapshot().FiltersApplied {
		t.Error("expected filter state reset on close")
	}

	select {
	case event := <-bus.SessionClosed():
		if event.GuildID != testGuildID {
			t.Errorf("expected closure for guild %d, got %d", testGuildID, event.GuildID)
		}
	default:
		t.Error("expected a SessionClosed event")
	}
}

func TestMutationsPublishStateChanges(t *testing.T) {
	conn := &fakeConnection{}
	bus := events.NewBus(8)
	defer bus.Close()
	session := NewPlaybackSession(testGuildID, conn, bus)

	_ = session.Enqueue(context.Background(), makeTracks("a"), EnqueueOptions{})

	select {
	case event := <-bus.StateChanged():
		if event.Snapshot.Current == nil || event.Snapshot.Current.Title != "a" {
			t.Errorf("expected snapshot with current track a, got %+v", event.Snapshot.Current)
		}
	default:
		t.Error("expected a StateChanged event after enqueue")
	}
}

func TestConcurrentCommandsKeepStateConsistent(t *testing.T) {
	session, _ := newTestSession()

	_ = session.Enqueue(context.Background(), makeTracks("seed"), EnqueueOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch n % 4 {
				case 0:
					_ = session.Enqueue(context.Background(), makeTracks("t"), EnqueueOptions{})
				case 1:
					_ = session.Skip(context.Background())
				case 2:
					_ = session.Previous(context.Background())
				case 3:
					_ = session.TrackFinished(context.Background())
				}
			}
		}(i)
	}
	wg.Wait()

	// No assertion on the exact end state; the session must simply survive
	// interleaved commands without panics or a corrupted snapshot.
	snapshot := session.Snapshot()
	for _, track := range snapshot.Queue {
		if track == nil {
			t.Fatal("queue contains nil track after concurrent commands")
		}
	}
	for _, track := range snapshot.History {
		if track == nil {
			t.Fatal("history contains nil track after concurrent commands")
		}
	}
}
