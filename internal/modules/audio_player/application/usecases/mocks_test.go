package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

type playCall struct {
	track *domain.Track
	at    time.Duration
}

// fakeConnection records engine calls and plays back a configurable position.
type fakeConnection struct {
	mu sync.Mutex

	plays       []playCall
	stops       int
	pauses      int
	resumes     int
	volumes     []int
	filters     []bool
	disconnects int

	position time.Duration
	failWith error
}

func (c *fakeConnection) Play(_ context.Context, track *domain.Track, at time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.plays = append(c.plays, playCall{track: track, at: at})
	return nil
}

func (c *fakeConnection) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.stops++
	return nil
}

func (c *fakeConnection) Pause(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauses++
	return nil
}

func (c *fakeConnection) Resume(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes++
	return nil
}

func (c *fakeConnection) SetVolume(_ context.Context, volume int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volumes = append(c.volumes, volume)
	return nil
}

func (c *fakeConnection) SetFilter(_ context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, enabled)
	return nil
}

func (c *fakeConnection) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *fakeConnection) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return nil
}

func (c *fakeConnection) setPosition(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
}

func (c *fakeConnection) playCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plays)
}

func (c *fakeConnection) lastPlay() playCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays[len(c.plays)-1]
}

// fakeFactory hands out fake connections and records connect attempts.
type fakeFactory struct {
	mu       sync.Mutex
	conns    []*fakeConnection
	connects int
	failWith error
	delay    time.Duration
}

func (f *fakeFactory) Connect(
	_ context.Context,
	_, _ snowflake.ID,
) (ports.EngineConnection, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.connects++
	conn := &fakeConnection{}
	f.conns = append(f.conns, conn)
	return conn, nil
}

func (f *fakeFactory) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// fakeResolver returns canned resolution results.
type fakeResolver struct {
	result *ports.ResolveResult
	err    error
}

func (r *fakeResolver) Resolve(context.Context, string) (*ports.ResolveResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

// fakeVoiceState serves canned voice channel lookups and listener counts.
type fakeVoiceState struct {
	mu        sync.Mutex
	channels  map[snowflake.ID]snowflake.ID // userID -> channelID
	listeners int
	err       error
}

func newFakeVoiceState() *fakeVoiceState {
	return &fakeVoiceState{channels: make(map[snowflake.ID]snowflake.ID)}
}

func (v *fakeVoiceState) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return 0, v.err
	}
	return v.channels[userID], nil
}

func (v *fakeVoiceState) ListenerCount(snowflake.ID) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return 0, v.err
	}
	return v.listeners, nil
}

func (v *fakeVoiceState) setListeners(count int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = count
}

func makeTrack(title string) *domain.Track {
	return domain.NewTrack("encoded:"+title, title, "artist", 3*time.Minute, "", "", "test", false)
}

func makeTracks(titles ...string) []*domain.Track {
	tracks := make([]*domain.Track, len(titles))
	for i, title := range titles {
		tracks[i] = makeTrack(title)
	}
	return tracks
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return condition()
}
