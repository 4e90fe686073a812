package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// voiceConnectTimeout is the maximum time to wait for the voice handshake.
const voiceConnectTimeout = 10 * time.Second

// TrackEndHandler receives the engine's asynchronous track-end signal.
type TrackEndHandler func(guildID snowflake.ID, reason domain.TrackEndReason)

// voiceHandshake collects the two Discord voice events (state + server
// update) that Lavalink needs before it can speak to the voice backend. The
// events can arrive in either order; forwarding a partial pair produces
// engine errors, so both are buffered until the pair is complete.
type voiceHandshake struct {
	mu sync.Mutex

	hasState  bool
	channelID *snowflake.ID
	sessionID string

	hasServer bool
	token     string
	endpoint  string

	readyOnce sync.Once
	ready     chan struct{}
}

func newVoiceHandshake() *voiceHandshake {
	return &voiceHandshake{ready: make(chan struct{})}
}

// setState records the voice state half. Returns the full pair when complete.
func (h *voiceHandshake) setState(channelID *snowflake.ID, sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasState = true
	h.channelID = channelID
	h.sessionID = sessionID
	return h.hasState && h.hasServer
}

// setServer records the voice server half. Returns the full pair when complete.
func (h *voiceHandshake) setServer(token, endpoint string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasServer = true
	h.token = token
	h.endpoint = endpoint
	return h.hasState && h.hasServer
}

// take returns the buffered pair and resets the handshake for future moves.
func (h *voiceHandshake) take() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	channelID, sessionID, token, endpoint = h.channelID, h.sessionID, h.token, h.endpoint
	h.hasState = false
	h.hasServer = false
	return
}

func (h *voiceHandshake) signalReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

// LavalinkEngine adapts DisGoLink to the engine ports. It implements both
// the connection factory and the track resolver.
type LavalinkEngine struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	handshakeMu sync.Mutex
	handshakes  map[snowflake.ID]*voiceHandshake

	trackEnd TrackEndHandler
}

// LavalinkConfig contains the Lavalink node configuration.
type LavalinkConfig struct {
	Address  string
	Password string
}

// NewLavalinkEngine creates a LavalinkEngine and connects its node.
func NewLavalinkEngine(
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkEngine, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	engine := &LavalinkEngine{
		session:    session,
		botID:      botID,
		handshakes: make(map[snowflake.ID]*voiceHandshake),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(engine.onTrackStart),
		disgolink.WithListenerFunc(engine.onTrackEnd),
		disgolink.WithListenerFunc(engine.onTrackException),
		disgolink.WithListenerFunc(engine.onTrackStuck),
	)
	engine.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return engine, nil
}

// SetTrackEndHandler wires the completion signal to the playback coordinator.
func (e *LavalinkEngine) SetTrackEndHandler(handler TrackEndHandler) {
	e.trackEnd = handler
}

// Close shuts down the Lavalink client.
func (e *LavalinkEngine) Close() {
	e.link.Close()
}

// Connect joins the voice channel and waits for the voice handshake to
// complete before returning the guild's connection handle.
func (e *LavalinkEngine) Connect(
	ctx context.Context,
	guildID, voiceChannelID snowflake.ID,
) (ports.EngineConnection, error) {
	handshake := e.getOrCreateHandshake(guildID)

	err := e.session.ChannelVoiceJoinManual(guildID.String(), voiceChannelID.String(), false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-handshake.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectTimeout):
		return nil, fmt.Errorf("timeout waiting for voice connection")
	}

	return &guildConnection{engine: e, guildID: guildID}, nil
}

// Resolve loads tracks for a user query via the Lavalink REST API.
func (e *LavalinkEngine) Resolve(ctx context.Context, query string) (*ports.ResolveResult, error) {
	parsed := domain.ParseSearchQuery(query)
	if !parsed.IsValid() {
		return nil, domain.ErrNoTracksResolved
	}

	node := e.link.BestNode()
	if node == nil {
		return nil, domain.WrapUpstream("resolve", fmt.Errorf("no available Lavalink node"))
	}

	result, err := node.LoadTracks(ctx, parsed.EngineQuery())
	if err != nil {
		return nil, domain.WrapUpstream("resolve", err)
	}

	var tracks []*domain.Track
	switch data := result.Data.(type) {
	case lavalink.Track:
		tracks = []*domain.Track{convertTrack(data)}
	case lavalink.Playlist:
		tracks = make([]*domain.Track, len(data.Tracks))
		for i, track := range data.Tracks {
			tracks[i] = convertTrack(track)
		}
	case lavalink.Search:
		if len(data) > 0 {
			tracks = []*domain.Track{convertTrack(data[0])}
		}
	case lavalink.Exception:
		return nil, domain.WrapUpstream("resolve", fmt.Errorf("%s", data.Message))
	}

	if len(tracks) == 0 {
		return nil, domain.ErrNoTracksResolved
	}

	return &ports.ResolveResult{
		Tracks:  tracks,
		StartAt: parsed.StartAt,
	}, nil
}

func convertTrack(track lavalink.Track) *domain.Track {
	info := track.Info

	uri := ""
	if info.URI != nil {
		uri = *info.URI
	}
	artworkURL := ""
	if info.ArtworkURL != nil {
		artworkURL = *info.ArtworkURL
	}

	return domain.NewTrack(
		track.Encoded,
		info.Title,
		info.Author,
		time.Duration(info.Length)*time.Millisecond,
		uri,
		artworkURL,
		info.SourceName,
		info.IsStream,
	)
}

// OnVoiceServerUpdate handles Discord voice server updates.
// Must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	handshake := e.getOrCreateHandshake(guildID)
	if handshake.setServer(event.Token, event.Endpoint) {
		e.forwardHandshake(guildID, handshake)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot itself.
// Must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != e.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// A disconnect needs no matching server update.
	if channelID == nil {
		e.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		e.dropHandshake(guildID)
		return
	}

	handshake := e.getOrCreateHandshake(guildID)
	if handshake.setState(channelID, event.SessionID) {
		e.forwardHandshake(guildID, handshake)
	}
}

func (e *LavalinkEngine) getOrCreateHandshake(guildID snowflake.ID) *voiceHandshake {
	e.handshakeMu.Lock()
	defer e.handshakeMu.Unlock()

	handshake, ok := e.handshakes[guildID]
	if !ok {
		handshake = newVoiceHandshake()
		e.handshakes[guildID] = handshake
	}
	return handshake
}

func (e *LavalinkEngine) dropHandshake(guildID snowflake.ID) {
	e.handshakeMu.Lock()
	defer e.handshakeMu.Unlock()
	delete(e.handshakes, guildID)
}

func (e *LavalinkEngine) forwardHandshake(guildID snowflake.ID, handshake *voiceHandshake) {
	channelID, sessionID, token, endpoint := handshake.take()

	slog.Debug("forwarding voice handshake to Lavalink",
		"guild", guildID, "channel", channelID)

	e.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	e.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)

	handshake.signalReady()
}

func (e *LavalinkEngine) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (e *LavalinkEngine) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if e.trackEnd != nil {
		e.trackEnd(player.GuildID(), convertEndReason(event.Reason))
	}
}

func (e *LavalinkEngine) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (e *LavalinkEngine) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// guildConnection is the per-guild engine handle handed to a playback
// session.
type guildConnection struct {
	engine  *LavalinkEngine
	guildID snowflake.ID
}

func (c *guildConnection) Play(ctx context.Context, track *domain.Track, at time.Duration) error {
	player := c.engine.link.Player(c.guildID)

	err := player.Update(ctx,
		lavalink.WithEncodedTrack(track.Encoded),
		lavalink.WithPosition(lavalink.Duration(at.Milliseconds())),
		lavalink.WithPaused(false),
	)
	if err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

func (c *guildConnection) Stop(ctx context.Context) error {
	player := c.engine.link.Player(c.guildID)

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

func (c *guildConnection) Pause(ctx context.Context) error {
	player := c.engine.link.Player(c.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

func (c *guildConnection) Resume(ctx context.Context) error {
	player := c.engine.link.Player(c.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

func (c *guildConnection) SetVolume(ctx context.Context, volume int) error {
	player := c.engine.link.Player(c.guildID)

	if err := player.Update(ctx, lavalink.WithVolume(volume)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

func (c *guildConnection) SetFilter(ctx context.Context, enabled bool) error {
	player := c.engine.link.Player(c.guildID)

	filters := lavalink.Filters{}
	if enabled {
		filters = lavalink.Filters{
			Tremolo:   &lavalink.Tremolo{Frequency: 4, Depth: 0.3},
			Vibrato:   &lavalink.Vibrato{Frequency: 14, Depth: 1},
			Timescale: &lavalink.Timescale{Pitch: 0.8},
		}
	}

	if err := player.Update(ctx, lavalink.WithFilters(filters)); err != nil {
		return fmt.Errorf("failed to update filters: %w", err)
	}
	return nil
}

func (c *guildConnection) Position() time.Duration {
	player := c.engine.link.ExistingPlayer(c.guildID)
	if player == nil {
		return 0
	}
	return time.Duration(player.Position()) * time.Millisecond
}

func (c *guildConnection) Disconnect(ctx context.Context) error {
	player := c.engine.link.ExistingPlayer(c.guildID)
	if player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", c.guildID, "error", err)
		}
	}

	err := c.engine.session.ChannelVoiceJoinManual(c.guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Interface checks.
var (
	_ ports.ConnectionFactory = (*LavalinkEngine)(nil)
	_ ports.TrackResolver     = (*LavalinkEngine)(nil)
	_ ports.EngineConnection  = (*guildConnection)(nil)
)
