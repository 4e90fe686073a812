package presentation

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
)

// cooldownKey scopes a limiter to one command in one guild.
type cooldownKey struct {
	guildID snowflake.ID
	command string
}

// CooldownGate rate-limits commands per guild so button-mashing cannot flood
// the playback engine. Each guild/command pair gets an independent limiter.
type CooldownGate struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[cooldownKey]*rate.Limiter
}

// NewCooldownGate creates a CooldownGate allowing one invocation per interval
// for each guild/command pair.
func NewCooldownGate(interval time.Duration) *CooldownGate {
	return &CooldownGate{
		interval: interval,
		limiters: make(map[cooldownKey]*rate.Limiter),
	}
}

// Allow reports whether the command may run now in the guild.
func (g *CooldownGate) Allow(guildID snowflake.ID, command string) bool {
	g.mu.Lock()
	key := cooldownKey{guildID: guildID, command: command}
	limiter, ok := g.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(g.interval), 1)
		g.limiters[key] = limiter
	}
	g.mu.Unlock()

	return limiter.Allow()
}
