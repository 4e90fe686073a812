package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SearchSource represents the source prefix for searching tracks.
type SearchSource string

const (
	// SourceYouTube searches YouTube.
	SourceYouTube SearchSource = "ytsearch"
	// SourceSoundCloud searches SoundCloud.
	SourceSoundCloud SearchSource = "scsearch"
	// SourceDirect indicates a direct URL (no search prefix).
	SourceDirect SearchSource = ""
)

var (
	playlistRegex  = regexp.MustCompile(`list=([^#&?]+)`)
	startTimeRegex = regexp.MustCompile(`[?&]t=(\d+)`)
	videoIDRegex   = regexp.MustCompile(`youtu(?:be\.com/watch\?v=|\.be/)([\w-]+)`)
)

// SearchQuery is a parsed user query: where to look, what to send to the
// engine, and an optional scheduled start offset extracted from the URL.
type SearchQuery struct {
	Query      string       // search term or normalized URL
	Source     SearchSource // search source prefix
	IsURL      bool         // whether the query is a direct URL
	IsPlaylist bool         // whether the URL points at a whole playlist
	StartAt    time.Duration
}

// ParseSearchQuery interprets raw user input. A YouTube playlist URL loads
// the whole playlist; a t=<seconds> parameter becomes the scheduled start
// offset; shortened video links are normalized; anything else becomes a
// YouTube search.
func ParseSearchQuery(input string) SearchQuery {
	input = strings.TrimSpace(input)

	if m := playlistRegex.FindStringSubmatch(input); m != nil {
		return SearchQuery{
			Query:      "https://www.youtube.com/playlist?list=" + m[1],
			Source:     SourceDirect,
			IsURL:      true,
			IsPlaylist: true,
		}
	}

	var startAt time.Duration
	if m := startTimeRegex.FindStringSubmatch(input); m != nil {
		if seconds, err := strconv.Atoi(m[1]); err == nil {
			startAt = time.Duration(seconds) * time.Second
		}
	}

	// Shortened links are normalized to full watch URLs, which every engine
	// source accepts.
	if m := videoIDRegex.FindStringSubmatch(input); m != nil {
		return SearchQuery{
			Query:   "https://www.youtube.com/watch?v=" + m[1],
			Source:  SourceDirect,
			IsURL:   true,
			StartAt: startAt,
		}
	}

	if isURL(input) {
		return SearchQuery{
			Query:   input,
			Source:  SourceDirect,
			IsURL:   true,
			StartAt: startAt,
		}
	}

	return SearchQuery{
		Query:  input,
		Source: SourceYouTube,
	}
}

// EngineQuery returns the query string formatted for the streaming engine.
func (q SearchQuery) EngineQuery() string {
	if q.IsURL {
		return q.Query
	}
	return string(q.Source) + ":" + q.Query
}

// IsValid returns true if the query is not empty.
func (q SearchQuery) IsValid() bool {
	return q.Query != ""
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
